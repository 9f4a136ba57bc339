package auth

import (
	"context"
	"database/sql"

	"clinic-scheduling/internal/database"

	"github.com/google/uuid"
)

const (
	findUserByUUIDQuery    = "SELECT id, uuid, email, role FROM tb_user WHERE uuid = $1"
	findUserByEmailQuery   = "SELECT id, uuid, email, role FROM tb_user WHERE email = $1"
	checkUserPasswordQuery = "SELECT id, password FROM tb_user WHERE email = $1"
)

// Repository provides access to auth data.
type Repository interface {

	// FindUserByUUID finds a user by its UUID.
	FindUserByUUID(ctx context.Context, uuid uuid.UUID) (*User, error)

	// FindUserByEmail finds a user by its email.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// CheckUserPassword checks if the stored password is equals to the given password.
	CheckUserPassword(ctx context.Context, email string, password string) (bool, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) FindUserByUUID(ctx context.Context, uuid uuid.UUID) (*User, error) {
	rows, err := d.dbConn.DB().QueryContext(ctx, findUserByUUIDQuery, uuid.String())
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	user := new(User)
	for rows.Next() {
		if err = database.TransformRow(rows, user); err != nil {
			return nil, err
		}
		if user.ID > 0 {
			return user, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	rows, err := d.dbConn.DB().QueryContext(ctx, findUserByEmailQuery, email)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	user := new(User)
	for rows.Next() {
		if err = database.TransformRow(rows, user); err != nil {
			return nil, err
		}
		if user.ID > 0 {
			return user, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) CheckUserPassword(ctx context.Context, email string, password string) (bool, error) {
	row := d.dbConn.DB().QueryRowContext(ctx, checkUserPasswordQuery, email)
	if row.Err() != nil {
		return false, row.Err()
	}
	var id int64
	var hashedPass string
	if err := row.Scan(&id, &hashedPass); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return ComparePasswords(hashedPass, password), nil
}
