package directory

import (
	"context"

	"clinic-scheduling/internal/database"

	"github.com/google/uuid"
)

const (
	findPatientByUUIDQuery    = "SELECT id, uuid, name, email, mobile_phone FROM tb_patient WHERE uuid = $1"
	findTherapistByUUIDQuery  = "SELECT id, uuid, user_id, name, email, specialty FROM tb_therapist WHERE uuid = $1"
	searchPatientsByNameQuery = "SELECT id, uuid, name, email, mobile_phone FROM tb_patient WHERE name ILIKE $1 ORDER BY name LIMIT 20"
	listTherapistsQuery       = "SELECT id, uuid, user_id, name, email, specialty FROM tb_therapist ORDER BY name"
)

// Repository provides access to the patient and therapist directory.
type Repository interface {

	// FindPatientByUUID finds a patient by its UUID.
	FindPatientByUUID(ctx context.Context, uuid uuid.UUID) (*Patient, error)

	// FindTherapistByUUID finds a therapist by its UUID.
	FindTherapistByUUID(ctx context.Context, uuid uuid.UUID) (*Therapist, error)

	// SearchPatients searches patients whose name matches the given term.
	SearchPatients(ctx context.Context, term string) ([]*Patient, error)

	// ListTherapists lists all the clinic's therapists.
	ListTherapists(ctx context.Context) ([]*Therapist, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) FindPatientByUUID(ctx context.Context, uuid uuid.UUID) (*Patient, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findPatientByUUIDQuery, uuid)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	patient := new(Patient)
	for rows.Next() {
		if err = database.TransformRow(rows, patient); err != nil {
			return nil, err
		}
		if patient.ID > 0 {
			return patient, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) FindTherapistByUUID(ctx context.Context, uuid uuid.UUID) (*Therapist, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findTherapistByUUIDQuery, uuid)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	therapist := new(Therapist)
	for rows.Next() {
		if err = database.TransformRow(rows, therapist); err != nil {
			return nil, err
		}
		if therapist.ID > 0 {
			return therapist, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) SearchPatients(ctx context.Context, term string) ([]*Patient, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, searchPatientsByNameQuery, term+"%")
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	patients := make([]*Patient, 0)
	for rows.Next() {
		patient := new(Patient)
		if err = database.TransformRow(rows, patient); err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

func (d defaultRepository) ListTherapists(ctx context.Context) ([]*Therapist, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listTherapistsQuery)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	therapists := make([]*Therapist, 0)
	for rows.Next() {
		therapist := new(Therapist)
		if err = database.TransformRow(rows, therapist); err != nil {
			return nil, err
		}
		therapists = append(therapists, therapist)
	}
	return therapists, nil
}
