// Package mock contains utilities for tests.
package mock

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// Connection is the mock version for database.Connection.
type Connection struct {
	db      *sql.DB
	SQLMock sqlmock.Sqlmock
}

func (m Connection) CreateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := 5 * time.Second
	return context.WithTimeout(ctx, timeout)
}

func (m Connection) DB() *sql.DB {
	return m.db
}

func (m Connection) Close() {
	_ = m.DB().Close()
}

// MustCreateConnectionMock creates a new mocked connection and if any error occurs, will panic.
func MustCreateConnectionMock() Connection {
	db, sqlMock, err := sqlmock.New()
	if err != nil {
		panic(err)
	}
	return Connection{
		db:      db,
		SQLMock: sqlMock,
	}
}

// DBResultOption determines the Functional Options used to program mocked results.
type DBResultOption func(dbConn Connection)

// MockDBResults programs the given options into the mocked connection, in order.
func MockDBResults(dbConn Connection, opts ...DBResultOption) {
	for _, opt := range opts {
		opt(dbConn)
	}
}
