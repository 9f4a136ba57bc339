// Package directory contains handlers, services and models used to look up the clinic's
// patients and therapists. The scheduling context uses it to denormalize display names
// at booking time and to feed the slot-selection patient search.
package directory

import (
	"context"
	"fmt"

	"clinic-scheduling/internal/database"

	"github.com/google/uuid"
)

// Resolver determines the lookups needed by other contexts to denormalize display data.
type Resolver interface {

	// ResolvePatient resolves a patient by its UUID.
	ResolvePatient(ctx context.Context, patientUUID uuid.UUID) (*Patient, error)

	// ResolveTherapist resolves a therapist by its UUID.
	ResolveTherapist(ctx context.Context, therapistUUID uuid.UUID) (*Therapist, error)
}

// Searcher determines the methods available to browse the directory.
type Searcher interface {

	// SearchPatients searches patients by a name term.
	SearchPatients(ctx context.Context, term string) ([]*Patient, error)

	// ListTherapists lists all the clinic's therapists.
	ListTherapists(ctx context.Context) ([]*Therapist, error)
}

// Service determines the methods used to manage the clinic directory.
type Service interface {
	Resolver
	Searcher
}

type defaultService struct {
	repository Repository
}

// NewService creates a new directory service.
func NewService(dbConn database.Connection) Service {
	return &defaultService{repository: newRepository(dbConn)}
}

func (d defaultService) ResolvePatient(ctx context.Context, patientUUID uuid.UUID) (*Patient, error) {
	patient, err := d.repository.FindPatientByUUID(ctx, patientUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return patient, nil
}

func (d defaultService) ResolveTherapist(ctx context.Context, therapistUUID uuid.UUID) (*Therapist, error) {
	therapist, err := d.repository.FindTherapistByUUID(ctx, therapistUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return therapist, nil
}

func (d defaultService) SearchPatients(ctx context.Context, term string) ([]*Patient, error) {
	patients, err := d.repository.SearchPatients(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return patients, nil
}

func (d defaultService) ListTherapists(ctx context.Context) ([]*Therapist, error) {
	therapists, err := d.repository.ListTherapists(ctx)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return therapists, nil
}
