// Package scheduling contains handlers, services and structures used to manage the
// clinic's agenda: slot availability, the month calendar and the appointment
// lifecycle.
package scheduling

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/directory"
	"clinic-scheduling/internal/metrics"

	"github.com/google/uuid"
)

// ListQuery narrows an appointment listing at the API boundary. Nil fields are
// ignored.
type ListQuery struct {
	TherapistUUID *uuid.UUID
	PatientUUID   *uuid.UUID
	Day           *time.Time
	Status        *AppointmentStatus
}

// Reader determines the methods available to read the agenda.
type Reader interface {

	// GetDaySchedule returns the therapist's slot grid for the given date.
	GetDaySchedule(ctx context.Context, therapistUUID uuid.UUID, date time.Time) ([]TimeSlot, error)

	// GetMonthCalendar returns the therapist's 42-cell month grid.
	GetMonthCalendar(ctx context.Context, therapistUUID uuid.UUID, year int, month time.Month) ([]CalendarDay, error)

	// ListAppointments lists the appointments matching the given query.
	ListAppointments(ctx context.Context, query ListQuery) ([]*Appointment, error)

	// GetAppointment returns an appointment by its UUID.
	GetAppointment(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error)
}

// Booker determines the methods available to book appointments.
type Booker interface {

	// CreateAppointment validates the request, re-checks the interval against the
	// authoritative appointment set and creates the appointment.
	CreateAppointment(ctx context.Context, request BookingRequest) (*Appointment, error)
}

// Transitioner determines the lifecycle actions available on an appointment.
type Transitioner interface {
	ConfirmAppointment(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error)
	StartAppointment(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error)
	CompleteAppointment(ctx context.Context, appointmentUUID uuid.UUID, request CompletionRequest) (*Appointment, error)
	CancelAppointment(ctx context.Context, appointmentUUID uuid.UUID, request CancellationRequest) (*Appointment, error)
	MarkAppointmentNoShow(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error)
	DeleteAppointment(ctx context.Context, appointmentUUID uuid.UUID) error
}

// Service determines the methods used to manage the clinic's agenda.
type Service interface {
	Reader
	Booker
	Transitioner
}

type defaultService struct {
	repository Repository
	directory  directory.Resolver
	clock      Clock
}

// NewService creates a new scheduling service.
func NewService(dbConn database.Connection, resolver directory.Resolver) Service {
	return &defaultService{
		repository: newRepository(dbConn),
		directory:  resolver,
		clock:      systemClock{},
	}
}

func (d defaultService) resolveTherapist(ctx context.Context, therapistUUID uuid.UUID) (*directory.Therapist, error) {
	therapist, err := d.directory.ResolveTherapist(ctx, therapistUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if therapist == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrTherapistNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	return therapist, nil
}

func (d defaultService) GetDaySchedule(ctx context.Context, therapistUUID uuid.UUID, date time.Time) ([]TimeSlot, error) {
	therapist, err := d.resolveTherapist(ctx, therapistUUID)
	if err != nil {
		return nil, err
	}
	day := date
	appointments, err := d.repository.ListAppointments(ctx, AppointmentFilter{TherapistID: &therapist.ID, Day: &day})
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return GenerateDaySlots(date, appointments), nil
}

func (d defaultService) GetMonthCalendar(ctx context.Context, therapistUUID uuid.UUID, year int, month time.Month) ([]CalendarDay, error) {
	therapist, err := d.resolveTherapist(ctx, therapistUUID)
	if err != nil {
		return nil, err
	}
	now := d.clock.Now()
	from := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)
	appointments, err := d.repository.ListAppointments(ctx, AppointmentFilter{TherapistID: &therapist.ID, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return GenerateCalendarDays(year, month, appointments, now), nil
}

func (d defaultService) ListAppointments(ctx context.Context, query ListQuery) ([]*Appointment, error) {
	filter := AppointmentFilter{Day: query.Day, Status: query.Status}
	if query.TherapistUUID != nil {
		therapist, err := d.resolveTherapist(ctx, *query.TherapistUUID)
		if err != nil {
			return nil, err
		}
		filter.TherapistID = &therapist.ID
	}
	if query.PatientUUID != nil {
		patient, err := d.directory.ResolvePatient(ctx, *query.PatientUUID)
		if err != nil {
			return nil, fmt.Errorf("an unexpected error occurred: %w", err)
		}
		if patient == nil {
			return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrPatientNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
		}
		filter.PatientID = &patient.ID
	}
	appointments, err := d.repository.ListAppointments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return appointments, nil
}

func (d defaultService) GetAppointment(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error) {
	appointment, err := d.repository.FindAppointmentByUUID(ctx, appointmentUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if appointment == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrAppointmentNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	return appointment, nil
}

func (d defaultService) CreateAppointment(ctx context.Context, request BookingRequest) (*Appointment, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	patient, err := d.directory.ResolvePatient(ctx, request.PatientUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if patient == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrPatientNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	therapist, err := d.resolveTherapist(ctx, request.TherapistUUID)
	if err != nil {
		return nil, err
	}
	appointmentType, err := ParseType(string(request.Type))
	if err != nil {
		return nil, apierrors.NewValidationError("type", "invalid")
	}
	appointment := &Appointment{
		UUID:          uuid.New(),
		TherapistID:   therapist.ID,
		TherapistName: therapist.Name,
		PatientID:     patient.ID,
		PatientName:   patient.Name,
		DateTime:      request.DateTime,
		Duration:      request.Duration,
		Type:          appointmentType,
		Status:        StatusScheduled,
		Notes:         request.Notes,
		CreatedAt:     d.clock.Now(),
	}
	if err = d.repository.InsertAppointment(ctx, appointment); err != nil {
		if _, isConflict := err.(*apierrors.ConflictError); isConflict {
			metrics.BookingConflicts.Inc()
			return nil, err
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	metrics.AppointmentsCreated.Inc()
	return appointment, nil
}

// applyTransition loads the appointment, applies the given lifecycle action and
// persists it conditioned on the status the action started from.
func (d defaultService) applyTransition(ctx context.Context, appointmentUUID uuid.UUID, transition func(appointment *Appointment) error) (*Appointment, error) {
	appointment, err := d.GetAppointment(ctx, appointmentUUID)
	if err != nil {
		return nil, err
	}
	priorStatus := appointment.Status
	if err = transition(appointment); err != nil {
		metrics.RejectedTransitions.Inc()
		return nil, err
	}
	if err = d.repository.UpdateAppointmentStatus(ctx, *appointment, priorStatus); err != nil {
		if _, isStale := err.(*apierrors.StaleStateError); isStale {
			return nil, err
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return appointment, nil
}

func (d defaultService) ConfirmAppointment(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error) {
	return d.applyTransition(ctx, appointmentUUID, func(appointment *Appointment) error {
		return appointment.Confirm(d.clock.Now())
	})
}

func (d defaultService) StartAppointment(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error) {
	return d.applyTransition(ctx, appointmentUUID, func(appointment *Appointment) error {
		return appointment.Start(d.clock.Now())
	})
}

func (d defaultService) CompleteAppointment(ctx context.Context, appointmentUUID uuid.UUID, request CompletionRequest) (*Appointment, error) {
	return d.applyTransition(ctx, appointmentUUID, func(appointment *Appointment) error {
		return appointment.Complete(d.clock.Now(), request.SessionNotes)
	})
}

func (d defaultService) CancelAppointment(ctx context.Context, appointmentUUID uuid.UUID, request CancellationRequest) (*Appointment, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return d.applyTransition(ctx, appointmentUUID, func(appointment *Appointment) error {
		return appointment.Cancel(d.clock.Now(), request.Reason, request.CancelledBy, request.Notes)
	})
}

func (d defaultService) MarkAppointmentNoShow(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error) {
	return d.applyTransition(ctx, appointmentUUID, func(appointment *Appointment) error {
		return appointment.MarkNoShow()
	})
}

func (d defaultService) DeleteAppointment(ctx context.Context, appointmentUUID uuid.UUID) error {
	appointment, err := d.GetAppointment(ctx, appointmentUUID)
	if err != nil {
		return err
	}
	if !appointment.Deletable() {
		metrics.RejectedTransitions.Inc()
		return apierrors.NewInvalidTransitionError(string(appointment.Status), "delete")
	}
	if err = d.repository.DeleteAppointment(ctx, appointment.UUID); err != nil {
		if _, isStale := err.(*apierrors.StaleStateError); isStale {
			return err
		}
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return nil
}
