package scheduling

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/database"

	"github.com/google/uuid"
)

const appointmentColumns = "id, uuid, therapist_id, therapist_name, patient_id, patient_name, date_time, duration_minutes, type, status, notes, session_notes, cancellation_reason, cancelled_by, cancellation_notes, created_at, confirmed_at, started_at, completed_at, cancelled_at"

// Older rows may store statuses with the legacy underscore spellings (in_progress,
// no_show), so every predicate that compares the status column normalizes it with
// replace() before matching a canonical value.
const (
	findAppointmentByUUIDQuery = "SELECT " + appointmentColumns + " FROM tb_appointment WHERE uuid = $1"
	listAppointmentsBaseQuery  = "SELECT " + appointmentColumns + " FROM tb_appointment"

	// lockActiveAppointmentsByDayQuery locks the therapist's active appointments of the
	// day while the conflict check and insert run, so two concurrent bookings cannot
	// both pass the check.
	lockActiveAppointmentsByDayQuery = "SELECT " + appointmentColumns + " FROM tb_appointment WHERE therapist_id = $1 AND $2 = date_trunc('day', date_time) AND replace(status, '_', '-') IN ('scheduled', 'confirmed', 'in-progress') FOR UPDATE"

	insertAppointmentQuery = "INSERT INTO tb_appointment (uuid, therapist_id, therapist_name, patient_id, patient_name, date_time, duration_minutes, type, status, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)"

	// updateAppointmentStatusQuery is a compare-and-swap on the expected prior status;
	// zero affected rows means the appointment changed underneath the caller.
	updateAppointmentStatusQuery = "UPDATE tb_appointment SET status = $2, session_notes = $3, cancellation_reason = $4, cancelled_by = $5, cancellation_notes = $6, confirmed_at = $7, started_at = $8, completed_at = $9, cancelled_at = $10 WHERE uuid = $1 AND replace(status, '_', '-') = $11"

	// deleteAppointmentQuery removes an appointment only while it is still non-terminal,
	// so a transition landing between the caller's read and the delete keeps the row.
	deleteAppointmentQuery = "DELETE FROM tb_appointment WHERE uuid = $1 AND replace(status, '_', '-') IN ('scheduled', 'confirmed', 'in-progress')"
)

// AppointmentFilter narrows an appointment listing. Nil fields are ignored.
type AppointmentFilter struct {
	TherapistID *int64
	PatientID   *int64
	Day         *time.Time
	From        *time.Time
	To          *time.Time
	Status      *AppointmentStatus
}

func (f AppointmentFilter) whereClause() (string, []interface{}) {
	conditions := make([]string, 0, 4)
	params := make([]interface{}, 0, 4)
	add := func(condition string, value interface{}) {
		params = append(params, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(params)))
	}
	if f.TherapistID != nil {
		add("therapist_id = $%d", *f.TherapistID)
	}
	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if f.Day != nil {
		add("$%d = date_trunc('day', date_time)", truncateToDay(*f.Day))
	}
	if f.From != nil {
		add("date_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("date_time < $%d", *f.To)
	}
	if f.Status != nil {
		add("replace(status, '_', '-') = $%d", *f.Status)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), params
}

// Repository provides access to appointment data.
type Repository interface {

	// FindAppointmentByUUID finds an appointment by its UUID.
	FindAppointmentByUUID(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error)

	// ListAppointments lists the appointments matching the given filter, ordered by
	// start time.
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]*Appointment, error)

	// InsertAppointment inserts a new appointment after re-checking, inside a
	// transaction against the authoritative set, that its interval is still free for
	// the therapist. Returns a ConflictError when it is not.
	InsertAppointment(ctx context.Context, appointment *Appointment) error

	// UpdateAppointmentStatus persists the appointment's status and transition fields,
	// conditioned on the expected prior status. Returns a StaleStateError when the
	// precondition fails.
	UpdateAppointmentStatus(ctx context.Context, appointment Appointment, expectedPriorStatus AppointmentStatus) error

	// DeleteAppointment hard-deletes an appointment, conditioned on the row still being
	// non-terminal. Returns a StaleStateError when the appointment is gone or reached a
	// terminal state in the meantime.
	DeleteAppointment(ctx context.Context, appointmentUUID uuid.UUID) error
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

// truncateToDay drops the time-of-day part, keeping the location.
func truncateToDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// transformAppointmentRow reads the current row into an appointment, normalizing the
// legacy status and type spellings that older rows may carry.
func transformAppointmentRow(rows *sql.Rows, appointment *Appointment) error {
	if err := database.TransformRow(rows, appointment); err != nil {
		return err
	}
	appointment.Status = NormalizeStatus(appointment.Status)
	appointment.Type = AppointmentType(normalizeEnum(string(appointment.Type)))
	return nil
}

func (d defaultRepository) FindAppointmentByUUID(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findAppointmentByUUIDQuery, appointmentUUID)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	appointment := new(Appointment)
	for rows.Next() {
		if err = transformAppointmentRow(rows, appointment); err != nil {
			return nil, err
		}
		if appointment.ID > 0 {
			return appointment, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	where, params := filter.whereClause()
	rows, err := d.dbConn.DB().QueryContext(ctx, listAppointmentsBaseQuery+where+" ORDER BY date_time", params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	appointments := make([]*Appointment, 0)
	for rows.Next() {
		appointment := new(Appointment)
		if err = transformAppointmentRow(rows, appointment); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, nil
}

func (d defaultRepository) InsertAppointment(ctx context.Context, appointment *Appointment) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	tx, err := d.dbConn.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer database.RollbackTx(tx)
	rows, err := tx.QueryContext(ctx, lockActiveAppointmentsByDayQuery, appointment.TherapistID, truncateToDay(appointment.DateTime))
	if err != nil {
		return err
	}
	booked := make([]*Appointment, 0)
	for rows.Next() {
		existing := new(Appointment)
		if err = transformAppointmentRow(rows, existing); err != nil {
			database.CloseRows(rows)
			return err
		}
		booked = append(booked, existing)
	}
	database.CloseRows(rows)
	candidate := appointment.Interval()
	for _, existing := range booked {
		if candidate.Overlaps(existing.Interval()) {
			return apierrors.NewConflictError("chosen time conflicts with an existing appointment")
		}
	}
	result, err := tx.ExecContext(ctx, insertAppointmentQuery, appointment.UUID, appointment.TherapistID, appointment.TherapistName, appointment.PatientID, appointment.PatientName, appointment.DateTime, appointment.Duration, appointment.Type, appointment.Status, appointment.Notes, appointment.CreatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("appointment not inserted")
	}
	return tx.Commit()
}

func (d defaultRepository) UpdateAppointmentStatus(ctx context.Context, appointment Appointment, expectedPriorStatus AppointmentStatus) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	result, err := d.dbConn.DB().ExecContext(ctx, updateAppointmentStatusQuery, appointment.UUID, appointment.Status, appointment.SessionNotes, appointment.CancellationReason, appointment.CancelledBy, appointment.CancellationNotes, appointment.ConfirmedAt, appointment.StartedAt, appointment.CompletedAt, appointment.CancelledAt, expectedPriorStatus)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierrors.NewStaleStateError("appointment changed, please refresh and retry")
	}
	return nil
}

func (d defaultRepository) DeleteAppointment(ctx context.Context, appointmentUUID uuid.UUID) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	result, err := d.dbConn.DB().ExecContext(ctx, deleteAppointmentQuery, appointmentUUID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierrors.NewStaleStateError("appointment changed, please refresh and retry")
	}
	return nil
}
