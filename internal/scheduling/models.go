package scheduling

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"clinic-scheduling/internal/apierrors"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle status of an appointment.
//
// Legacy payloads and rows may carry the underscore variants "in_progress" and
// "no_show"; those are normalized to the hyphenated forms at every boundary, so
// code past the parse step only ever sees the canonical values.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no-show"
)

// normalizeEnum maps legacy underscore spellings onto the canonical hyphenated form.
func normalizeEnum(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
}

// ParseStatus parses and normalizes the given status value.
func ParseStatus(value string) (AppointmentStatus, error) {
	status := AppointmentStatus(normalizeEnum(value))
	switch status {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return status, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", value)
}

// NormalizeStatus normalizes the given status without validating it. It is used right
// after row scans, where the stored value is trusted but may use a legacy spelling.
func NormalizeStatus(status AppointmentStatus) AppointmentStatus {
	return AppointmentStatus(normalizeEnum(string(status)))
}

func (s *AppointmentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = AppointmentStatus(normalizeEnum(raw))
	return nil
}

// IsActive tells whether an appointment with this status blocks slots and counts
// toward booking conflicts.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed || s == StatusInProgress
}

// IsTerminal tells whether no further lifecycle transition is valid.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// AppointmentType represents the kind of clinical session booked.
type AppointmentType string

const (
	TypeSession        AppointmentType = "session"
	TypeEvaluation     AppointmentType = "evaluation"
	TypeReEvaluation   AppointmentType = "re-evaluation"
	TypeDischarge      AppointmentType = "discharge"
	TypeFollowUp       AppointmentType = "follow-up"
	TypeParentMeeting  AppointmentType = "parent-meeting"
	TypeReportDelivery AppointmentType = "report-delivery"
)

// ParseType parses and normalizes the given appointment type.
func ParseType(value string) (AppointmentType, error) {
	appointmentType := AppointmentType(normalizeEnum(value))
	switch appointmentType {
	case TypeSession, TypeEvaluation, TypeReEvaluation, TypeDischarge, TypeFollowUp, TypeParentMeeting, TypeReportDelivery:
		return appointmentType, nil
	}
	return "", fmt.Errorf("unknown appointment type %q", value)
}

func (t *AppointmentType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = AppointmentType(normalizeEnum(raw))
	return nil
}

// CancelActor identifies who asked for a cancellation.
type CancelActor string

const (
	CancelledByTherapist CancelActor = "therapist"
	CancelledByPatient   CancelActor = "patient"
	CancelledBySystem    CancelActor = "system"
)

type Appointment struct {
	ID            int64             `json:"-" dbfield:"id"`
	UUID          uuid.UUID         `json:"uuid" dbfield:"uuid"`
	TherapistID   int64             `json:"-" dbfield:"therapist_id"`
	TherapistName string            `json:"therapist_name" dbfield:"therapist_name"`
	PatientID     int64             `json:"-" dbfield:"patient_id"`
	PatientName   string            `json:"patient_name" dbfield:"patient_name"`
	DateTime      time.Time         `json:"date_time" dbfield:"date_time"`
	Duration      int32             `json:"duration" dbfield:"duration_minutes"`
	Type          AppointmentType   `json:"type" dbfield:"type"`
	Status        AppointmentStatus `json:"status" dbfield:"status"`

	Notes        *string `json:"notes,omitempty" dbfield:"notes"`
	SessionNotes *string `json:"session_notes,omitempty" dbfield:"session_notes"`

	CancellationReason *string      `json:"cancellation_reason,omitempty" dbfield:"cancellation_reason"`
	CancelledBy        *CancelActor `json:"cancelled_by,omitempty" dbfield:"cancelled_by"`
	CancellationNotes  *string      `json:"cancellation_notes,omitempty" dbfield:"cancellation_notes"`

	CreatedAt   time.Time  `json:"created_at" dbfield:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty" dbfield:"confirmed_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" dbfield:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" dbfield:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" dbfield:"cancelled_at"`
}

// Interval returns the half-open time interval the appointment occupies.
func (a Appointment) Interval() Interval {
	return Interval{Start: a.DateTime, Duration: time.Duration(a.Duration) * time.Minute}
}

// TimeSlot is a derived view over a day's agenda; it is recomputed per request and
// never persisted.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// CalendarDay is a derived view over a month grid cell; it is recomputed per request
// and never persisted.
type CalendarDay struct {
	Day              int       `json:"day"`
	IsCurrentMonth   bool      `json:"is_current_month"`
	IsToday          bool      `json:"is_today"`
	Date             time.Time `json:"date"`
	AppointmentCount int       `json:"appointment_count"`
}

// BookingRequest carries the inputs needed to create an appointment.
type BookingRequest struct {
	PatientUUID   uuid.UUID       `json:"patient_uuid"`
	TherapistUUID uuid.UUID       `json:"therapist_uuid"`
	DateTime      time.Time       `json:"date_time"`
	Duration      int32           `json:"duration"`
	Type          AppointmentType `json:"type"`
	Notes         *string         `json:"notes,omitempty"`
}

// Validate checks the request field by field, so the caller can point at the exact
// missing input instead of failing with a generic message.
func (b BookingRequest) Validate() error {
	if b.PatientUUID == uuid.Nil {
		return apierrors.NewValidationError("patient_uuid", "required")
	}
	if b.TherapistUUID == uuid.Nil {
		return apierrors.NewValidationError("therapist_uuid", "required")
	}
	if b.DateTime.IsZero() {
		return apierrors.NewValidationError("date_time", "required")
	}
	if b.Duration <= 0 {
		return apierrors.NewValidationError("duration", "must be greater than zero")
	}
	if _, err := ParseType(string(b.Type)); err != nil {
		return apierrors.NewValidationError("type", "invalid")
	}
	return nil
}

// CancellationRequest carries the inputs of a cancel transition.
type CancellationRequest struct {
	Reason      string      `json:"reason"`
	CancelledBy CancelActor `json:"cancelled_by"`
	Notes       *string     `json:"notes,omitempty"`
}

// Validate validates if the cancellation request is valid.
func (c CancellationRequest) Validate() error {
	if c.Reason == "" {
		return apierrors.NewValidationError("reason", "required")
	}
	switch c.CancelledBy {
	case CancelledByTherapist, CancelledByPatient, CancelledBySystem:
		return nil
	case "":
		return apierrors.NewValidationError("cancelled_by", "required")
	}
	return apierrors.NewValidationError("cancelled_by", "invalid")
}

// CompletionRequest carries the optional inputs of a complete transition.
type CompletionRequest struct {
	SessionNotes *string `json:"session_notes,omitempty"`
}
