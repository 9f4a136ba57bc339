package scheduling

type Error string

const (
	ErrTherapistNotFound     Error = "therapist not found"
	ErrPatientNotFound       Error = "patient not found"
	ErrAppointmentNotFound   Error = "appointment not found"
	ErrInvalidIdentifier     Error = "invalid identifier"
	ErrInvalidDateReference  Error = "invalid date reference"
	ErrInvalidYearReference  Error = "invalid year reference - e.g. 2025"
	ErrInvalidMonthReference Error = "invalid month reference - e.g. 08"
	ErrInvalidStatusFilter   Error = "invalid status filter"
)

func (e Error) Error() string {
	return string(e)
}
