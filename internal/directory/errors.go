package directory

type Error string

const (
	ErrPatientNotFound   Error = "patient not found"
	ErrTherapistNotFound Error = "therapist not found"
	ErrInvalidIdentifier Error = "invalid identifier"
)

func (e Error) Error() string {
	return string(e)
}
