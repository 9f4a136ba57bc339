// Package apierrors contains the error types exchanged between services and HTTP handlers.
package apierrors

import "fmt"

// ValidationError represents an invalid value for a single input field.
type ValidationError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// NewValidationError creates a new ValidationError scoped to the given field.
func NewValidationError(field string, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Detail)
}

// APIError represents a generic error that carries the HTTP status code that should
// be returned to the client.
type APIError struct {
	Detail         string `json:"detail"`
	httpStatusCode int
}

// APIErrorOption determines the Functional Options used to create a new APIError.
type APIErrorOption func(apiError *APIError)

// WithDetail sets the detail message based on the given error.
func WithDetail(err error) APIErrorOption {
	return func(apiError *APIError) {
		apiError.Detail = err.Error()
	}
}

// WithHTTPStatusCode sets the HTTP status code associated to the error.
func WithHTTPStatusCode(statusCode int) APIErrorOption {
	return func(apiError *APIError) {
		apiError.httpStatusCode = statusCode
	}
}

// NewAPIError creates a new APIError using the given options.
func NewAPIError(opts ...APIErrorOption) *APIError {
	apiError := &APIError{}
	for _, opt := range opts {
		opt(apiError)
	}
	return apiError
}

func (a APIError) Error() string {
	return a.Detail
}

// HTTPStatusCode gets the HTTP status code associated to the error.
func (a APIError) HTTPStatusCode() int {
	return a.httpStatusCode
}

// ConflictError represents a booking attempt whose interval overlaps an existing
// active appointment at commit time. The caller must re-fetch availability before
// trying again.
type ConflictError struct {
	Detail string `json:"detail"`
}

// NewConflictError creates a new ConflictError.
func NewConflictError(detail string) *ConflictError {
	return &ConflictError{Detail: detail}
}

func (c ConflictError) Error() string {
	return c.Detail
}

// StaleStateError represents a status update whose expected-prior-status precondition
// failed, meaning the appointment changed underneath the caller.
type StaleStateError struct {
	Detail string `json:"detail"`
}

// NewStaleStateError creates a new StaleStateError.
func NewStaleStateError(detail string) *StaleStateError {
	return &StaleStateError{Detail: detail}
}

func (s StaleStateError) Error() string {
	return s.Detail
}

// InvalidTransitionError represents a lifecycle action attempted from a terminal or
// incompatible state. It points to a bug in the caller's state handling, so handlers
// log it and answer with a generic failure.
type InvalidTransitionError struct {
	From   string `json:"from"`
	Action string `json:"action"`
}

// NewInvalidTransitionError creates a new InvalidTransitionError.
func NewInvalidTransitionError(from string, action string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, Action: action}
}

func (i InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an appointment with status %s", i.Action, i.From)
}
