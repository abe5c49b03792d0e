package apierror

// errors.go — domain error taxonomy.
// Services return one of these four types; handlers map them to HTTP status
// codes via Status(). Anything else is a 500.
//
//   ValidationError  — bad input, not retriable
//   ConflictError    — precondition no longer holds, not retriable
//   ConcurrencyError — another operation holds the lock, retriable with backoff
//   StateError       — illegal lifecycle transition, not retriable

import (
	"errors"
	"net/http"
)

// ValidationError signals invalid or incomplete caller input.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError signals that a recomputed precondition failed.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

// ConcurrencyError signals that a row lock could not be acquired because
// another operation on the same register/document is in flight.
type ConcurrencyError struct{ Msg string }

func (e *ConcurrencyError) Error() string { return e.Msg }

// StateError signals an illegal document-status transition.
type StateError struct{ Msg string }

func (e *StateError) Error() string { return e.Msg }

func Validation(msg string) error  { return &ValidationError{Msg: msg} }
func Conflict(msg string) error    { return &ConflictError{Msg: msg} }
func Concurrency(msg string) error { return &ConcurrencyError{Msg: msg} }
func State(msg string) error       { return &StateError{Msg: msg} }

// Status maps a domain error to its HTTP status code.
func Status(err error) int {
	var (
		ve *ValidationError
		cf *ConflictError
		cc *ConcurrencyError
		se *StateError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cf):
		return http.StatusConflict
	case errors.As(err, &cc):
		return http.StatusLocked
	case errors.As(err, &se):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
