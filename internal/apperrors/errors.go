// Package apperrors defines the error kinds returned by the course content store.
//
// Every kind is a sentinel error; wrapped errors are matched with errors.Is.
package apperrors

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrHistoryNotFound is returned when a history version does not exist.
	// It matches ErrNotFound with errors.Is.
	ErrHistoryNotFound = &kindError{msg: "History version not found", kind: ErrNotFound}
	// ErrStoreUnavailable is returned when the document store cannot be reached
	// or fails at the transport level.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("operation timed out")
	// ErrConflict is returned when an expected course version does not match the stored one.
	ErrConflict = errors.New("version conflict")
	// ErrInvalidInput is returned for malformed ids, enum values or dates.
	ErrInvalidInput = errors.New("invalid input")
)

// kindError is a named error that also matches a broader kind.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
