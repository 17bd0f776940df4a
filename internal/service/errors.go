package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an operation references a booking that does
// not exist.
var ErrNotFound = errors.New("booking not found")

// ErrAlreadyCancelled is returned when cancelling a booking that is no
// longer active.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ValidationError reports a missing or malformed request field.  No storage
// interaction happens before it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError reports every requested seat already held by an active
// booking for the same showing, in request order.
type ConflictError struct {
	Seats []string
}

func (e *ConflictError) Error() string {
	return "seats already booked: " + strings.Join(e.Seats, ", ")
}

// StorageError wraps a data-access failure.  Timeout is set when the
// failure was caused by the storage deadline.
type StorageError struct {
	Op      string
	Err     error
	Timeout bool
}

func (e *StorageError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: storage timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
