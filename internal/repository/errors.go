// Package repository defines error types that are reused across the
// booking repositories. These sentinel values allow higher layers such as
// the booking service to distinguish between different failure
// scenarios. For example, ErrSeatTaken signals that the storage-level
// seat constraint rejected an insert, while ErrNotFound indicates that a
// statement referenced a booking that does not exist.
package repository

import "errors"

// ErrNotFound is returned when the referenced booking does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("booking not found")

// ErrSeatTaken is returned when inserting a booking violates the
// (showing_key, seat) primary key of booking_seats, i.e. another active
// booking already holds one of the seats.
var ErrSeatTaken = errors.New("seat already taken")

// ErrAlreadyCancelled is returned when cancelling a booking whose status
// is already cancelled.
var ErrAlreadyCancelled = errors.New("booking already cancelled")
