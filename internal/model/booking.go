package model

import (
	"time"

	"github.com/iliyamo/movie-booking-api/internal/seats"
)

// Booking statuses.  Only active bookings hold seats.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Booking records a requester's seats for a single showing.  Exactly one
// of MovieName and EventName is set; together with Date and Time it forms
// the showing key.  Seats are always canonical tokens.
//
// Fields:
//  ID        – primary key identifier, generated by storage.
//  Name      – requester identity (optional).
//  MovieName – movie title when the showing is a screening.
//  EventName – event title when the showing is an event.
//  Date      – showing date, YYYY-MM-DD.
//  Time      – showing time, HH:MM.
//  Seats     – canonical seat tokens held by the booking.
//  Status    – active or cancelled.
//  CreatedAt – creation timestamp (UTC).
type Booking struct {
	ID        int64      `json:"id"`         // bookings.id
	Name      string     `json:"name"`       // bookings.name (nullable)
	MovieName string     `json:"movie_name"` // bookings.movie_name (nullable)
	EventName string     `json:"event_name"` // bookings.event_name (nullable)
	Date      string     `json:"date"`       // bookings.show_date
	Time      string     `json:"time"`       // bookings.show_time
	Seats     seats.List `json:"seats"`      // bookings.seats
	Status    string     `json:"status"`     // bookings.status
	CreatedAt time.Time  `json:"created_at"` // bookings.created_at
}

// Showing returns the key of the showing this booking belongs to.
func (b Booking) Showing() ShowingKey {
	if b.MovieName != "" {
		return ShowingKey{Kind: KindMovie, Title: b.MovieName, Date: b.Date, Time: b.Time}
	}
	return ShowingKey{Kind: KindEvent, Title: b.EventName, Date: b.Date, Time: b.Time}
}

// CancelledBooking records the cancellation of a booking together with
// the free-text reason supplied by the caller.
//
// Fields:
//  ID          – primary key identifier, generated by storage.
//  BookingID   – the cancelled booking.
//  Reason      – free-text reason (may be empty).
//  CancelledAt – when the cancellation was recorded (UTC).
type CancelledBooking struct {
	ID          int64     `json:"id"`           // cancelled_bookings.id
	BookingID   int64     `json:"booking_id"`   // cancelled_bookings.booking_id
	Reason      string    `json:"reason"`       // cancelled_bookings.reason
	CancelledAt time.Time `json:"cancelled_at"` // cancelled_bookings.cancelled_at
}

// BookingFilter narrows a booking listing.  Empty fields are ignored.
type BookingFilter struct {
	Name       string
	MovieName  string
	EventName  string
	Date       string
	Time       string
	ActiveOnly bool
}
