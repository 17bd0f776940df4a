// Package queue defines message payloads exchanged over the message broker
// together with the publisher used by the API and the consumer run by
// cmd/consumer.
package queue

import (
	"time"

	"github.com/iliyamo/movie-booking-api/internal/model"
)

// QueueName is the durable queue carrying booking lifecycle events.
const QueueName = "booking.events"

// Event types.
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingDeleted   = "booking.deleted"
)

// BookingEvent is published after a booking write commits.  It carries
// enough of the booking for downstream consumers to log, notify or run
// analytics without querying the primary database.
type BookingEvent struct {
	Type       string   `json:"type"`
	BookingID  int64    `json:"booking_id"`
	Name       string   `json:"name,omitempty"`
	MovieName  string   `json:"movie_name,omitempty"`
	EventName  string   `json:"event_name,omitempty"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Seats      []string `json:"seats"`
	Reason     string   `json:"reason,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}

// NewBookingEvent builds an event of the given type from b.
func NewBookingEvent(typ string, b model.Booking, reason string) BookingEvent {
	return BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		Name:       b.Name,
		MovieName:  b.MovieName,
		EventName:  b.EventName,
		Date:       b.Date,
		Time:       b.Time,
		Seats:      append([]string{}, b.Seats...),
		Reason:     reason,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
