package model

import "strings"

// Showing kinds.
const (
	KindMovie = "movie"
	KindEvent = "event"
)

// ShowingKey identifies one showing instance: a movie screening or an
// event at a given date and time.  It scopes seat uniqueness, the
// admission lock and the storage constraint.
type ShowingKey struct {
	Kind  string // movie or event
	Title string // movie_name or event_name
	Date  string // YYYY-MM-DD
	Time  string // HH:MM
}

// String renders the key as kind|title|date|time.
func (k ShowingKey) String() string {
	return strings.Join([]string{k.Kind, k.Title, k.Date, k.Time}, "|")
}

// Column returns the bookings column that holds the title for this kind.
func (k ShowingKey) Column() string {
	if k.Kind == KindEvent {
		return "event_name"
	}
	return "movie_name"
}
