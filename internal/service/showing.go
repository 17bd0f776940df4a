package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/movie-booking-api/internal/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// MaxTextLength bounds titles and customer names; the columns are
	// VARCHAR(255) on MySQL.
	MaxTextLength = 255
)

// ParseShowing validates the identifying fields of a showing and returns
// its key.  Exactly one of movie and event must be set.  The date must be
// YYYY-MM-DD and the time HH:MM; a trailing :SS is accepted and dropped.
func ParseShowing(movie, event, date, clock string) (model.ShowingKey, error) {
	movie, event = strings.TrimSpace(movie), strings.TrimSpace(event)
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)

	var key model.ShowingKey
	switch {
	case movie == "" && event == "":
		return key, &ValidationError{Field: "movie_name", Message: "movie_name or event_name is required"}
	case movie != "" && event != "":
		return key, &ValidationError{Field: "movie_name", Message: "only one of movie_name and event_name may be set"}
	case movie != "":
		key.Kind, key.Title = model.KindMovie, movie
	default:
		key.Kind, key.Title = model.KindEvent, event
	}
	if utf8.RuneCountInString(key.Title) > MaxTextLength {
		field := key.Column()
		return key, &ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, MaxTextLength)}
	}

	if date == "" {
		return key, &ValidationError{Field: "date", Message: "date is required"}
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return key, &ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	key.Date = d.Format(dateLayout)

	if clock == "" {
		return key, &ValidationError{Field: "time", Message: "time is required"}
	}
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		t, err = time.Parse(timeLayout+":05", clock)
	}
	if err != nil {
		return key, &ValidationError{Field: "time", Message: "time must be HH:MM"}
	}
	key.Time = t.Format(timeLayout)
	return key, nil
}
