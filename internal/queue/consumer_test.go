package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-booking-api/internal/model"
	"github.com/iliyamo/movie-booking-api/internal/seats"
)

func TestFormatLine(t *testing.T) {
	ev := BookingEvent{
		Type:       TypeBookingCancelled,
		BookingID:  7,
		Name:       "alice",
		EventName:  "Jazz Night",
		Date:       "2024-01-01",
		Time:       "20:00",
		Seats:      []string{"A1", "A2"},
		Reason:     "sick",
		OccurredAt: "2024-01-01T10:00:00Z",
	}
	assert.Equal(t,
		`[2024-01-01T10:00:00Z] booking.cancelled | booking_id=7 | name="alice" | event="Jazz Night" | date=2024-01-01 | time=20:00 | seats=[A1,A2] | reason="sick"`+"\n",
		FormatLine(ev))
}

func TestConsumer_HandleMessage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := NewConsumer("amqp://unused", dir, log.New("test"))

	b := model.Booking{ID: 3, MovieName: "Dune", Date: "2024-01-01", Time: "18:00", Seats: seats.List{"B4"}}
	body, err := json.Marshal(NewBookingEvent(TypeBookingCreated, b, ""))
	require.NoError(t, err)

	require.NoError(t, c.HandleMessage(body))
	require.NoError(t, c.HandleMessage(body))

	data, err := os.ReadFile(filepath.Join(dir, "booking.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "booking.created | booking_id=3")
	assert.Contains(t, lines[0], `movie="Dune"`)
	assert.Contains(t, lines[0], "seats=[B4]")
}

func TestConsumer_HandleMessageRejectsGarbage(t *testing.T) {
	c := NewConsumer("amqp://unused", t.TempDir(), log.New("test"))
	assert.Error(t, c.HandleMessage([]byte("{not json")))
	assert.Error(t, c.HandleMessage([]byte(`{"type":""}`)))
}
