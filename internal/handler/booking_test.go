package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-booking-api/internal/database"
	"github.com/iliyamo/movie-booking-api/internal/lock"
	"github.com/iliyamo/movie-booking-api/internal/model"
	"github.com/iliyamo/movie-booking-api/internal/repository"
	"github.com/iliyamo/movie-booking-api/internal/service"
)

func setupServer(t *testing.T) *echo.Echo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handler.db")
	db, err := database.Open(database.Options{
		Dialect: database.SQLite,
		DSN:     "file:" + path + "?_busy_timeout=5000",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.EnsureSchema(context.Background(), db, database.SQLite))

	svc := service.NewBookingService(repository.NewBookingRepo(db, database.SQLite), lock.NewLocal(), service.Options{})
	h := NewBookingHandler(svc)

	e := echo.New()
	e.GET("/", Root)
	e.GET("/bookings", h.ListBookings)
	e.GET("/bookings/:id", h.GetBooking)
	e.POST("/bookings", h.CreateBooking)
	e.DELETE("/bookings/:id", h.DeleteBooking)
	e.GET("/booked-seats", h.BookedSeats)
	e.POST("/cancelled-bookings", h.CancelBooking)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createDune(t *testing.T, e *echo.Echo, seats string) model.Booking {
	t.Helper()
	rec := do(e, http.MethodPost, "/bookings",
		`{"name":"alice","movie_name":"Dune","date":"2024-01-01","time":"18:00","seats":`+seats+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var b model.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestRoot(t *testing.T) {
	e := setupServer(t)
	rec := do(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Banner, rec.Body.String())
}

func TestCreateBooking_AcceptsStringAndListSeats(t *testing.T) {
	e := setupServer(t)
	fromString := createDune(t, e, `" a1 , A2"`)
	assert.Equal(t, []string{"A1", "A2"}, []string(fromString.Seats))
	assert.Equal(t, model.StatusActive, fromString.Status)

	fromList := createDune(t, e, `["b1","B2"]`)
	assert.Equal(t, []string{"B1", "B2"}, []string(fromList.Seats))
	assert.NotEqual(t, fromString.ID, fromList.ID)
}

func TestCreateBooking_Conflict(t *testing.T) {
	e := setupServer(t)
	createDune(t, e, `["A1"]`)

	rec := do(e, http.MethodPost, "/bookings",
		`{"movie_name":"Dune","date":"2024-01-01","time":"18:00","seats":["A1","A2"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"seats already booked","conflicts":["A1"]}`, rec.Body.String())
}

func TestCreateBooking_Validation(t *testing.T) {
	e := setupServer(t)
	for _, body := range []string{
		`{"date":"2024-01-01","time":"18:00","seats":["A1"]}`,
		`{"movie_name":"Dune","time":"18:00","seats":["A1"]}`,
		`{"movie_name":"Dune","date":"2024-01-01","seats":["A1"]}`,
		`{"movie_name":"Dune","date":"2024-01-01","time":"18:00"}`,
		`{"movie_name":"Dune","date":"2024-01-01","time":"18:00","seats":[]}`,
		`not json`,
		`{"movie_name":"Dune","date":"2024-01-01","time":"18:00","seats":"` + strings.Repeat("A", service.MaxSeatLength+1) + `"}`,
	} {
		rec := do(e, http.MethodPost, "/bookings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"error"`, body)
	}
}

func TestBookedSeats(t *testing.T) {
	e := setupServer(t)
	createDune(t, e, `"A10,A2"`)
	createDune(t, e, `"B1"`)

	rec := do(e, http.MethodGet, "/booked-seats?movie=Dune&date=2024-01-01&time=18:00", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bookedSeats":["A2","A10","B1"]}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/booked-seats?event=Dune&date=2024-01-01&time=18:00", "")
	assert.JSONEq(t, `{"bookedSeats":[]}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/booked-seats?movie=Dune&date=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBooking(t *testing.T) {
	e := setupServer(t)
	b := createDune(t, e, `["A1"]`)

	rec := do(e, http.MethodPost, "/cancelled-bookings", `{"booking_id":`+strconv.FormatInt(b.ID, 10)+`,"reason":"sick"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cancelled model.CancelledBooking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, b.ID, cancelled.BookingID)
	assert.Equal(t, "sick", cancelled.Reason)

	rec = do(e, http.MethodPost, "/cancelled-bookings", `{"booking_id":`+strconv.FormatInt(b.ID, 10)+`}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/cancelled-bookings", `{"booking_id":999,"reason":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/cancelled-bookings", `{"reason":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// seats are free again
	createDune(t, e, `["A1"]`)
}

func TestListGetDelete(t *testing.T) {
	e := setupServer(t)
	first := createDune(t, e, `["A1"]`)
	second := createDune(t, e, `["A2"]`)
	do(e, http.MethodPost, "/cancelled-bookings", `{"booking_id":`+strconv.FormatInt(first.ID, 10)+`}`)

	var list []model.Booking
	rec := do(e, http.MethodGet, "/bookings?movie_name=Dune", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = do(e, http.MethodGet, "/bookings?movie_name=Dune&active=true", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	rec = do(e, http.MethodGet, "/bookings?name=nobody", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(e, http.MethodGet, "/bookings/"+strconv.FormatInt(second.ID, 10), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodDelete, "/bookings/"+strconv.FormatInt(second.ID, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted struct {
		Message        string        `json:"message"`
		DeletedBooking model.Booking `json:"deletedBooking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, "Booking deleted", deleted.Message)
	assert.Equal(t, second.ID, deleted.DeletedBooking.ID)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/bookings/"+strconv.FormatInt(second.ID, 10), "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/bookings/"+strconv.FormatInt(second.ID, 10), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/bookings/abc", "").Code)
}

func TestWriteError_Timeout(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, &service.StorageError{Op: "list bookings", Err: context.DeadlineExceeded, Timeout: true}))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	rec = httptest.NewRecorder()
	c = echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, &service.StorageError{Op: "list bookings", Err: assert.AnError}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
