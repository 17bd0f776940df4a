package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-booking-api/internal/model"
	"github.com/iliyamo/movie-booking-api/internal/service"
)

// BookingHandler exposes the booking service over HTTP.  It only binds
// requests and maps service errors to status codes; admission decisions,
// locking and transactions live in the service.
type BookingHandler struct {
	Bookings *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.  svc must be non-nil.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: svc}
}

// createBookingRequest accepts seats either as a string ("A1, A2") or as a
// JSON array, so the raw value is kept until the service normalizes it.
type createBookingRequest struct {
	Name      string          `json:"name"`
	MovieName string          `json:"movie_name"`
	EventName string          `json:"event_name"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Seats     json.RawMessage `json:"seats"`
}

type cancelBookingRequest struct {
	BookingID int64  `json:"booking_id"`
	Reason    string `json:"reason"`
}

// ListBookings handles GET /bookings.  Optional query parameters
// movie_name, event_name, date, time and name narrow the result;
// active=true restricts it to active bookings.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	active, _ := strconv.ParseBool(c.QueryParam("active"))
	f := model.BookingFilter{
		Name:       strings.TrimSpace(c.QueryParam("name")),
		MovieName:  strings.TrimSpace(c.QueryParam("movie_name")),
		EventName:  strings.TrimSpace(c.QueryParam("event_name")),
		Date:       strings.TrimSpace(c.QueryParam("date")),
		Time:       strings.TrimSpace(c.QueryParam("time")),
		ActiveOnly: active,
	}
	list, err := h.Bookings.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetBooking handles GET /bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// BookedSeats handles GET /booked-seats?movie=&date=&time= (or event=
// instead of movie=).  It returns the seats held by active bookings for the
// showing in natural order.
func (h *BookingHandler) BookedSeats(c echo.Context) error {
	key, err := service.ParseShowing(c.QueryParam("movie"), c.QueryParam("event"), c.QueryParam("date"), c.QueryParam("time"))
	if err != nil {
		return writeError(c, err)
	}
	booked, err := h.Bookings.BookedSeats(c.Request().Context(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookedSeats": booked})
}

// CreateBooking handles POST /bookings.  A request overlapping seats held
// by another active booking for the same showing is rejected with 409 and
// the full list of conflicting seats.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var seats any
	if len(body.Seats) > 0 {
		seats = body.Seats
	}
	b, err := h.Bookings.Create(c.Request().Context(), service.CreateRequest{
		Name:      body.Name,
		MovieName: body.MovieName,
		EventName: body.EventName,
		Date:      body.Date,
		Time:      body.Time,
		Seats:     seats,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// CancelBooking handles POST /cancelled-bookings.  The cancellation
// record and the status change are written together or not at all.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	var body cancelBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec, err := h.Bookings.Cancel(c.Request().Context(), body.BookingID, body.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// DeleteBooking handles DELETE /bookings/:id.
func (h *BookingHandler) DeleteBooking(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.Delete(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking deleted", "deletedBooking": b})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// writeError translates service errors into responses.  Storage failures
// were already logged by the service and are reported opaquely.
func writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	var conflict *service.ConflictError
	var serr *service.StorageError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error()})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats already booked", "conflicts": conflict.Seats})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.As(err, &serr) && serr.Timeout:
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "storage timeout"})
	}
	c.Logger().Errorf("booking request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
