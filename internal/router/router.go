package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/movie-booking-api/internal/handler"
)

// RegisterRoutes registers the operational endpoints: the root banner, the
// health check used by load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterBookings registers the booking endpoints.  mw is applied to every
// booking route (response cache, rate limiter); the operational routes
// above stay outside of it.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("", mw...)
	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.POST("/bookings", h.CreateBooking)
	g.DELETE("/bookings/:id", h.DeleteBooking)
	g.GET("/booked-seats", h.BookedSeats)
	g.POST("/cancelled-bookings", h.CancelBooking)
}
