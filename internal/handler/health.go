package handler // HTTP handlers for the booking API

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Banner is the text returned by the root endpoint.
const Banner = "🎉 Movie Booking API is running!"

// Root answers GET / with a plain text banner so a browser or curl can
// confirm the API is up.
func Root(c echo.Context) error {
	return c.String(http.StatusOK, Banner)
}

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok") // String writes plain text
}
