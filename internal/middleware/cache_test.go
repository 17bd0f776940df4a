package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-booking-api/internal/cache"
	"github.com/iliyamo/movie-booking-api/internal/config"
)

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		Paths:       map[string]bool{"/booked-seats": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
}

func bookedSeatsContext(rec *httptest.ResponseRecorder) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/booked-seats?movie=Dune&date=2024-01-01&time=18:00", nil)
	c := echo.New().NewContext(req, rec)
	c.SetPath("/booked-seats")
	return c
}

func TestCacheKey_FollowsGeneration(t *testing.T) {
	cfg := cacheConfig()
	c := bookedSeatsContext(httptest.NewRecorder())

	assert.Equal(t, cacheKeyFrom(cfg, 1, c), cacheKeyFrom(cfg, 1, c))
	assert.NotEqual(t, cacheKeyFrom(cfg, 1, c), cacheKeyFrom(cfg, 2, c))
	assert.Contains(t, cacheKeyFrom(cfg, 7, c), "cache:7:")
}

func TestPayload_TruncatedIsRejected(t *testing.T) {
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"bookedSeats":["A1"]}`))
	require.NoError(t, err)

	status, hdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.JSONEq(t, `{"bookedSeats":["A1"]}`, string(body))

	_, _, _, ok = decodePayload(payload[:6])
	assert.False(t, ok)
}

func TestRedisCache_HitSkipsHandler(t *testing.T) {
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()
	gen := cache.NewGeneration(db, cfg.Prefix)

	rec := httptest.NewRecorder()
	c := bookedSeatsContext(rec)
	stored := http.Header{
		"Content-Type": {"application/json"},
		"X-Request-Id": {"req-from-miss"},
		"X-Cache":      {"MISS"},
	}
	payload, err := encodePayload(http.StatusOK, stored, []byte(`{"bookedSeats":["A1"]}`))
	require.NoError(t, err)

	mock.ExpectGet("cache:gen").SetVal("4")
	mock.ExpectGet(cacheKeyFrom(cfg, 4, c)).SetVal(string(payload))

	called := false
	err = NewRedisCache(cfg, db, gen)(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, []string{"HIT"}, rec.Header().Values("X-Cache"))
	assert.Empty(t, rec.Header().Values(echo.HeaderXRequestID), "request id of the filling response is not replayed")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"bookedSeats":["A1"]}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_GenerationErrorBypasses(t *testing.T) {
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("cache:gen").SetErr(errors.New("connection refused"))

	rec := httptest.NewRecorder()
	called := false
	err := NewRedisCache(cfg, db, cache.NewGeneration(db, cfg.Prefix))(func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, echo.Map{"bookedSeats": []string{}})
	})(bookedSeatsContext(rec))
	require.NoError(t, err)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_SkipsUncachedRoutes(t *testing.T) {
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()

	req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath("/bookings")

	called := false
	err := NewRedisCache(cfg, db, cache.NewGeneration(db, cfg.Prefix))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusCreated)
	})(c)
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
