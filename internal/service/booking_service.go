// Package service holds the booking admission logic: validation, the
// per-showing serialization, the availability check and the atomic writes
// for admission, cancellation and deletion.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/movie-booking-api/internal/lock"
	"github.com/iliyamo/movie-booking-api/internal/metrics"
	"github.com/iliyamo/movie-booking-api/internal/model"
	"github.com/iliyamo/movie-booking-api/internal/queue"
	"github.com/iliyamo/movie-booking-api/internal/repository"
	"github.com/iliyamo/movie-booking-api/internal/seats"
)

// Store is the data access the service needs.  *repository.BookingRepo
// implements it.
type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	ActiveSeats(ctx context.Context, key model.ShowingKey) (seats.Set, error)
	ActiveSeatsTx(ctx context.Context, tx *sql.Tx, key model.ShowingKey) (seats.Set, error)
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	CancelTx(ctx context.Context, tx *sql.Tx, bookingID int64, reason string) (*model.CancelledBooking, error)
	Delete(ctx context.Context, id int64) (*model.Booking, error)
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
}

// EventPublisher receives booking events after a write commits.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.BookingEvent) error
}

// Invalidator is told about every committed write so cached reads can be
// dropped.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Options configures a BookingService.  Zero values are valid: Timeout
// defaults to five seconds and nil collaborators are skipped.
type Options struct {
	Timeout   time.Duration
	Logger    *log.Logger
	Publisher EventPublisher
	Cache     Invalidator
}

// BookingService admits, cancels, deletes and lists bookings.  Requests
// share only the locker; pending tracks background event publication.
type BookingService struct {
	store     Store
	locker    lock.Locker
	timeout   time.Duration
	logger    *log.Logger
	publisher EventPublisher
	cache     Invalidator
	pending   sync.WaitGroup
}

// NewBookingService constructs a BookingService.  store and locker must be
// non-nil.
func NewBookingService(store Store, locker lock.Locker, opts Options) *BookingService {
	if store == nil || locker == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New("booking")
	}
	return &BookingService{
		store:     store,
		locker:    locker,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		publisher: opts.Publisher,
		cache:     opts.Cache,
	}
}

// CreateRequest carries the fields of a booking request.  Seats may be a
// string or a list in any of the accepted representations.
type CreateRequest struct {
	Name      string
	MovieName string
	EventName string
	Date      string
	Time      string
	Seats     any
}

// Create runs the admission decision for req.  On success the persisted
// booking, including its generated ID, is returned.  Errors are
// *ValidationError, *ConflictError or *StorageError.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	key, err := ParseShowing(req.MovieName, req.EventName, req.Date, req.Time)
	if err != nil {
		metrics.TrackAdmission(kindOf(req.MovieName, req.EventName), metrics.OutcomeInvalid)
		return nil, err
	}
	requested := seats.Normalize(req.Seats)
	if err := checkRequest(req.Name, requested); err != nil {
		metrics.TrackAdmission(key.Kind, metrics.OutcomeInvalid)
		return nil, err
	}

	b := &model.Booking{
		Name:  strings.TrimSpace(req.Name),
		Date:  key.Date,
		Time:  key.Time,
		Seats: requested,
	}
	if key.Kind == model.KindMovie {
		b.MovieName = key.Title
	} else {
		b.EventName = key.Title
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.admit(ctx, key, b); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.TrackAdmission(key.Kind, metrics.OutcomeConflict)
		} else {
			metrics.TrackAdmission(key.Kind, metrics.OutcomeError)
		}
		return nil, err
	}
	metrics.TrackAdmission(key.Kind, metrics.OutcomeAdmitted)
	s.afterWrite(queue.NewBookingEvent(queue.TypeBookingCreated, *b, ""))
	return b, nil
}

// Limits on a single booking.  MaxSeatLength matches booking_seats.seat.
const (
	MaxSeatsPerBooking = 100
	MaxSeatLength      = 64
)

// checkRequest bounds what a single booking may carry so oversized input is
// rejected before it reaches storage.
func checkRequest(name string, requested seats.List) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > MaxTextLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxTextLength)}
	}
	switch {
	case len(requested) == 0:
		return &ValidationError{Field: "seats", Message: "at least one seat is required"}
	case len(requested) > MaxSeatsPerBooking:
		return &ValidationError{Field: "seats", Message: fmt.Sprintf("at most %d seats per booking", MaxSeatsPerBooking)}
	}
	for _, seat := range requested {
		if utf8.RuneCountInString(seat) > MaxSeatLength {
			return &ValidationError{Field: "seats", Message: fmt.Sprintf("each seat must be at most %d characters", MaxSeatLength)}
		}
	}
	return nil
}

// admit holds the showing lock for the read-check-insert sequence.
func (s *BookingService) admit(ctx context.Context, key model.ShowingKey, b *model.Booking) error {
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		return s.storageErr(ctx, "acquire showing lock", err)
	}
	defer unlock()
	metrics.TrackLockWait(key.Kind, time.Since(start))

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return s.storageErr(ctx, "begin admission", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	taken, err := s.store.ActiveSeatsTx(ctx, tx, key)
	if err != nil {
		return s.storageErr(ctx, "load booked seats", err)
	}
	if conflicts := seats.Conflicts(b.Seats, taken); len(conflicts) > 0 {
		return &ConflictError{Seats: conflicts}
	}

	if err := s.store.CreateTx(ctx, tx, b); err != nil {
		if errors.Is(err, repository.ErrSeatTaken) {
			// a writer outside this lock got there first; the
			// transaction is unusable now, so release it before re-reading
			_ = tx.Rollback()
			return s.conflictAfterRace(ctx, key, b.Seats)
		}
		return s.storageErr(ctx, "insert booking", err)
	}
	if err := tx.Commit(); err != nil {
		return s.storageErr(ctx, "commit booking", err)
	}
	committed = true
	return nil
}

func (s *BookingService) conflictAfterRace(ctx context.Context, key model.ShowingKey, requested seats.List) error {
	taken, err := s.store.ActiveSeats(ctx, key)
	if err != nil {
		return s.storageErr(ctx, "reload booked seats", err)
	}
	conflicts := seats.Conflicts(requested, taken)
	if len(conflicts) == 0 {
		conflicts = requested
	}
	return &ConflictError{Seats: conflicts}
}

// BookedSeats returns the union of seats held by active bookings for the
// showing, in natural seat order.
func (s *BookingService) BookedSeats(ctx context.Context, key model.ShowingKey) (seats.List, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	taken, err := s.store.ActiveSeats(ctx, key)
	if err != nil {
		return nil, s.storageErr(ctx, "load booked seats", err)
	}
	return taken.Sorted(), nil
}

// Cancel records a cancellation for bookingID and flips the booking to
// cancelled in one transaction.  ErrNotFound is returned for unknown IDs
// and ErrAlreadyCancelled for bookings that are not active.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64, reason string) (*model.CancelledBooking, error) {
	if bookingID <= 0 {
		return nil, &ValidationError{Field: "booking_id", Message: "must be a positive integer"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		metrics.TrackCancellation(metrics.OutcomeError)
		return nil, s.storageErr(ctx, "begin cancellation", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := s.store.CancelTx(ctx, tx, bookingID, strings.TrimSpace(reason))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			metrics.TrackCancellation(metrics.OutcomeNotFound)
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrAlreadyCancelled):
			metrics.TrackCancellation(metrics.OutcomeConflict)
			return nil, ErrAlreadyCancelled
		}
		metrics.TrackCancellation(metrics.OutcomeError)
		return nil, s.storageErr(ctx, "cancel booking", err)
	}
	if err := tx.Commit(); err != nil {
		metrics.TrackCancellation(metrics.OutcomeError)
		return nil, s.storageErr(ctx, "commit cancellation", err)
	}
	committed = true
	metrics.TrackCancellation(metrics.OutcomeCancelled)

	cancelled := model.Booking{ID: bookingID}
	if b, err := s.store.GetByID(ctx, bookingID); err == nil {
		cancelled = *b
	}
	s.afterWrite(queue.NewBookingEvent(queue.TypeBookingCancelled, cancelled, rec.Reason))
	return rec, nil
}

// Delete hard-removes a booking and returns it.  ErrNotFound is returned
// for unknown IDs.
func (s *BookingService) Delete(ctx context.Context, id int64) (*model.Booking, error) {
	if id <= 0 {
		return nil, &ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	b, err := s.store.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storageErr(ctx, "delete booking", err)
	}
	s.afterWrite(queue.NewBookingEvent(queue.TypeBookingDeleted, *b, ""))
	return b, nil
}

// Get returns a single booking.
func (s *BookingService) Get(ctx context.Context, id int64) (*model.Booking, error) {
	if id <= 0 {
		return nil, &ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storageErr(ctx, "get booking", err)
	}
	return b, nil
}

// List returns bookings matching f, newest first.
func (s *BookingService) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, s.storageErr(ctx, "list bookings", err)
	}
	return out, nil
}

// Wait blocks until every in-flight event publication has finished.
func (s *BookingService) Wait() {
	s.pending.Wait()
}

// afterWrite runs once a write has committed.  The cache generation is
// bumped before the caller sees the response so a follow-up read cannot be
// served from a stale entry; the event is published in the background.
// Neither affects the outcome of the write.
func (s *BookingService) afterWrite(ev queue.BookingEvent) {
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warnf("cache: bump generation failed: %v", err)
		}
		cancel()
	}
	if s.publisher == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warnf("events: publish %s for booking %d failed: %v", ev.Type, ev.BookingID, err)
		}
	}()
}

// storageErr wraps err, flags deadline failures and logs the full context.
func (s *BookingService) storageErr(ctx context.Context, op string, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	s.logger.Errorj(log.JSON{
		"op":      op,
		"error":   err.Error(),
		"timeout": timeout,
	})
	return &StorageError{Op: op, Err: err, Timeout: timeout}
}

func kindOf(movie, event string) string {
	if strings.TrimSpace(movie) != "" {
		return model.KindMovie
	}
	if strings.TrimSpace(event) != "" {
		return model.KindEvent
	}
	return "unknown"
}
