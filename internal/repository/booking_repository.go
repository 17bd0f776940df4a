package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/movie-booking-api/internal/database"
	"github.com/iliyamo/movie-booking-api/internal/model"
	"github.com/iliyamo/movie-booking-api/internal/seats"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// BookingRepo provides data access to the bookings, booking_seats and
// cancelled_bookings tables.  Seats are stored in their canonical encoded
// form on the bookings row and, for active bookings, as one booking_seats
// row per seat.  All timestamps are written in UTC.
type BookingRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB, dialect database.Dialect) *BookingRepo {
	return &BookingRepo{db: db, dialect: dialect}
}

// DB exposes the underlying handle.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// BeginTx starts a transaction on the underlying database.
func (r *BookingRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

const bookingColumns = `id, name, movie_name, event_name, show_date, show_time, seats, status, created_at`

// ActiveSeats returns the union of seats held by every active booking for
// the showing.
func (r *BookingRepo) ActiveSeats(ctx context.Context, key model.ShowingKey) (seats.Set, error) {
	return r.activeSeats(ctx, r.db, key)
}

// ActiveSeatsTx is ActiveSeats within the provided transaction.
func (r *BookingRepo) ActiveSeatsTx(ctx context.Context, tx *sql.Tx, key model.ShowingKey) (seats.Set, error) {
	return r.activeSeats(ctx, tx, key)
}

func (r *BookingRepo) activeSeats(ctx context.Context, q queryer, key model.ShowingKey) (seats.Set, error) {
	query := `SELECT seats FROM bookings
	          WHERE ` + key.Column() + ` = ? AND show_date = ? AND show_time = ? AND status = ?`
	rows, err := q.QueryContext(ctx, r.dialect.Rebind(query), key.Title, key.Date, key.Time, model.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	taken := seats.Set{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		taken.Add(seats.Normalize(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return taken, nil
}

// CreateTx inserts a new active booking and its booking_seats rows within
// the provided transaction.  It populates the generated ID and CreatedAt on
// b.  ErrSeatTaken is returned when another active booking already holds one
// of the seats for the same showing.  The caller must commit or rollback.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	b.Status = model.StatusActive
	b.CreatedAt = time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO bookings (name, movie_name, event_name, show_date, show_time, seats, status, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.insertID(ctx, tx, q,
		nullString(b.Name), nullString(b.MovieName), nullString(b.EventName),
		b.Date, b.Time, seats.Encode(b.Seats), b.Status, b.CreatedAt,
	)
	if err != nil {
		return err
	}
	b.ID = id
	return r.createSeatsTx(ctx, tx, b.ID, b.Showing(), b.Seats)
}

// createSeatsTx inserts one booking_seats row per seat in a single
// statement.  Passing an empty list has no effect.
func (r *BookingRepo) createSeatsTx(ctx context.Context, tx *sql.Tx, bookingID int64, key model.ShowingKey, list seats.List) error {
	if len(list) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO booking_seats (showing_key, seat, booking_id) VALUES `)
	args := make([]any, 0, len(list)*3)
	for i, seat := range list {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, key.String(), seat, bookingID)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(b.String()), args...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSeatTaken
		}
		return err
	}
	return nil
}

// CancelTx records a cancellation for the booking and flips its status to
// cancelled within the provided transaction, releasing its booking_seats
// rows.  The booking row is locked first.  ErrNotFound is returned when the
// booking does not exist and ErrAlreadyCancelled when it is not active.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID int64, reason string) (*model.CancelledBooking, error) {
	var status string
	sel := `SELECT status FROM bookings WHERE id = ?` + r.dialect.ForUpdate()
	if err := tx.QueryRowContext(ctx, r.dialect.Rebind(sel), bookingID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if status != model.StatusActive {
		return nil, ErrAlreadyCancelled
	}
	rec := &model.CancelledBooking{
		BookingID:   bookingID,
		Reason:      reason,
		CancelledAt: time.Now().UTC().Truncate(time.Second),
	}
	const ins = `INSERT INTO cancelled_bookings (booking_id, reason, cancelled_at) VALUES (?, ?, ?)`
	id, err := r.insertID(ctx, tx, ins, rec.BookingID, rec.Reason, rec.CancelledAt)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	const upd = `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(upd), model.StatusCancelled, bookingID, model.StatusActive)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM booking_seats WHERE booking_id = ?`), bookingID); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete hard-removes a booking and its booking_seats rows in a single
// transaction and returns the removed booking.  ErrNotFound is returned
// when no booking has the given ID.
func (r *BookingRepo) Delete(ctx context.Context, id int64) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	b, err := r.getByID(ctx, tx, id, r.dialect.ForUpdate())
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM booking_seats WHERE booking_id = ?`), id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM bookings WHERE id = ?`), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// GetByID returns a single booking.  ErrNotFound is returned when no
// booking has the given ID.
func (r *BookingRepo) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	return r.getByID(ctx, r.db, id, "")
}

func (r *BookingRepo) getByID(ctx context.Context, q queryer, id int64, suffix string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?` + suffix
	b, err := scanBooking(q.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List returns bookings matching the filter, newest first.  When no
// bookings match, an empty slice is returned.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	var where []string
	var args []any
	add := func(col, val string) {
		if val != "" {
			where = append(where, col+" = ?")
			args = append(args, val)
		}
	}
	add("name", f.Name)
	add("movie_name", f.MovieName)
	add("event_name", f.EventName)
	add("show_date", f.Date)
	add("show_time", f.Time)
	if f.ActiveOnly {
		add("status", model.StatusActive)
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// insertID executes an INSERT and returns the generated id, using
// RETURNING where LastInsertId is unavailable.
func (r *BookingRepo) insertID(ctx context.Context, tx *sql.Tx, q string, args ...any) (int64, error) {
	if r.dialect.SupportsReturning() {
		var id int64
		err := tx.QueryRowContext(ctx, r.dialect.Rebind(q+` RETURNING id`), args...).Scan(&id)
		return id, err
	}
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	var b model.Booking
	var name, movie, event sql.NullString
	var raw string
	if err := s.Scan(&b.ID, &name, &movie, &event, &b.Date, &b.Time, &raw, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Name = name.String
	b.MovieName = movie.String
	b.EventName = event.String
	b.Date = strings.TrimSpace(b.Date)
	b.Time = strings.TrimSpace(b.Time)
	b.Seats = seats.Normalize(raw)
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
