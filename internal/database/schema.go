package database

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the bookings, booking_seats and cancelled_bookings
// tables when they do not exist.  booking_seats carries one row per seat of
// every active booking; its primary key enforces seat disjointness per
// showing at the storage level.  MySQL tables use a binary collation so
// titles and seats compare exactly as they do on the other backends.
func EnsureSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (d Dialect) schema() []string {
	switch d {
	case Postgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS bookings (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NULL,
				movie_name TEXT NULL,
				event_name TEXT NULL,
				show_date CHAR(10) NOT NULL,
				show_time CHAR(5) NOT NULL,
				seats TEXT NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'active',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_movie ON bookings (movie_name, show_date, show_time, status)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_event ON bookings (event_name, show_date, show_time, status)`,
			`CREATE TABLE IF NOT EXISTS booking_seats (
				showing_key TEXT NOT NULL,
				seat VARCHAR(64) NOT NULL,
				booking_id BIGINT NOT NULL,
				PRIMARY KEY (showing_key, seat)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_booking_seats_booking ON booking_seats (booking_id)`,
			`CREATE TABLE IF NOT EXISTS cancelled_bookings (
				id BIGSERIAL PRIMARY KEY,
				booking_id BIGINT NOT NULL,
				reason TEXT NOT NULL DEFAULT '',
				cancelled_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		}
	case SQLite:
		return []string{
			`CREATE TABLE IF NOT EXISTS bookings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NULL,
				movie_name TEXT NULL,
				event_name TEXT NULL,
				show_date TEXT NOT NULL,
				show_time TEXT NOT NULL,
				seats TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_movie ON bookings (movie_name, show_date, show_time, status)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_event ON bookings (event_name, show_date, show_time, status)`,
			`CREATE TABLE IF NOT EXISTS booking_seats (
				showing_key TEXT NOT NULL,
				seat TEXT NOT NULL,
				booking_id INTEGER NOT NULL,
				PRIMARY KEY (showing_key, seat)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_booking_seats_booking ON booking_seats (booking_id)`,
			`CREATE TABLE IF NOT EXISTS cancelled_bookings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				booking_id INTEGER NOT NULL,
				reason TEXT NOT NULL DEFAULT '',
				cancelled_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS bookings (
				id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NULL,
				movie_name VARCHAR(255) NULL,
				event_name VARCHAR(255) NULL,
				show_date CHAR(10) NOT NULL,
				show_time CHAR(5) NOT NULL,
				seats TEXT NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'active',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_bookings_movie (movie_name, show_date, show_time, status),
				INDEX idx_bookings_event (event_name, show_date, show_time, status)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
			`CREATE TABLE IF NOT EXISTS booking_seats (
				showing_key VARCHAR(600) NOT NULL,
				seat VARCHAR(64) NOT NULL,
				booking_id BIGINT NOT NULL,
				PRIMARY KEY (showing_key, seat),
				INDEX idx_booking_seats_booking (booking_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
			`CREATE TABLE IF NOT EXISTS cancelled_bookings (
				id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				booking_id BIGINT NOT NULL,
				reason TEXT NOT NULL,
				cancelled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
		}
	}
}
