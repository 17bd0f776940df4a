package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"":         MySQL,
		"MySQL":    MySQL,
		"postgres": Postgres,
		"pgx":      Postgres,
		"sqlite":   SQLite,
		"sqlite3":  SQLite,
	} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "SELECT id FROM bookings WHERE movie_name = ? AND show_date = ?"
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT id FROM bookings WHERE movie_name = $1 AND show_date = $2", Postgres.Rebind(q))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestDSN(t *testing.T) {
	o := Options{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "booking"}
	assert.Equal(t, "app:secret@tcp(db:3306)/booking?charset=utf8mb4&parseTime=true&loc=UTC", MySQL.dsn(o))
	assert.Equal(t, "postgres://app:secret@db:3306/booking?sslmode=disable", Postgres.dsn(o))
	assert.Equal(t, "file:booking?_busy_timeout=5000&_foreign_keys=on", SQLite.dsn(o))
}

func TestSchema_MySQLComparesExactly(t *testing.T) {
	for _, stmt := range MySQL.schema() {
		if strings.HasPrefix(strings.TrimSpace(stmt), "CREATE TABLE") {
			assert.Contains(t, stmt, "COLLATE=utf8mb4_bin", "case-folding would merge showings like Dune and dune")
		}
	}
}

func TestSchema_SQLiteShowingsAreCaseSensitive(t *testing.T) {
	db, err := Open(Options{Dialect: SQLite, DSN: "file:" + filepath.Join(t.TempDir(), "schema.db")})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, EnsureSchema(context.Background(), db, SQLite))

	insert := `INSERT INTO booking_seats (showing_key, seat, booking_id) VALUES (?, ?, ?)`
	_, err = db.Exec(insert, "movie|Dune|2024-01-01|18:00", "A1", 1)
	require.NoError(t, err)
	_, err = db.Exec(insert, "movie|dune|2024-01-01|18:00", "A1", 2)
	assert.NoError(t, err)
	_, err = db.Exec(insert, "movie|Dune|2024-01-01|18:00", "A1", 3)
	assert.True(t, IsUniqueViolation(err))
}
