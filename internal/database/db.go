package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Options describes how to reach the database.  DSN takes precedence over
// the individual connection fields.
type Options struct {
	Dialect Dialect
	DSN     string
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string
}

// Open connects to the configured database and verifies the connection.
func Open(opts Options) (*sql.DB, error) {
	dsn := opts.DSN
	if dsn == "" {
		dsn = opts.Dialect.dsn(opts)
	}
	db, err := sql.Open(opts.Dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	if opts.Dialect == SQLite {
		// single writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (d Dialect) dsn(o Options) string {
	switch d {
	case Postgres:
		auth := o.User
		if o.Pass != "" {
			auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
		}
		return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=disable", auth, o.Host, o.Port, o.Name)
	case SQLite:
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", o.Name)
	default:
		auth := o.User
		if o.Pass != "" {
			auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, o.Host, o.Port, o.Name)
	}
}
