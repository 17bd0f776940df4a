package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt builds configuration errors
	"os"      // os provides access to environment variables
	"strings" // strings splits list-valued variables
	"time"    // time parses durations

	"github.com/labstack/gommon/log" // log reports fatal configuration errors
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBDriver   string // mysql, postgres or sqlite3
	DBDSN      string // full DSN; overrides the individual DB_* fields
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name (file path for sqlite3)
	AutoSchema bool   // create tables on startup

	StorageTimeout time.Duration // bound applied to every booking operation

	LockBackend string        // "local" or "redis"
	LockTTL     time.Duration // lifetime of a redis showing lock
	LockRetry   time.Duration // polling interval while waiting for a redis lock

	CORSOrigins []string // allowed origins; "*" when unset

	Events EventsConfig // RabbitMQ booking events

	LogLevel string // debug, info, warn or error
}

// LoadFromEnv reads configuration values from environment variables.  It
// returns an error naming the first missing or invalid variable.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Env:  getenv("APP_ENV", "dev"),
		Port: getenv("APP_PORT", "5000"),

		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBDSN:      os.Getenv("DB_DSN"),
		DBUser:     os.Getenv("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"), // empty allowed
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		AutoSchema: envBool("DB_AUTO_SCHEMA", true),

		StorageTimeout: envDur("STORAGE_TIMEOUT", 5*time.Second),

		LockBackend: strings.ToLower(getenv("LOCK_BACKEND", "local")),
		LockTTL:     envDur("LOCK_TTL", 10*time.Second),
		LockRetry:   envDur("LOCK_RETRY_INTERVAL", 25*time.Millisecond),

		CORSOrigins: splitList(getenv("CORS_ALLOW_ORIGINS", "*")),

		Events: LoadEventsConfig(),

		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),
	}

	if cfg.DBPort == "" {
		switch cfg.DBDriver {
		case "postgres", "postgresql", "pgx":
			cfg.DBPort = "5432"
		default:
			cfg.DBPort = "3306"
		}
	}

	switch cfg.DBDriver {
	case "mysql", "postgres", "postgresql", "pgx":
		if cfg.DBDSN == "" {
			for _, kv := range [][2]string{{"DB_USER", cfg.DBUser}, {"DB_NAME", cfg.DBName}} {
				if kv[1] == "" {
					return cfg, fmt.Errorf("missing required env var: %s (or set DB_DSN)", kv[0])
				}
			}
		}
	case "sqlite", "sqlite3":
		if cfg.DBDSN == "" && cfg.DBName == "" {
			return cfg, fmt.Errorf("missing required env var: DB_NAME (or set DB_DSN)")
		}
	default:
		return cfg, fmt.Errorf("invalid DB_DRIVER: %q", cfg.DBDriver)
	}

	if cfg.LockBackend != "local" && cfg.LockBackend != "redis" {
		return cfg, fmt.Errorf("invalid LOCK_BACKEND: %q", cfg.LockBackend)
	}
	if cfg.StorageTimeout <= 0 {
		return cfg, fmt.Errorf("invalid STORAGE_TIMEOUT: %s", cfg.StorageTimeout)
	}
	return cfg, nil
}

// Load is LoadFromEnv for main: any configuration error halts the process
// with a fatal log message.
func Load() Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Lvl is the logger level selected by LOG_LEVEL.
func (c Config) Lvl() log.Lvl { return ParseLevel(c.LogLevel) }

// ParseLevel maps debug, info, warn, error or off onto the logger's levels.
// Unknown values mean INFO.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
