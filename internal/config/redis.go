package config

// Redis backs the distributed showing lock, the response cache with its
// generation counter and the rate limiter.  When the server cannot be
// reached at startup the client is nil and callers fall back to the local
// lock and pass-through middleware.

import (
	"context"
	"crypto/tls"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
	// TLSInsecure disables certificate verification.  Only honoured
	// together with TLS.
	TLSInsecure bool
}

// LoadRedisConfig reads the Redis connection variables:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand, used when host/port are not both set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS
//   REDIS_TLS_INSECURE – skip certificate verification (local testing only)
func LoadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return RedisConfig{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          envInt("REDIS_DB", 0),
		TLS:         envBool("REDIS_TLS", false),
		TLSInsecure: envBool("REDIS_TLS_INSECURE", false),
	}
}

// tlsConfig returns nil when TLS is off.  Certificates are verified unless
// TLSInsecure is set.
func (cfg RedisConfig) tlsConfig() *tls.Config {
	if !cfg.TLS {
		return nil
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.TLSInsecure,
	}
}

// NewRedisClient connects to Redis and pings it with a short timeout.  It
// returns nil when the server is unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: cfg.tlsConfig(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
