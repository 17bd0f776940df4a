package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.  Caching
// is skipped when Enabled is false or Redis is unreachable.  Only the
// listed Methods are cached and only the listed Paths (route patterns such
// as /booked-seats) are eligible; an empty Paths caches every route.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	Paths        map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  Defaults are used when variables
// are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseSet(getenv("CACHE_METHODS", "GET"), strings.ToUpper),
		Paths:        parseSet(getenv("CACHE_PATHS", "/bookings,/bookings/:id,/booked-seats"), nil),
		TTL:          parseDur(getenv("CACHE_TTL", "30s")),
		KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}

// Cacheable reports whether a request with the given method and route
// pattern may be served from the cache.
func (c CacheConfig) Cacheable(method, route string) bool {
	if !c.Methods[strings.ToUpper(method)] {
		return false
	}
	return len(c.Paths) == 0 || c.Paths[route]
}

func parseSet(s string, norm func(string) string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if norm != nil {
			p = norm(p)
		}
		if p != "" {
			m[p] = true
		}
	}
	return m
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
