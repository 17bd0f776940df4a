// Package cache tracks the generation of cached read responses.  Every
// committed booking write bumps the generation; the response cache
// middleware folds the current generation into its keys so entries written
// before a write are never served after it.
package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Generation is a Redis counter.  A nil *Generation or one without a
// client is a valid no-op that always reports generation 0.
type Generation struct {
	rdb *redis.Client
	key string
}

// NewGeneration returns a Generation stored under prefix:gen.
func NewGeneration(rdb *redis.Client, prefix string) *Generation {
	if prefix == "" {
		prefix = "cache"
	}
	return &Generation{rdb: rdb, key: prefix + ":gen"}
}

// Current returns the current generation; 0 when it was never bumped.
func (g *Generation) Current(ctx context.Context) (int64, error) {
	if g == nil || g.rdb == nil {
		return 0, nil
	}
	n, err := g.rdb.Get(ctx, g.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Bump advances the generation, invalidating every cached response.
func (g *Generation) Bump(ctx context.Context) error {
	if g == nil || g.rdb == nil {
		return nil
	}
	return g.rdb.Incr(ctx, g.key).Err()
}
