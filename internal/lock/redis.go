package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it is still owned by the caller.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Redis is a distributed lock shared by every instance pointing at the same
// Redis.  A lock is a key set with NX and a TTL that bounds how long a
// crashed holder can block a showing.
type Redis struct {
	rdb      *redis.Client
	prefix   string
	ttl      time.Duration
	retry    time.Duration
	logger   *log.Logger
	newToken func() string
}

// NewRedis returns a Redis locker.  ttl bounds lock lifetime and retry is
// the polling interval while waiting.
func NewRedis(rdb *redis.Client, ttl, retry time.Duration, logger *log.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	return &Redis{
		rdb:      rdb,
		prefix:   "lock:showing:",
		ttl:      ttl,
		retry:    retry,
		logger:   logger,
		newToken: uuid.NewString,
	}
}

// Lock polls SET NX until it wins or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := r.newToken()
	for {
		ok, err := r.rdb.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", k, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %w", ErrNotAcquired, ctx.Err())
		case <-t.C:
		}
	}
	return func() {
		// release even when the request context already ended
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, r.rdb, []string{k}, token).Err(); err != nil && r.logger != nil {
			r.logger.Warnf("lock: release %s failed: %v", k, err)
		}
	}, nil
}
