// Package lock provides mutual exclusion scoped to a showing key.  The
// booking service holds the lock for the duration of an admission decision
// so that the availability read and the insert cannot interleave with
// another admission for the same showing.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a lock could not be obtained before the
// context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires a lock for key.  The returned function releases it and is
// safe to call exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
