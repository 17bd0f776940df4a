package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLock() (*Redis, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db, 5*time.Second, time.Millisecond, nil)
	l.newToken = func() string { return "token-1" }
	return l, mock
}

func TestRedis_LockAndRelease(t *testing.T) {
	l, mock := setupRedisLock()
	defer mock.ClearExpect()

	key := "lock:showing:movie|Dune|2024-01-01|18:00"
	mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{key}, "token-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background(), "movie|Dune|2024-01-01|18:00")
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_RetriesUntilFree(t *testing.T) {
	l, mock := setupRedisLock()
	defer mock.ClearExpect()

	mock.ExpectSetNX("lock:showing:k", "token-1", 5*time.Second).SetVal(false)
	mock.ExpectSetNX("lock:showing:k", "token-1", 5*time.Second).SetVal(true)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GivesUpWhenContextEnds(t *testing.T) {
	l, mock := setupRedisLock()
	l.retry = 50 * time.Millisecond
	defer mock.ClearExpect()

	mock.ExpectSetNX("lock:showing:k", "token-1", 5*time.Second).SetVal(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := l.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestRedis_BackendError(t *testing.T) {
	l, mock := setupRedisLock()
	defer mock.ClearExpect()

	mock.ExpectSetNX("lock:showing:k", "token-1", 5*time.Second).SetErr(errors.New("connection refused"))

	_, err := l.Lock(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
}
