package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockKey(t *testing.T) {
	assert.Equal(t, "lock:backfill", lockKey("backfill"))
}

func TestRunLock_UnreachableRedis(t *testing.T) {
	client := NewRedisClient(RedisConfig{Host: "127.0.0.1", Port: "1"})
	defer client.Close()

	lock := NewRunLock(client)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	acquired, err := lock.Acquire(ctx, "backfill", time.Minute)

	assert.Error(t, err)
	assert.False(t, acquired)
	assert.Error(t, client.Ping(ctx))
}

func TestRunLock_ReleaseWithoutAcquire(t *testing.T) {
	client := NewRedisClient(RedisConfig{Host: "127.0.0.1", Port: "1"})
	defer client.Close()

	// Nothing owned, so no round trip is made
	assert.NoError(t, NewRunLock(client).Release(context.Background(), "backfill"))
}
