package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

// Deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RunLock is a SET NX lock shared by every instance using the same Redis
type RunLock struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

func NewRunLock(client *RedisClient) *RunLock {
	return &RunLock{
		client: client.GetClient(),
		tokens: make(map[string]string),
	}
}

// Acquire reports false when another holder already owns key
func (l *RunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

// Release drops the lock if this instance still owns it
func (l *RunLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{lockKey(key)}, token).Err()
}

func lockKey(key string) string {
	return lockPrefix + key
}
