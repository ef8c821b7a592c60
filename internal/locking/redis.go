package locking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	lockTTL       = 30 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// ErrLockTimeout is returned when the lock cannot be acquired before the
// caller's context expires.
var ErrLockTimeout = errors.New("lock acquisition timed out")

type redisLocker struct {
	client *redis.Client
	script *redis.Script
}

// NewRedisLocker builds a distributed locker on SetNX with a token-checked
// release. Returns nil for a nil client.
func NewRedisLocker(client *redis.Client) Locker {
	if client == nil {
		return nil
	}
	return &redisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(lockRetryWait):
		}
	}

	return func() {
		// Release on a fresh context so a cancelled caller still unlocks.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.script.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}
