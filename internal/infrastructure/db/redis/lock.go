package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/reservo/booking-system/internal/core/domain"
)

const (
	defaultLockTTL   = 5 * time.Second
	lockRetries      = 3
	lockRetryBackoff = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// ResourceLocker is a per-resource mutex shared across API replicas.
// Key format: lock:resource:<resource_id>
type ResourceLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResourceLocker(client *redis.Client, ttl time.Duration) *ResourceLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &ResourceLocker{client: client, ttl: ttl}
}

// Lock acquires the resource lock, retrying briefly. It returns
// domain.ErrResourceBusy when another holder keeps it.
func (l *ResourceLocker) Lock(ctx context.Context, resourceID string) (func(context.Context) error, error) {
	key := "lock:resource:" + resourceID
	token := uuid.NewString()

	for attempt := 0; attempt <= lockRetries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire resource lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryBackoff * time.Duration(attempt+1)):
		}
	}
	return nil, domain.ErrResourceBusy
}
