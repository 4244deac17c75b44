package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// reservations of crashed requests free the key after pendingTTL.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

// IdempotencyStore maps client Idempotency-Key headers to the booking they created.
// Key format: idem:booking:<scope>, where the caller scopes keys per actor.
// A key holds "pending" while the first request is in flight, then the booking id.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. Completed keys expire after ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key for the caller. reserved is true when the caller won the
// key; otherwise bookingID is the stored booking, or empty while the first
// request is still in flight.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingMarker, pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return "", true, nil
	}

	id, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) || id == pendingMarker {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, false, nil
}

// Complete stores bookingID under a key reserved by the caller.
func (s *IdempotencyStore) Complete(ctx context.Context, key, bookingID string) error {
	return s.client.Set(ctx, s.key(key), bookingID, s.ttl).Err()
}

// Release frees a reservation whose request failed.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *IdempotencyStore) key(key string) string {
	return "idem:booking:" + key
}
