package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlotLock serializes competing bookings for the same provider slot. The
// lock narrows the race window between conflict check and insert; the
// database transaction remains the source of truth.
type SlotLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSlotLock(client *redis.Client, ttl time.Duration) *SlotLock {
	return &SlotLock{client: client, ttl: ttl}
}

func slotKey(orgID, providerID string, start time.Time) string {
	return fmt.Sprintf("slotlock:%s:%s:%d", orgID, providerID, start.UTC().Unix())
}

// Acquire attempts to take the lock for a provider slot. Returns false when
// another booking currently holds it. The TTL guarantees release even if
// the holder crashes mid-booking.
func (l *SlotLock) Acquire(ctx context.Context, orgID, providerID string, start time.Time) (bool, error) {
	const op = "cache.SlotLock.Acquire"

	ok, err := l.client.SetNX(ctx, slotKey(orgID, providerID, start), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Release frees the lock. Safe to call when the lock has already expired.
func (l *SlotLock) Release(ctx context.Context, orgID, providerID string, start time.Time) error {
	const op = "cache.SlotLock.Release"

	if err := l.client.Del(ctx, slotKey(orgID, providerID, start)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
