package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestCache_SetGetJSON(t *testing.T) {
	client, _ := newTestClient(t)
	c := New(client)
	ctx := context.Background()

	type payload struct {
		Title string `json:"title"`
		Views int    `json:"views"`
	}

	require.NoError(t, c.SetJSON(ctx, "content:1", payload{Title: "Posture Basics", Views: 3}, time.Minute))

	var got payload
	require.NoError(t, c.GetJSON(ctx, "content:1", &got))
	assert.Equal(t, "Posture Basics", got.Title)
	assert.Equal(t, 3, got.Views)
}

func TestCache_Miss(t *testing.T) {
	client, _ := newTestClient(t)
	c := New(client)

	var dest map[string]string
	err := c.GetJSON(context.Background(), "absent", &dest)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	client, _ := newTestClient(t)
	c := New(client)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	var dest string
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &dest), ErrCacheMiss)
}

func TestSlotLock_AcquireRelease(t *testing.T) {
	client, _ := newTestClient(t)
	lock := NewSlotLock(client, 10*time.Second)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	ok, err := lock.Acquire(ctx, "clinic_01", "prov-1", start)
	require.NoError(t, err)
	assert.True(t, ok, "first acquire should succeed")

	ok, err = lock.Acquire(ctx, "clinic_01", "prov-1", start)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire for same slot should fail")

	// Different provider, same time: independent lock
	ok, err = lock.Acquire(ctx, "clinic_01", "prov-2", start)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lock.Release(ctx, "clinic_01", "prov-1", start))

	ok, err = lock.Acquire(ctx, "clinic_01", "prov-1", start)
	require.NoError(t, err)
	assert.True(t, ok, "acquire after release should succeed")
}

func TestSlotLock_ExpiresByTTL(t *testing.T) {
	client, mr := newTestClient(t)
	lock := NewSlotLock(client, 5*time.Second)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	ok, err := lock.Acquire(ctx, "clinic_01", "prov-1", start)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = lock.Acquire(ctx, "clinic_01", "prov-1", start)
	require.NoError(t, err)
	assert.True(t, ok, "lock should expire after TTL")
}
