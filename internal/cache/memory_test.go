package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte("v")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Set(ctx, "short", []byte("s"), time.Second))
	now = now.Add(2 * time.Second)

	removed, err := c.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheExpired)

	require.NoError(t, c.Set(ctx, "d", []byte("d"), time.Hour))
	require.NoError(t, c.Delete(ctx, "d"))
	_, err = c.Get(ctx, "d")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestStartJanitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewMemoryCache()
	require.NoError(t, c.Set(ctx, "gone", []byte("x"), time.Nanosecond))

	StartJanitor(ctx, c, 5*time.Millisecond, discardLogger())

	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.entries) == 0
	}, time.Second, 5*time.Millisecond)
}
