package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" || url == "" {
		t.Skip("Skipping Redis test. Set RUN_INTEGRATION_TESTS=true and TEST_REDIS_URL to run.")
	}
	c, err := NewRedisCache(url)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestTryLock_ExclusiveUntilReleased(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := "test:lock:" + time.Now().Format(time.RFC3339Nano)

	first, err := c.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, first.Release(ctx))
	assert.ErrorIs(t, first.Release(ctx), ErrLockNotHeld)

	third, err := c.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, third)
	require.NoError(t, third.Release(ctx))
}

func TestGet_MissingKey(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "test:missing:"+time.Now().Format(time.RFC3339Nano))
	assert.ErrorIs(t, err, ErrNotFound)
}
