package cache

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPage struct {
	Titles []string `json:"titles"`
	Total  int      `json:"total"`
}

// setupTestRedis requires a redis server; REDIS_ADDR overrides localhost:6379.
func setupTestRedis(t *testing.T, prefix string) ICache[cachedPage] {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	config := NewDefaultConfig()
	config.Prefix = prefix
	c := NewRedis[cachedPage](client, config)
	require.NoError(t, c.Clear(context.Background()))
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupTestRedis(t, "productdash-test:")

	page := cachedPage{Titles: []string{"iPhone 9", "iPhone X"}, Total: 2}
	require.NoError(t, c.Set(ctx, "products:offset=0", page, time.Minute))

	got, ok, err := c.Get(ctx, "products:offset=0")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, page, got)

	_, ok, err = c.Get(ctx, "products:offset=10")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "products:offset=10", page, 0))
	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"products:offset=0", "products:offset=10"}, keys)

	deleted, err := c.Delete(ctx, "products:offset=0")
	require.NoError(t, err)
	assert.True(t, deleted)

	require.NoError(t, c.Clear(ctx))
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.EntryCount)
}
