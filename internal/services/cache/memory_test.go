package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mc := newMemoryCache(0, clock.Now)

	_, ok := mc.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, mc.Set(ctx, "a", []byte("png"), time.Minute))
	value, ok := mc.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []byte("png"), value)

	stats := mc.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(4), stats.Size)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mc := newMemoryCache(0, clock.Now)

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), 0))

	clock.Advance(time.Minute)
	_, ok := mc.Get(ctx, "a")
	assert.False(t, ok, "entry expires at its TTL")

	_, ok = mc.Get(ctx, "b")
	assert.True(t, ok, "zero TTL uses the default")

	clock.Advance(DefaultTTL)
	mc.mu.Lock()
	mc.removeExpired()
	mc.mu.Unlock()
	assert.Equal(t, 0, mc.Stats().Entries)
	assert.Equal(t, int64(0), mc.Stats().Size)
}

func TestMemoryCache_EvictsSoonestExpiring(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mc := newMemoryCache(30, clock.Now)

	value := []byte(strings.Repeat("x", 9))
	require.NoError(t, mc.Set(ctx, "a", value, 3*time.Minute))
	require.NoError(t, mc.Set(ctx, "b", value, time.Minute))
	require.NoError(t, mc.Set(ctx, "c", value, 2*time.Minute))

	// each entry is 10 bytes, so a fourth evicts "b"
	require.NoError(t, mc.Set(ctx, "d", value, 4*time.Minute))

	_, ok := mc.Get(ctx, "b")
	assert.False(t, ok)
	for _, key := range []string{"a", "c", "d"} {
		_, ok := mc.Get(ctx, key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, int64(1), mc.Stats().Evictions)
	assert.Equal(t, int64(30), mc.Stats().Size)
}

func TestMemoryCache_OversizedValueIsSkipped(t *testing.T) {
	ctx := context.Background()
	mc := newMemoryCache(8, time.Now)

	require.NoError(t, mc.Set(ctx, "big", []byte("0123456789"), time.Minute))
	_, ok := mc.Get(ctx, "big")
	assert.False(t, ok)
}

func TestMemoryCache_ReplaceDeleteClear(t *testing.T) {
	ctx := context.Background()
	mc := newMemoryCache(0, time.Now)

	require.NoError(t, mc.Set(ctx, "a", []byte("12"), time.Minute))
	require.NoError(t, mc.Set(ctx, "a", []byte("1234"), time.Minute))
	assert.Equal(t, int64(5), mc.Stats().Size)

	require.NoError(t, mc.Delete(ctx, "a"))
	require.NoError(t, mc.Delete(ctx, "missing"))
	assert.Equal(t, int64(0), mc.Stats().Size)

	require.NoError(t, mc.Set(ctx, "b", []byte("1"), time.Minute))
	require.NoError(t, mc.Clear(ctx))
	assert.Equal(t, 0, mc.Stats().Entries)
}

func TestNewMemoryCache_Stop(t *testing.T) {
	mc := NewMemoryCache(1)
	assert.Equal(t, int64(1024*1024), mc.Stats().MaxSize)
	mc.Stop()
	mc.Stop()
}
