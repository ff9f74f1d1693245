package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, capacity int, ttl time.Duration, clock *manualClock) *Cache {
	t.Helper()
	cfg := Config{
		Capacity:      capacity,
		DefaultTTL:    ttl,
		SweepInterval: 0, // sweep driven manually in tests
	}
	if clock != nil {
		cfg.Clock = clock.Now
	}
	c := New(cfg)
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t, 8, time.Minute, nil)

	c.Set("p1|t1|sig|perm:users:read", true, 0)
	c.Set("p1|t1|sig|perm:users:delete", false, 0)

	v, ok := c.Get("p1|t1|sig|perm:users:read")
	require.True(t, ok)
	assert.True(t, v)

	v, ok = c.Get("p1|t1|sig|perm:users:delete")
	require.True(t, ok)
	assert.False(t, v)

	_, ok = c.Get("p1|t1|sig|perm:never-written")
	assert.False(t, ok)
}

func TestCache_EmptyKeyIgnored(t *testing.T) {
	c := newTestCache(t, 8, time.Minute, nil)
	c.Set("", true, 0)
	assert.Equal(t, 0, c.Len())
}

func TestCache_TTLExpiry(t *testing.T) {
	clock := newManualClock()
	c := newTestCache(t, 8, 30*time.Second, clock)

	c.Set("key", true, 0)

	_, ok := c.Get("key")
	require.True(t, ok)

	clock.Advance(31 * time.Second)
	_, ok = c.Get("key")
	assert.False(t, ok, "entry past TTL must not be returned")
	assert.Equal(t, 0, c.Len(), "expired entry must be deleted on read")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Expired)
}

func TestCache_PerEntryTTLOverride(t *testing.T) {
	clock := newManualClock()
	c := newTestCache(t, 8, time.Minute, clock)

	c.Set("short", true, 5*time.Second)
	c.Set("long", true, 0)

	clock.Advance(10 * time.Second)

	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("long")
	assert.True(t, ok)
}

func TestCache_CapacityEviction(t *testing.T) {
	c := newTestCache(t, 3, time.Minute, nil)

	c.Set("a", true, 0)
	c.Set("b", true, 0)
	c.Set("c", true, 0)

	// Touch a so b becomes the least recently accessed.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", true, 0)

	_, ok = c.Get("b")
	assert.False(t, ok, "least-recently-accessed entry must be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)

	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := newTestCache(t, 16, time.Minute, nil)

	c.Set("p1|t1|sig|perm:a", true, 0)
	c.Set("p1|t2|sig|perm:a", true, 0)
	c.Set("p2|t1|sig|perm:a", true, 0)

	removed := c.InvalidatePrefix("p1|t1|")
	assert.Equal(t, 1, removed)

	_, ok := c.Get("p1|t1|sig|perm:a")
	assert.False(t, ok)
	_, ok = c.Get("p1|t2|sig|perm:a")
	assert.True(t, ok)

	removed = c.InvalidatePrefix("p1|")
	assert.Equal(t, 1, removed)
	_, ok = c.Get("p2|t1|sig|perm:a")
	assert.True(t, ok, "other principals' entries must survive")

	removed = c.InvalidatePrefix("")
	assert.Equal(t, 1, removed, "empty prefix clears everything")
	assert.Equal(t, 0, c.Len())
}

func TestCache_Stats(t *testing.T) {
	c := newTestCache(t, 8, time.Minute, nil)

	stats := c.Stats()
	assert.Equal(t, float64(0), stats.HitRate, "hit rate is 0 before any request")

	c.Set("key", true, 0)
	c.Get("key")
	c.Get("key")
	c.Get("missing")

	stats = c.Stats()
	assert.Equal(t, uint64(3), stats.Requests)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Size)
}

func TestCache_Sweep(t *testing.T) {
	clock := newManualClock()
	c := newTestCache(t, 16, 30*time.Second, clock)

	c.Set("old-1", true, 0)
	c.Set("old-2", false, 0)
	clock.Advance(20 * time.Second)
	c.Set("fresh", true, 0)
	clock.Advance(15 * time.Second)

	removed := c.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestCache_BackgroundSweep(t *testing.T) {
	c := New(Config{
		Capacity:      16,
		DefaultTTL:    10 * time.Millisecond,
		SweepInterval: 20 * time.Millisecond,
	})
	defer c.Close()

	c.Set("doomed", true, 0)

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond, "background sweep should reclaim the expired entry")
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New(DefaultConfig())
	c.Set("key", true, 0)
	c.Close()
	c.Close() // second close must be a no-op
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t, 128, time.Minute, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("p%d|t1|sig|perm:%d", w, i%32)
				c.Set(key, i%2 == 0, 0)
				c.Get(key)
				if i%64 == 0 {
					c.InvalidatePrefix(fmt.Sprintf("p%d|", w))
				}
			}
		}(w)
	}
	wg.Wait()

	stats := c.Stats()
	assert.NotZero(t, stats.Requests)
	assert.LessOrEqual(t, c.Len(), 128)
}
