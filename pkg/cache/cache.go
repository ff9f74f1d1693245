package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Config holds cache construction options.
type Config struct {
	// Capacity bounds the number of entries. At capacity the
	// least-recently-accessed entry is evicted (oldest first on ties).
	Capacity int
	// DefaultTTL applies to Set calls that do not override it.
	DefaultTTL time.Duration
	// SweepInterval is how often expired entries are proactively reclaimed.
	// Zero or negative disables the background sweep; expiry then happens
	// lazily on read only.
	SweepInterval time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:      1024,
		DefaultTTL:    30 * time.Second,
		SweepInterval: time.Minute,
	}
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size      int     `json:"size"`
	Requests  uint64  `json:"requests"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Expired   uint64  `json:"expired"`
	HitRate   float64 `json:"hit_rate"`
}

type entry struct {
	value        bool
	writtenAt    time.Time
	ttl          time.Duration
	accessCount  uint64
	lastAccessed time.Time
}

func (e *entry) expiredAt(now time.Time) bool {
	return now.Sub(e.writtenAt) > e.ttl
}

// Cache is a TTL + capacity bounded store of boolean check results.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, *entry]
	cfg Config
	now func() time.Time

	requests  atomic.Uint64
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	expired   atomic.Uint64

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// New creates a cache and, when configured, starts its background sweep.
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultConfig().DefaultTTL
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	// Capacity is enforced here, not via the lru callback: Add reports
	// capacity evictions directly, and the callback would also fire for
	// explicit removals.
	backing, _ := lru.New[string, *entry](cfg.Capacity)

	c := &Cache{
		lru:    backing,
		cfg:    cfg,
		now:    now,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go c.sweepLoop()
	} else {
		close(c.doneCh)
	}
	return c
}

// Get returns the cached value for the key. Expired entries are deleted on
// read and reported as misses.
func (c *Cache) Get(key string) (bool, bool) {
	c.requests.Add(1)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return false, false
	}
	if e.expiredAt(now) {
		c.lru.Remove(key)
		c.expired.Add(1)
		c.misses.Add(1)
		return false, false
	}
	e.accessCount++
	e.lastAccessed = now
	c.hits.Add(1)
	return e.value, true
}

// Set stores a value under the key. A non-positive ttl falls back to the
// configured default. At capacity the least-recently-accessed entry is
// evicted first.
func (c *Cache) Set(key string, value bool, ttl time.Duration) {
	if key == "" {
		return
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted := c.lru.Add(key, &entry{value: value, writtenAt: now, ttl: ttl, lastAccessed: now}); evicted {
		c.evictions.Add(1)
	}
}

// Delete removes one key. It reports whether the key was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// InvalidatePrefix removes every key with the given prefix and returns how
// many entries were dropped. An empty prefix clears the whole cache.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prefix == "" {
		n := c.lru.Len()
		c.lru.Purge()
		return n
	}
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the current number of entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a snapshot of the running counters.
func (c *Cache) Stats() Stats {
	s := Stats{
		Size:      c.Len(),
		Requests:  c.requests.Load(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Expired:   c.expired.Load(),
	}
	if s.Requests > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Requests)
	}
	return s
}

// Sweep removes all expired entries immediately and returns how many were
// reclaimed. The background sweep calls this on its interval.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.lru.Keys() {
		// Peek avoids promoting entries the sweep merely inspects.
		if e, ok := c.lru.Peek(key); ok && e.expiredAt(now) {
			c.lru.Remove(key)
			removed++
		}
	}
	c.expired.Add(uint64(removed))
	return removed
}

// Close stops the background sweep and drops all entries. Idempotent and safe
// to call from teardown paths.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
	})
	<-c.doneCh
	c.Purge()
}

func (c *Cache) sweepLoop() {
	defer close(c.doneCh)
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stopCh:
			return
		}
	}
}
