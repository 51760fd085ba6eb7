// Package cache provides TTL caches for resolved records.
// InMemory is the default; Redis backs multi-process deployments.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// DefaultMaxEntries bounds an InMemory cache when no option overrides it.
const DefaultMaxEntries = 10000

type entry[T any] struct {
	value     T
	createdAt time.Time
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
// Expired entries are evicted lazily on read and by ClearExpired. When the
// capacity bound is reached the least recently used entry is dropped.
type InMemory[T any] struct {
	mu    sync.Mutex
	items *simplelru.LRU[string, entry[T]]
	ttl   time.Duration
	now   func() time.Time
}

// Option configures an InMemory cache.
type Option func(*options)

type options struct {
	now        func() time.Time
	maxEntries int
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMaxEntries sets the capacity bound.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// New creates a new in-memory cache with the given default TTL.
func New[T any](ttl time.Duration, opts ...Option) *InMemory[T] {
	o := options{now: time.Now, maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(&o)
	}

	// NewLRU only fails on a non-positive size, which options rule out.
	items, _ := simplelru.NewLRU[string, entry[T]](o.maxEntries, nil)

	return &InMemory[T]{
		items: items,
		ttl:   ttl,
		now:   o.now,
	}
}

// Get retrieves a value from the cache. Returns false if not found or expired.
// An expired entry is removed as part of the read.
func (c *InMemory[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.items.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache, replacing any previous entry. A ttl <= 0
// uses the cache default.
func (c *InMemory[T]) Set(_ context.Context, key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items.Add(key, entry[T]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	})
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Remove(key)
}

// Clear removes every entry and returns how many there were.
func (c *InMemory[T]) Clear(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.items.Len()
	c.items.Purge()
	return n
}

// ClearExpired removes only expired entries and returns how many were removed.
func (c *InMemory[T]) ClearExpired(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, k := range c.items.Keys() {
		e, ok := c.items.Peek(k)
		if ok && !now.Before(e.expiresAt) {
			c.items.Remove(k)
			removed++
		}
	}
	return removed
}

// Stats counts entries and reports the oldest live one without evicting
// anything.
func (c *InMemory[T]) Stats(_ context.Context) domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := domain.CacheStats{Total: c.items.Len()}
	var oldest time.Duration
	for _, k := range c.items.Keys() {
		e, ok := c.items.Peek(k)
		if !ok {
			continue
		}
		if !now.Before(e.expiresAt) {
			stats.Expired++
			continue
		}
		if age := now.Sub(e.createdAt); age > oldest {
			oldest = age
		}
	}
	stats.Active = stats.Total - stats.Expired
	stats.OldestActiveSeconds = int64(oldest / time.Second)
	return stats
}

// StartSweeper periodically removes expired entries until ctx is done.
func (c *InMemory[T]) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.ClearExpired(ctx)
			}
		}
	}()
}
