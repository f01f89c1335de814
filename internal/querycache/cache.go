// Package querycache implements the process-wide read-through cache
// backing all data-access operations. Entries are keyed by operation
// name plus parameters, go stale after a configurable TTL, and are
// invalidated by exact key or key prefix after mutations, never by
// clearing the whole cache.
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when the cache is constructed with a non-positive
// staleness window.
const DefaultTTL = 60 * time.Second

// FetchFunc loads the value for a cache key on miss.
type FetchFunc func(ctx context.Context) (any, error)

// Notification reports that a key's cached value changed or was
// invalidated.
type Notification struct {
	Key string
}

// Cache is a read-through cache with per-key request coalescing.
//
// Each key carries a generation counter that is bumped by invalidation.
// A fetch started under an older generation still delivers its result to
// the callers waiting on it, but never overwrites the cache entry: the
// most recently issued request for a key wins.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	ttl     time.Duration
	entries map[string]cacheEntry
	flights map[string]*flight
	gens    map[string]uint64
	subs    map[int]chan Notification
	nextSub int
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

type flight struct {
	done  chan struct{}
	value any
	err   error
}

// New creates a cache with the given staleness window. The clock is
// injectable for tests; pass nil for time.Now.
func New(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		now:     now,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		flights: make(map[string]*flight),
		gens:    make(map[string]uint64),
		subs:    make(map[int]chan Notification),
	}
}

// Get returns the fresh cached value for key, or runs fetch to load it.
// Concurrent callers for the same key share a single fetch. Errors are
// never cached; a failed fetch leaves the entry absent so the caller can
// retry manually. Nothing is retried automatically.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}

	if f, ok := c.flights[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.value, f.err
		case <-ctx.Done():
			// The consumer went away; the in-flight fetch keeps
			// running and its result is delivered to the cache,
			// not to us.
			return nil, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	c.flights[key] = f
	gen := c.gens[key]
	c.mu.Unlock()

	value, err := fetch(ctx)

	c.mu.Lock()
	delete(c.flights, key)
	f.value, f.err = value, err
	if err == nil && c.gens[key] == gen {
		c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
		c.notifyLocked(key)
	}
	c.mu.Unlock()

	close(f.done)
	return value, err
}

// Peek reports the cached value for key without fetching.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Invalidate drops the entry for key and supersedes any in-flight fetch
// for it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(key)
}

// InvalidatePrefix drops every entry whose key starts with prefix,
// superseding their in-flight fetches. Mutations invalidate by explicit
// prefix rather than relying on incidental key overlap.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			seen[key] = true
		}
	}
	for key := range c.flights {
		if strings.HasPrefix(key, prefix) {
			seen[key] = true
		}
	}
	for key := range c.gens {
		if strings.HasPrefix(key, prefix) && !seen[key] {
			seen[key] = true
		}
	}
	for key := range seen {
		c.invalidateLocked(key)
	}
}

func (c *Cache) invalidateLocked(key string) {
	delete(c.entries, key)
	c.gens[key]++
	c.notifyLocked(key)
}

// Subscribe registers for key-change notifications. Delivery is
// non-blocking: a departed or slow subscriber has notifications
// discarded rather than stalling the cache. The returned cancel func
// unregisters and closes the channel.
func (c *Cache) Subscribe() (<-chan Notification, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Notification, 16)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *Cache) notifyLocked(key string) {
	for _, ch := range c.subs {
		select {
		case ch <- Notification{Key: key}:
		default:
		}
	}
}
