// Package cache provides the read-through, stale-while-revalidate cache
// wrapping the engine's expensive read paths.
//
// Each key moves through EMPTY -> FRESH -> STALE -> (refreshing) -> FRESH.
// A fresh entry is returned immediately. A stale entry is also returned
// immediately, and the first stale reader triggers one background
// recomputation; a singleflight group guarantees at most one in-flight
// recompute per key, so concurrent stale readers observe the in-progress
// stale value instead of piling on. Past the stale TTL the entry counts as
// empty again and the read blocks on a synchronous recompute (shared across
// concurrent callers by the same singleflight group).
//
// Entries are versioned by the monotonic start time of their computation:
// a slow recompute can never overwrite a newer result, it is discarded on
// write rather than cancelled.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces the value for a key, typically by running one of the
// engine's aggregations over collaborator reads.
type ComputeFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	version   time.Time // when its computation started
	createdAt time.Time // when it was stored
}

// Cache is a read-through cache with a fixed TTL and a longer stale TTL.
// The zero value is not usable; construct with New.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	refreshing map[string]bool

	ttl      time.Duration
	staleTTL time.Duration

	group  singleflight.Group
	logger *zap.SugaredLogger

	now func() time.Time
}

// New builds a cache serving entries as fresh for ttl and as stale until
// staleTTL after creation, so staleTTL should exceed ttl. logger may be nil.
func New(ttl, staleTTL time.Duration, logger *zap.SugaredLogger) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		refreshing: make(map[string]bool),
		ttl:        ttl,
		staleTTL:   staleTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the cached value for key, computing it when necessary per the
// stale-while-revalidate policy. Errors surface only on the synchronous
// path; a failed background refresh leaves the stale entry in place.
func (c *Cache) Get(ctx context.Context, key string, compute ComputeFunc) (any, error) {
	c.mu.RLock()
	e := c.entries[key]
	var age time.Duration
	if e != nil {
		age = c.now().Sub(e.createdAt)
	}
	c.mu.RUnlock()

	switch {
	case e != nil && age <= c.ttl:
		return e.value, nil
	case e != nil && age <= c.staleTTL:
		c.refreshInBackground(key, compute)
		return e.value, nil
	default:
		return c.refresh(ctx, key, compute)
	}
}

// Invalidate drops the entry for key, forcing the next read to recompute.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateFunc drops every entry whose key satisfies match, forcing those
// reads to recompute.
func (c *Cache) InvalidateFunc(match func(key string) bool) {
	c.mu.Lock()
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// refreshInBackground spawns at most one refresh goroutine per key. The
// refreshing flag keeps a burst of stale readers from stacking goroutines;
// the singleflight group inside refresh covers the race with synchronous
// callers.
func (c *Cache) refreshInBackground(key string, compute ComputeFunc) {
	c.mu.Lock()
	if c.refreshing[key] {
		c.mu.Unlock()
		return
	}
	c.refreshing[key] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, key)
			c.mu.Unlock()
		}()
		if _, err := c.refresh(context.Background(), key, compute); err != nil && c.logger != nil {
			c.logger.Warnw("background cache refresh failed, keeping stale entry",
				"key", key, "error", err)
		}
	}()
}

func (c *Cache) refresh(ctx context.Context, key string, compute ComputeFunc) (any, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		started := c.now()
		val, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, val, started)
		return val, nil
	})
	return v, err
}

// store writes the value unless a newer computation already landed: last
// writer wins by version timestamp, not by completion order.
func (c *Cache) store(key string, value any, version time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok && existing.version.After(version) {
		return
	}
	c.entries[key] = &entry{value: value, version: version, createdAt: c.now()}
}
