// Package cache provides a short-lived, time-based cache for loaded snapshots.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock abstracts time so expiry can be driven from tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. time.Now carries a monotonic reading,
// so Sub between two values is immune to wall-clock jumps.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache keeps one value per key until its TTL lapses. Entries are replaced
// wholesale on refresh and never mutated in place.
type Cache[V any] struct {
	clock   Clock
	mu      sync.Mutex
	entries map[string]entry[V]
	group   singleflight.Group
}

// New returns an empty cache. A nil clock falls back to SystemClock.
func New[V any](clock Clock) *Cache[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache[V]{
		clock:   clock,
		entries: map[string]entry[V]{},
	}
}

// GetOrRefresh returns the cached value for key if it is younger than ttl.
// Otherwise it calls refresh, stores the result and returns it. Concurrent
// callers that miss on the same key share a single refresh call.
func (c *Cache[V]) GetOrRefresh(key string, ttl time.Duration, refresh func() V) V {
	if v, ok := c.lookup(key, ttl); ok {
		return v
	}
	res, _, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lookup(key, ttl); ok {
			return v, nil
		}
		v := refresh()
		c.mu.Lock()
		c.entries[key] = entry[V]{value: v, storedAt: c.clock.Now()}
		c.mu.Unlock()
		return v, nil
	})
	return res.(V)
}

// Age reports how long ago key was stored.
func (c *Cache[V]) Age(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return c.clock.Now().Sub(e.storedAt), true
}

func (c *Cache[V]) lookup(key string, ttl time.Duration) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || ttl <= 0 || c.clock.Now().Sub(e.storedAt) >= ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}
