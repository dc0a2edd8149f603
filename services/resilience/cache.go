// File: services/resilience/cache.go
package resilience

import (
	"context"
	"sync"
	"time"

	"agendia/utils"

	"go.uber.org/zap"
)

// Cache is a process-local key/value store with TTL expiry and per-key
// single-flight fetching: for N concurrent misses on one key exactly one
// fetch runs, and all callers observe its result. Eviction is TTL-only; the
// capacity bound is advisory and never removes live entries.
type Cache[V any] struct {
	name       string
	ttl        time.Duration
	maxEntries int

	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	locks   *KeyedLocks
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewCache creates a cache for one data kind. maxEntries is advisory.
func NewCache[V any](name string, ttl time.Duration, maxEntries int) *Cache[V] {
	return &Cache[V]{
		name:       name,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry[V]),
		locks:      NewKeyedLocks(DefaultLockCleanupThreshold),
	}
}

// Get returns the live entry for key, if any. An expired entry is treated as
// absent and dropped.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(entry.expiresAt) || time.Now().Equal(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a fresh value may have landed.
		if cur, ok := c.entries[key]; ok && !cur.expiresAt.After(time.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key with a fresh expiry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.dropExpiredLocked()
	}
	c.mu.Unlock()
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[V])
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrFetch returns the cached value for key or, on a miss, runs fetch under
// the key's lock. The cache is re-checked after the lock is acquired, so
// callers that waited behind the fetching one are served from the cache.
// Fetch failures propagate and cache nothing.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	release, err := c.locks.Acquire(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	defer release()

	if value, ok := c.Get(key); ok {
		utils.GetLogger().Debug("Cache: hit after lock wait",
			zap.String("cache", c.name), zap.String("key", key))
		return value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, value)
	return value, nil
}

// dropExpiredLocked removes expired entries only. Caller must hold c.mu.
func (c *Cache[V]) dropExpiredLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}
}
