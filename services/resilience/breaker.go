// File: services/resilience/breaker.go
package resilience

import (
	"sync"
	"time"

	"agendia/utils"

	"go.uber.org/zap"
)

// Breaker keeps a per-key failure counter with a bounded lifetime. Once the
// counter reaches the threshold within the window the key is open and calls
// for it should be skipped. A recorded success clears the counter; so does
// the window elapsing with no new failures. There is no half-open probing:
// the breaker always falls back to allowing traffic once its memory expires.
type Breaker struct {
	name      string
	threshold int
	window    time.Duration

	mu       sync.Mutex
	failures map[string]breakerEntry
}

type breakerEntry struct {
	count     int
	expiresAt time.Time
}

// NewBreaker creates a breaker opening after threshold failures within window.
func NewBreaker(name string, threshold int, window time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: threshold,
		window:    window,
		failures:  make(map[string]breakerEntry),
	}
}

// IsOpen reports whether calls for key should be short-circuited.
func (b *Breaker) IsOpen(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.failures[key]
	if !ok {
		return false
	}
	if !entry.expiresAt.After(time.Now()) {
		delete(b.failures, key)
		return false
	}
	return entry.count >= b.threshold
}

// RecordFailure bumps the failure counter for key and refreshes its lifetime.
func (b *Breaker) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.failures[key]
	if !ok || !entry.expiresAt.After(time.Now()) {
		entry = breakerEntry{}
	}
	entry.count++
	entry.expiresAt = time.Now().Add(b.window)
	b.failures[key] = entry
	if entry.count == b.threshold {
		utils.GetLogger().Warn("Breaker: circuit opened",
			zap.String("breaker", b.name), zap.String("key", key),
			zap.Duration("window", b.window))
	}
}

// AnyOpen reports whether any key is currently open. Used by health checks.
func (b *Breaker) AnyOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for key, entry := range b.failures {
		if !entry.expiresAt.After(now) {
			delete(b.failures, key)
			continue
		}
		if entry.count >= b.threshold {
			return true
		}
	}
	return false
}

// Name returns the breaker's identifying name.
func (b *Breaker) Name() string { return b.name }

// RecordSuccess clears the failure counter for key.
func (b *Breaker) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, key)
}
