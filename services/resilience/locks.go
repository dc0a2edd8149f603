// File: services/resilience/locks.go
package resilience

import (
	"context"
	"sync"

	"agendia/utils"

	"go.uber.org/zap"
)

// DefaultLockCleanupThreshold bounds how large a lock registry may grow
// before unused entries are swept on the next acquisition.
const DefaultLockCleanupThreshold = 500

// KeyedLocks hands out one mutual-exclusion handle per key. Handles are
// reference counted: an entry is only removable while nobody holds or waits
// on it, so a waiter can never end up on a handle that was pruned under it.
type KeyedLocks struct {
	mu               sync.Mutex
	entries          map[string]*lockEntry
	cleanupThreshold int
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewKeyedLocks creates a registry that sweeps unused entries once it grows
// past threshold.
func NewKeyedLocks(threshold int) *KeyedLocks {
	if threshold <= 0 {
		threshold = DefaultLockCleanupThreshold
	}
	return &KeyedLocks{
		entries:          make(map[string]*lockEntry),
		cleanupThreshold: threshold,
	}
}

// Acquire blocks until the key's lock is held or ctx is done. On success it
// returns a release function that must be called on every exit path.
func (l *KeyedLocks) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.sweepLocked(key)
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.mu.Lock()
			entry.refs--
			l.mu.Unlock()
		}, nil
	case <-ctx.Done():
		l.mu.Lock()
		entry.refs--
		l.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Len reports the current registry size.
func (l *KeyedLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweepLocked prunes entries nobody holds or waits on. Runs only once the
// registry exceeds the threshold; the key being acquired is never removed.
// Caller must hold l.mu.
func (l *KeyedLocks) sweepLocked(current string) {
	if len(l.entries) <= l.cleanupThreshold {
		return
	}
	removed := 0
	for key, entry := range l.entries {
		if key == current || entry.refs > 0 {
			continue
		}
		delete(l.entries, key)
		removed++
	}
	if removed > 0 {
		utils.GetLogger().Debug("KeyedLocks: swept unused lock entries",
			zap.Int("removed", removed), zap.Int("remaining", len(l.entries)))
	}
}
