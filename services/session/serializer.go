// File: services/session/serializer.go
package session

import (
	"context"
	"strconv"

	"agendia/services/resilience"
)

// Serializer guarantees at most one in-flight processing step per
// conversation. Two near-simultaneous messages from one session (a client
// double-submit, a retry) must not mutate the same conversation state or
// fire duplicate tool side effects: the second waits until the first fully
// finishes.
type Serializer struct {
	locks *resilience.KeyedLocks
}

// NewSerializer builds a serializer whose lock registry is swept above
// threshold.
func NewSerializer(threshold int) *Serializer {
	return &Serializer{locks: resilience.NewKeyedLocks(threshold)}
}

// WithLock runs body while exclusively holding the session's lock. The lock
// is released on every exit path.
func (s *Serializer) WithLock(ctx context.Context, sessionID int, body func(ctx context.Context) error) error {
	release, err := s.locks.Acquire(ctx, strconv.Itoa(sessionID))
	if err != nil {
		return err
	}
	defer release()
	return body(ctx)
}
