package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWithLockSerializesOneSession(t *testing.T) {
	s := NewSerializer(10)

	var inside, maxInside int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithLock(context.Background(), 42, func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("two turns of one session overlapped (max concurrent: %d)", maxInside)
	}
}

func TestWithLockDifferentSessionsRunConcurrently(t *testing.T) {
	s := NewSerializer(10)

	firstRunning := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithLock(context.Background(), 1, func(ctx context.Context) error {
			close(firstRunning)
			<-release
			return nil
		})
	}()
	<-firstRunning

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.WithLock(ctx, 2, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("session 2 blocked behind session 1: %v", err)
	}
	close(release)
}

func TestWithLockPropagatesBodyError(t *testing.T) {
	s := NewSerializer(10)
	boom := errors.New("boom")
	if err := s.WithLock(context.Background(), 1, func(ctx context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected body error, got %v", err)
	}

	// The lock must be released even after a failing body.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.WithLock(ctx, 1, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("lock leaked after failing body: %v", err)
	}
}

func TestWithLockHonorsContextWhileWaiting(t *testing.T) {
	s := NewSerializer(10)

	running := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithLock(context.Background(), 1, func(ctx context.Context) error {
			close(running)
			<-release
			return nil
		})
	}()
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.WithLock(ctx, 1, func(ctx context.Context) error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error while queued, got %v", err)
	}
	close(release)
}
