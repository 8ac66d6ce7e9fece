// Package limiter implements the fixed-window gates used for comment rate
// limiting. A Store tracks the last accepted hit per key and rejects further
// hits until the window has elapsed.
//
// Two backends exist: MemoryStore for single-process deployments and
// RedisStore, which shares state across processes via native TTLs. The
// in-memory backend does not survive horizontal scaling; multi-process
// deployments must use Redis.
package limiter

import (
	"context"
	"sync"
	"time"
)

// Result reports the outcome of a hit.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration // how long until the key is accepted again; zero when allowed
}

// Store is the injectable gate backing. A hit either claims the key for the
// window or is rejected with the remaining wait.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Result, error)
	Close() error
}

// MemoryStore is a process-wide map of key expiries with a periodic sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
	stop    chan struct{}
	done    chan struct{}
}

// NewMemoryStore creates a memory store and starts its expiry sweep. The
// sweep runs on a fixed interval, independent of request handling.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]time.Time),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweep(sweepEvery)
	return s
}

// Hit claims the key for the window, or rejects with the remaining wait when
// the key is still claimed.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (Result, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.entries[key]; ok && now.Before(expiry) {
		return Result{Allowed: false, RetryAfter: expiry.Sub(now)}, nil
	}

	s.entries[key] = now.Add(window)
	return Result{Allowed: true}, nil
}

// Close stops the sweep goroutine.
func (s *MemoryStore) Close() error {
	close(s.stop)
	<-s.done
	return nil
}

func (s *MemoryStore) sweep(every time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, expiry := range s.entries {
				if now.After(expiry) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
