// Package ratelimit provides the windowed check-and-increment limiter the
// engine uses to suppress repeated competitor engagement.
package ratelimit

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Limiter is the abstract collaborator the engine depends on. A false
// return means the keyed action has exhausted its window budget.
type Limiter interface {
	CheckAndIncrement(key string) bool
}

// Unlimited always allows.
type Unlimited struct{}

func (Unlimited) CheckAndIncrement(string) bool { return true }

const (
	defaultLimit  = 3
	defaultWindow = 6 * time.Hour

	counterNumCounters = 1e4
	counterMaxCost     = 1e5
)

// Windowed counts occurrences per key within a TTL window, backed by a
// ristretto cache so stale keys age out on their own. The check and the
// increment are serialized under one mutex; the cache only stores.
type Windowed struct {
	mu     sync.Mutex
	cache  *ristretto.Cache
	limit  int
	window time.Duration
}

// NewWindowed creates a limiter allowing limit occurrences per window.
// Non-positive arguments take the defaults (3 per 6h).
func NewWindowed(limit int, window time.Duration) (*Windowed, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: counterNumCounters,
		MaxCost:     counterMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Windowed{cache: cache, limit: limit, window: window}, nil
}

// CheckAndIncrement consumes one unit of the key's window budget, returning
// false once the budget is spent. The window restarts when the entry
// expires.
func (w *Windowed) CheckAndIncrement(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := 0
	if v, ok := w.cache.Get(key); ok {
		if n, ok := v.(int); ok {
			count = n
		}
	}
	if count >= w.limit {
		return false
	}

	w.cache.SetWithTTL(key, count+1, 1, w.window)
	w.cache.Wait()
	return true
}

// Close releases the backing cache.
func (w *Windowed) Close() {
	w.cache.Close()
}
