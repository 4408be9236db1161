package cache

import (
	"context"
	"sync"
	"time"

	"github.com/loyalty/backend/internal/application/automation"
)

// InMemoryRunLock implements automation.RunLock for a single process.
// Expired locks are reclaimed lazily on the next Acquire.
type InMemoryRunLock struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> expiry
	now   func() time.Time
}

// NewInMemoryRunLock creates an empty lock table
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// WithClock overrides the time source
func (l *InMemoryRunLock) WithClock(now func() time.Time) *InMemoryRunLock {
	l.now = now
	return l
}

// Acquire takes key for ttl unless it is held and unexpired
func (l *InMemoryRunLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, held := l.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	l.locks[key] = now.Add(ttl)
	return true, nil
}

// Release frees key
func (l *InMemoryRunLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}

// Size returns the number of held or expired-but-unreclaimed locks
func (l *InMemoryRunLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Close is a no-op; it lets callers treat both lock kinds alike
func (l *InMemoryRunLock) Close() error {
	return nil
}

var _ automation.RunLock = (*InMemoryRunLock)(nil)
