package distlock

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// MemoryStore is an in-process Store for unit tests and single-instance
// development. It is NOT safe once more than one processor instance exists;
// production deployments must use the Redis or Postgres store.
type MemoryStore struct {
	mu    sync.Mutex
	locks map[string]memLock
	now   func() time.Time
}

type memLock struct {
	owner     string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory lock store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: make(map[string]memLock), now: time.Now}
}

// SetClock overrides the time source (tests only).
func (s *MemoryStore) SetClock(now func() time.Time) { s.now = now }

func (s *MemoryStore) TryAcquire(_ context.Context, key string, typ domain.LockType, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := lockKey(typ, key)
	if l, ok := s.locks[k]; ok && l.expiresAt.After(s.now()) {
		return false, nil
	}
	s.locks[k] = memLock{owner: owner, expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string, typ domain.LockType, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := lockKey(typ, key)
	if l, ok := s.locks[k]; ok && l.owner == owner {
		delete(s.locks, k)
	}
	return nil
}
