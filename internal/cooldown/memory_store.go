package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// MemoryStore is an in-process Store for unit tests and single-instance
// development. Production deployments use the Redis or Postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]time.Time // composite key → expiresAt
	now     func() time.Time
}

// NewMemoryStore creates an in-memory cooldown store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]time.Time), now: time.Now}
}

// SetClock overrides the time source (tests only).
func (s *MemoryStore) SetClock(now func() time.Time) { s.now = now }

func (s *MemoryStore) Active(_ context.Context, key string, typ domain.CooldownType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.records[cooldownKey(typ, key)]
	return ok && exp.After(s.now()), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, typ domain.CooldownType, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cooldownKey(typ, key)] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string, typ domain.CooldownType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, cooldownKey(typ, key))
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, exp := range s.records {
		if !exp.After(s.now()) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}
