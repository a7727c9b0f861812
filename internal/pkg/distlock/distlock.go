// Package distlock provides TTL-based distributed mutual exclusion over
// named keys, backed by a shared persistent store.
//
// Correctness must hold across process and machine boundaries: multiple
// stateless processors may race on the same key, and the store is the sole
// synchronization substrate. A failed acquisition is a terminal outcome for
// the caller: there is no backoff or retry here; webhook redelivery
// provides the retry. A crashed holder is bounded by the TTL: an expired
// lock is treated as absent and may be reclaimed by a new processor.
package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// Store is the persistence contract for processing locks. Implementations
// must provide atomic create-or-fail semantics per (key, type): at most one
// non-expired lock may exist for a key, and a losing conditional write means
// "held by another process", not an error.
type Store interface {
	// TryAcquire inserts a lock record unless a non-expired one already
	// exists for (key, type). An expired record is reclaimed atomically.
	// Returns true only if the caller now owns the lock.
	TryAcquire(ctx context.Context, key string, typ domain.LockType, owner string, ttl time.Duration) (bool, error)

	// Release deletes the lock if it is still owned by owner. Releasing a
	// lock that expired and was reclaimed by someone else is a no-op.
	Release(ctx context.Context, key string, typ domain.LockType, owner string) error
}

// Lock is a single named TTL lock. Each Lock carries a random ownership
// value so that release and reclaim never affect a lock held by another
// process. Safe for use from a single goroutine; concurrent use requires
// separate Lock instances.
type Lock struct {
	store Store
	key   string
	typ   domain.LockType
	owner string
	ttl   time.Duration
}

// New creates a lock handle for the given key and type. Nothing is acquired
// until Acquire is called.
func New(store Store, typ domain.LockType, key string, ttl time.Duration) *Lock {
	// Random owner value for ownership verification
	b := make([]byte, 16)
	rand.Read(b)
	return &Lock{
		store: store,
		key:   key,
		typ:   typ,
		owner: hex.EncodeToString(b),
		ttl:   ttl,
	}
}

// Acquire tries to acquire the lock. Returns true if successful. A store
// failure is reported as (false, err): the caller must never proceed into a
// critical section without a confirmed lock.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	return l.store.TryAcquire(ctx, l.key, l.typ, l.owner, l.ttl)
}

// Release releases the lock if we still own it.
func (l *Lock) Release(ctx context.Context) error {
	return l.store.Release(ctx, l.key, l.typ, l.owner)
}
