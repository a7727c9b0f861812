// Package cooldown implements TTL-based suppression records per variant and
// per campaign. While a record is active, its key is excluded from rule
// evaluation for that cooldown type.
//
// Expiry is lazy: a record whose expires_at has passed is treated as absent
// without requiring deletion. Expired rows are removed opportunistically on
// a fraction of Set calls and by the cleanup worker.
package cooldown

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/pkg/logger"
)

// Store is the persistence contract for cooldown records. Implementations
// must provide atomic upsert-by-(key, type).
type Store interface {
	// Active reports whether a non-expired record exists for (key, type).
	Active(ctx context.Context, key string, typ domain.CooldownType) (bool, error)

	// Set upserts a record expiring ttl from now.
	Set(ctx context.Context, key string, typ domain.CooldownType, ttl time.Duration) error

	// Clear removes the record for (key, type) if present.
	Clear(ctx context.Context, key string, typ domain.CooldownType) error

	// DeleteExpired removes rows whose expiry has passed. Backends with
	// native TTL expiry (Redis) may implement this as a no-op.
	DeleteExpired(ctx context.Context) (int64, error)
}

// cleanupProbability is the fraction of Set calls that additionally sweep
// expired rows, spreading cleanup cost across normal traffic.
const cleanupProbability = 0.05

// Tracker answers suppression queries and manages cooldown lifecycles.
type Tracker struct {
	store Store

	// rng is the dice for opportunistic cleanup; overridable in tests.
	rng func() float64
}

// NewTracker creates a cooldown tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, rng: rand.Float64}
}

// CampaignKey builds the campaign-prefixed pseudo-identifier used for
// campaign-level cooldowns, keeping them out of the variant key space.
func CampaignKey(campaignID string) string {
	return "campaign:" + campaignID
}

// IsSuppressed reports whether key is under an active cooldown of the given
// type. A store failure fails open (not suppressed) with a logged warning:
// the lock protocol still guards the critical section, and blocking all
// processing on a cooldown-store outage would be worse than the occasional
// duplicate evaluation.
func (t *Tracker) IsSuppressed(ctx context.Context, key string, typ domain.CooldownType) bool {
	active, err := t.store.Active(ctx, key, typ)
	if err != nil {
		logger.Warn("cooldown check failed, treating as not suppressed",
			"key", key, "type", string(typ), "error", err.Error())
		return false
	}
	return active
}

// Set places key under a cooldown of the given type for ttl. Occasionally
// also sweeps expired rows.
func (t *Tracker) Set(ctx context.Context, key string, typ domain.CooldownType, ttl time.Duration) error {
	if err := t.store.Set(ctx, key, typ, ttl); err != nil {
		return fmt.Errorf("set cooldown %s/%s: %w", typ, key, err)
	}
	if t.rng() < cleanupProbability {
		if n, err := t.store.DeleteExpired(ctx); err == nil && n > 0 {
			logger.Debug("swept expired cooldowns", "count", n)
		}
	}
	return nil
}

// Clear removes the cooldown on (key, type). Used to roll back a pre-emptive
// cooldown when no mutation succeeded.
func (t *Tracker) Clear(ctx context.Context, key string, typ domain.CooldownType) error {
	if err := t.store.Clear(ctx, key, typ); err != nil {
		return fmt.Errorf("clear cooldown %s/%s: %w", typ, key, err)
	}
	return nil
}
