package domain

import "time"

// CooldownType scopes a suppression record.
type CooldownType string

const (
	// CooldownPriceUpdate suppresses further rule evaluation for a variant
	// after the engine mutates (or is about to mutate) its price. This is
	// also the self-echo guard: the engine's own write comes back as a new
	// inbound event within this window.
	CooldownPriceUpdate CooldownType = "PRICE_UPDATE"

	// CooldownCampaignTrigger bounds how often a single campaign may fire.
	CooldownCampaignTrigger CooldownType = "CAMPAIGN_TRIGGER"
)

// PriceCooldown is a time-boxed suppression record. While now < ExpiresAt the
// owning key is suppressed from rule evaluation for the given type. Records
// with ExpiresAt <= now are treated as absent without requiring deletion.
type PriceCooldown struct {
	Key       string       `json:"key" db:"key"`
	Type      CooldownType `json:"type" db:"type"`
	ExpiresAt time.Time    `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Active reports whether the cooldown still suppresses its key at now.
func (c *PriceCooldown) Active(now time.Time) bool {
	return c.ExpiresAt.After(now)
}
