package domain

import "time"

// LockType scopes a processing lock to its purpose.
type LockType string

const (
	// LockWebhookProcessing guards a single inbound message against
	// redundant work on redelivery. Keyed by message ID.
	LockWebhookProcessing LockType = "WEBHOOK_PROCESSING"

	// LockCampaignExecution serializes concurrent events about the same
	// variant. Keyed by variant ID.
	LockCampaignExecution LockType = "CAMPAIGN_EXECUTION"
)

// ProcessingLock is a store-backed, TTL-bounded mutual-exclusion record.
// At most one non-expired lock may exist per key; an expired lock is treated
// as absent and may be reclaimed by a new processor.
type ProcessingLock struct {
	Key       string    `json:"key" db:"key"`
	Type      LockType  `json:"type" db:"type"`
	Owner     string    `json:"owner" db:"owner"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the lock's TTL has elapsed at the given instant.
func (l *ProcessingLock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
