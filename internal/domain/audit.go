package domain

import "time"

// PriceChange is one attempted or successful price mutation, recorded
// append-only. Entries are created once and never mutated thereafter.
type PriceChange struct {
	ID              string    `json:"id" db:"id"`
	ShopDomain      string    `json:"shop_domain" db:"shop_domain"`
	VariantID       string    `json:"variant_id" db:"variant_id"`
	ProductID       string    `json:"product_id" db:"product_id"`
	CampaignID      string    `json:"campaign_id" db:"campaign_id"`
	RuleID          string    `json:"rule_id" db:"rule_id"`
	OldPrice        float64   `json:"old_price" db:"old_price"`
	NewPrice        float64   `json:"new_price" db:"new_price"`
	OldCompareAt    *float64  `json:"old_compare_at" db:"old_compare_at"`
	NewCompareAt    *float64  `json:"new_compare_at" db:"new_compare_at"`
	Success         bool      `json:"success" db:"success"`
	Reason          string    `json:"reason" db:"reason"`
	SourceMessageID string    `json:"source_message_id" db:"source_message_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ProcessingRunStatus enumerates the terminal states of a processed event.
type ProcessingRunStatus string

const (
	RunCompleted ProcessingRunStatus = "completed"
	RunSkipped   ProcessingRunStatus = "skipped"
	RunFailed    ProcessingRunStatus = "failed"
)

// ProcessingRun is the per-event summary persisted after the engine finishes
// with an inbound message. The admin surface reads aggregated counts from
// these rows; it never sees stack traces.
type ProcessingRun struct {
	ID         string              `json:"id" db:"id"`
	MessageID  string              `json:"message_id" db:"message_id"`
	ShopDomain string              `json:"shop_domain" db:"shop_domain"`
	Topic      string              `json:"topic" db:"topic"`
	Status     ProcessingRunStatus `json:"status" db:"status"`
	Processed  int                 `json:"processed" db:"processed"`
	Updated    int                 `json:"updated" db:"updated"`
	Failed     int                 `json:"failed" db:"failed"`
	Skipped    int                 `json:"skipped" db:"skipped"`
	Reason     string              `json:"reason" db:"reason"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
}
