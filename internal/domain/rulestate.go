package domain

import "time"

// RuleState enumerates the execution states of a (campaign, rule, variant)
// triple. A rule re-fires only after its condition goes false and then true
// again (threshold crossing), never while the condition stays continuously
// true.
type RuleState string

const (
	RuleInactive     RuleState = "INACTIVE"
	RuleTriggered    RuleState = "TRIGGERED"
	RuleCoolingDown  RuleState = "COOLING_DOWN"
	RuleResetPending RuleState = "RESET_PENDING"
)

// RuleExecutionState is one row per (campaign, rule, variant) triple. It is
// created on first evaluation, updated on every evaluation, and never deleted
// by the engine (retained for audit/debugging).
type RuleExecutionState struct {
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	RuleID     string    `json:"rule_id" db:"rule_id"`
	VariantID  string    `json:"variant_id" db:"variant_id"`
	State      RuleState `json:"state" db:"state"`

	LastInventory int     `json:"last_inventory" db:"last_inventory"`
	LastPrice     float64 `json:"last_price" db:"last_price"`

	TriggeredAt  *time.Time `json:"triggered_at" db:"triggered_at"`
	TriggerCount int        `json:"trigger_count" db:"trigger_count"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
