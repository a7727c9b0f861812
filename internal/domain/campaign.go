package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of a pricing campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignPaused    CampaignStatus = "PAUSED"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignArchived  CampaignStatus = "ARCHIVED"
)

// Campaign is a named, prioritized set of pricing rules targeting a product
// filter. Only ACTIVE campaigns are eligible for rule evaluation.
type Campaign struct {
	ID          string         `json:"id" db:"id"`
	ShopDomain  string         `json:"shop_domain" db:"shop_domain"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Status      CampaignStatus `json:"status" db:"status"`
	Priority    int            `json:"priority" db:"priority"`
	Targets     TargetCriteria `json:"targets" db:"targets"`
	Rules       []PricingRule  `json:"rules" db:"-"`

	// Stats (read-only, populated by queries / the engine)
	TriggerCount    int        `json:"trigger_count" db:"trigger_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at" db:"last_triggered_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignCompleted || c.Status == CampaignArchived
}

// TargetCriteria selects which variants a campaign applies to. Lists are
// matched by union: a variant matches if it appears in ANY list. A criteria
// with all lists empty matches everything.
type TargetCriteria struct {
	ProductIDs    []string `json:"product_ids"`
	CollectionIDs []string `json:"collection_ids"`
	Tags          []string `json:"tags"`
	Vendors       []string `json:"vendors"`
	ProductTypes  []string `json:"product_types"`
}

// Empty reports whether no filter is set at all (matches everything).
func (t TargetCriteria) Empty() bool {
	return len(t.ProductIDs) == 0 && len(t.CollectionIDs) == 0 &&
		len(t.Tags) == 0 && len(t.Vendors) == 0 && len(t.ProductTypes) == 0
}

// WhenCondition enumerates the inventory conditions a rule can watch.
type WhenCondition string

const (
	ConditionInventoryLevel WhenCondition = "inventory_level"
)

// WhenOperator compares the observed inventory quantity to the rule threshold.
type WhenOperator string

const (
	OpLessThan       WhenOperator = "less_than"
	OpLessOrEqual    WhenOperator = "less_than_or_equal"
	OpGreaterThan    WhenOperator = "greater_than"
	OpGreaterOrEqual WhenOperator = "greater_than_or_equal"
	OpEqual          WhenOperator = "equal"
)

// ThenAction is the price mutation a rule performs when it fires.
type ThenAction string

const (
	ActionIncrease ThenAction = "increase"
	ActionDecrease ThenAction = "decrease"
	ActionSet      ThenAction = "set"
)

// ThenMode selects how ThenValue is interpreted.
type ThenMode string

const (
	ModeFixed      ThenMode = "fixed"
	ModePercentage ThenMode = "percentage"
)

// PricingRule belongs to exactly one campaign: a condition over inventory
// quantity and an action applied to price (and optionally compare-at price).
// Rules are read-only inputs to the engine; they are never mutated during
// evaluation.
type PricingRule struct {
	ID         string `json:"id" db:"id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	Position   int    `json:"position" db:"position"`

	WhenCondition WhenCondition `json:"when_condition" db:"when_condition"`
	WhenOperator  WhenOperator  `json:"when_operator" db:"when_operator"`
	WhenValue     float64       `json:"when_value" db:"when_value"`

	ThenAction      ThenAction `json:"then_action" db:"then_action"`
	ThenMode        ThenMode   `json:"then_mode" db:"then_mode"`
	ThenValue       float64    `json:"then_value" db:"then_value"`
	AdjustCompareAt bool       `json:"adjust_compare_at" db:"adjust_compare_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Matches evaluates the raw boolean condition against an inventory quantity.
// This is the level check only; threshold-crossing logic lives in the engine.
func (r *PricingRule) Matches(inventory int) bool {
	q := float64(inventory)
	switch r.WhenOperator {
	case OpLessThan:
		return q < r.WhenValue
	case OpLessOrEqual:
		return q <= r.WhenValue
	case OpGreaterThan:
		return q > r.WhenValue
	case OpGreaterOrEqual:
		return q >= r.WhenValue
	case OpEqual:
		return q == r.WhenValue
	default:
		return false
	}
}
