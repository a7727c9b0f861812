package domain

import (
	"encoding/json"
	"time"
)

// WebhookTopic identifies the kind of inbound change notification.
type WebhookTopic string

const (
	TopicInventoryLevelUpdate WebhookTopic = "inventory_levels/update"
	TopicInventoryItemUpdate  WebhookTopic = "inventory_items/update"
	TopicProductUpdate        WebhookTopic = "products/update"
	TopicProductCreate        WebhookTopic = "products/create"
)

// InventoryChangeEvent is a normalized inbound webhook event. Delivery is
// at-least-once: the same MessageID may arrive more than once and events may
// arrive out of order.
type InventoryChangeEvent struct {
	MessageID  string          `json:"message_id"`
	Topic      WebhookTopic    `json:"topic"`
	ShopDomain string          `json:"shop_domain"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// CampaignResult is the outcome of evaluating a single campaign for one event.
type CampaignResult struct {
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	Updated      bool    `json:"updated"`
	Skipped      bool    `json:"skipped"`
	SkipReason   string  `json:"skip_reason,omitempty"`
	RuleID       string  `json:"rule_id,omitempty"`
	OldPrice     float64 `json:"old_price,omitempty"`
	NewPrice     float64 `json:"new_price,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// ProcessingOutcome aggregates the result of processing one inbound event.
// Success is true if at least one campaign produced a successful mutation.
type ProcessingOutcome struct {
	MessageID string           `json:"message_id"`
	Success   bool             `json:"success"`
	Processed int              `json:"processed"`
	Updated   int              `json:"updated"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Reason    string           `json:"reason,omitempty"`
	Campaigns []CampaignResult `json:"campaigns,omitempty"`
}
