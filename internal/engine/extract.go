package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// variantRef identifies the variant(s) an event is about, before the
// authoritative snapshot is captured from the platform. Exactly one of
// VariantID or InventoryItemID is set.
type variantRef struct {
	VariantID       string
	InventoryItemID string

	// UpdatedAt is the payload's last-modified timestamp where the topic
	// carries one; the zero value means unknown. Used for self-echo
	// detection.
	UpdatedAt time.Time
}

type inventoryLevelPayload struct {
	InventoryItemID int64  `json:"inventory_item_id"`
	Available       int    `json:"available"`
	UpdatedAt       string `json:"updated_at"`
}

type inventoryItemPayload struct {
	ID        int64  `json:"id"`
	UpdatedAt string `json:"updated_at"`
}

type productPayload struct {
	ID       int64 `json:"id"`
	Variants []struct {
		ID        int64  `json:"id"`
		UpdatedAt string `json:"updated_at"`
	} `json:"variants"`
}

// extractVariantRefs performs kind-specific extraction of the affected
// variant identifiers from an event payload. Unsupported topics return
// ErrUnsupportedTopic; supported topics with unusable payloads return
// ErrNoVariant.
func extractVariantRefs(event domain.InventoryChangeEvent) ([]variantRef, error) {
	switch event.Topic {
	case domain.TopicInventoryLevelUpdate:
		var p inventoryLevelPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.InventoryItemID == 0 {
			return nil, ErrNoVariant
		}
		return []variantRef{{
			InventoryItemID: fmt.Sprintf("%d", p.InventoryItemID),
			UpdatedAt:       parseTime(p.UpdatedAt),
		}}, nil

	case domain.TopicInventoryItemUpdate:
		var p inventoryItemPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ID == 0 {
			return nil, ErrNoVariant
		}
		return []variantRef{{
			InventoryItemID: fmt.Sprintf("%d", p.ID),
			UpdatedAt:       parseTime(p.UpdatedAt),
		}}, nil

	case domain.TopicProductUpdate, domain.TopicProductCreate:
		var p productPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || len(p.Variants) == 0 {
			return nil, ErrNoVariant
		}
		refs := make([]variantRef, 0, len(p.Variants))
		for _, v := range p.Variants {
			refs = append(refs, variantRef{
				VariantID: fmt.Sprintf("%d", v.ID),
				UpdatedAt: parseTime(v.UpdatedAt),
			})
		}
		return refs, nil

	default:
		return nil, ErrUnsupportedTopic
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
