package domain

import "time"

// Variant is the engine's view of a product variant as returned by the
// commerce platform's query API.
type Variant struct {
	ID                string   `json:"id"`
	ProductID         string   `json:"product_id"`
	InventoryItemID   string   `json:"inventory_item_id"`
	Price             float64  `json:"price"`
	CompareAtPrice    *float64 `json:"compare_at_price"`
	InventoryQuantity int      `json:"inventory_quantity"`
	InventoryTracked  bool     `json:"inventory_tracked"`

	// Product fields used for campaign target matching.
	ProductTags   []string `json:"product_tags"`
	ProductVendor string   `json:"product_vendor"`
	ProductType   string   `json:"product_type"`
	CollectionIDs []string `json:"collection_ids"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PriceUpdateResult reports the outcome of a price mutation against the
// commerce platform. UserErrors holds platform-side validation failures:
// a mutation failure, not an engine fault.
type PriceUpdateResult struct {
	Success    bool     `json:"success"`
	UserErrors []string `json:"user_errors,omitempty"`
	Variant    *Variant `json:"variant,omitempty"`
}

// VariantSnapshot captures a variant's observed inventory and price at
// evaluation time. The snapshot becomes the rule execution state's last*
// fields regardless of whether the rule fires.
type VariantSnapshot struct {
	VariantID      string    `json:"variant_id"`
	ProductID      string    `json:"product_id"`
	Inventory      int       `json:"inventory"`
	Price          float64   `json:"price"`
	CompareAtPrice *float64  `json:"compare_at_price"`
	CapturedAt     time.Time `json:"captured_at"`
}
