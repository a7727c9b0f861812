package shopify

import (
	"strconv"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// restVariant is the Admin REST representation of a product variant.
// Monetary fields arrive as strings.
type restVariant struct {
	ID                  int64  `json:"id"`
	ProductID           int64  `json:"product_id"`
	Price               string `json:"price"`
	CompareAtPrice      string `json:"compare_at_price"`
	InventoryItemID     int64  `json:"inventory_item_id"`
	InventoryQuantity   int    `json:"inventory_quantity"`
	InventoryManagement string `json:"inventory_management"`
	UpdatedAt           string `json:"updated_at"`
}

type variantEnvelope struct {
	Variant restVariant `json:"variant"`
}

type variantsEnvelope struct {
	Variants []restVariant `json:"variants"`
}

type restProduct struct {
	ID          int64  `json:"id"`
	Tags        string `json:"tags"` // comma-separated
	Vendor      string `json:"vendor"`
	ProductType string `json:"product_type"`
}

type productEnvelope struct {
	Product restProduct `json:"product"`
}

type restCollect struct {
	CollectionID int64 `json:"collection_id"`
}

type collectsEnvelope struct {
	Collects []restCollect `json:"collects"`
}

// variantUpdateRequest is the PUT body for a price mutation.
type variantUpdateRequest struct {
	Variant struct {
		ID             int64   `json:"id"`
		Price          string  `json:"price"`
		CompareAtPrice *string `json:"compare_at_price,omitempty"`
	} `json:"variant"`
}

func (v restVariant) toDomain() *domain.Variant {
	price, _ := strconv.ParseFloat(v.Price, 64)
	out := &domain.Variant{
		ID:                strconv.FormatInt(v.ID, 10),
		ProductID:         strconv.FormatInt(v.ProductID, 10),
		InventoryItemID:   strconv.FormatInt(v.InventoryItemID, 10),
		Price:             price,
		InventoryQuantity: v.InventoryQuantity,
		InventoryTracked:  v.InventoryManagement != "",
	}
	if v.CompareAtPrice != "" {
		if ca, err := strconv.ParseFloat(v.CompareAtPrice, 64); err == nil {
			out.CompareAtPrice = &ca
		}
	}
	if ts, err := time.Parse(time.RFC3339, v.UpdatedAt); err == nil {
		out.UpdatedAt = ts
	}
	return out
}
