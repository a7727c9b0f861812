package engine

import (
	"context"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// CampaignRepository is the engine's read-mostly view of campaign storage.
// Implementations must be safe for concurrent use.
type CampaignRepository interface {
	// FindActiveCampaigns returns all ACTIVE campaigns for a shop with
	// their rules loaded, ordered by priority.
	FindActiveCampaigns(ctx context.Context, shopDomain string) ([]domain.Campaign, error)

	// IncrementTriggerCount bumps a campaign's trigger counter after a
	// successful mutation.
	IncrementTriggerCount(ctx context.Context, campaignID string, at time.Time) error
}

// RuleStateRepository persists per-(campaign, rule, variant) execution state.
type RuleStateRepository interface {
	// Get returns the state for a triple, or ErrStateNotFound if the
	// triple has never been evaluated.
	Get(ctx context.Context, campaignID, ruleID, variantID string) (*domain.RuleExecutionState, error)

	// Save upserts the state for a triple.
	Save(ctx context.Context, state *domain.RuleExecutionState) error
}

// VariantGateway is the external variant/inventory query and price-update
// surface (the commerce platform's Admin API).
type VariantGateway interface {
	GetVariant(ctx context.Context, shop, variantID string) (*domain.Variant, error)
	GetVariantByInventoryItem(ctx context.Context, shop, inventoryItemID string) (*domain.Variant, error)
	UpdateVariantPrice(ctx context.Context, shop, productID, variantID string, newPrice float64, newCompareAt *float64) (*domain.PriceUpdateResult, error)
}

// AuditRecorder is the append-only outcome sink. Recording failures are
// logged but never roll back an already-applied price change.
type AuditRecorder interface {
	RecordPriceChange(ctx context.Context, change *domain.PriceChange) error
	RecordRun(ctx context.Context, run *domain.ProcessingRun) error
}
