package campaign

import (
	"context"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// Repository defines the data access contract for campaigns and their rules.
// Implementations must be safe for concurrent use. The engine consumes the
// same repository through its narrower CampaignRepository interface.
type Repository interface {
	// Get returns a single campaign with its rules loaded. Returns
	// ErrNotFound if it doesn't exist.
	Get(ctx context.Context, shopDomain, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter, ordered by
	// priority then created_at DESC, plus the unpaginated total.
	List(ctx context.Context, shopDomain string, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign with its rules and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// Update modifies a campaign. Only non-nil fields in the update are
	// applied. Rules, when present, replace the full rule set.
	Update(ctx context.Context, shopDomain, id string, u UpdateFields) error

	// Delete removes a campaign and its rules. Only DRAFT and ARCHIVED
	// campaigns can be deleted.
	Delete(ctx context.Context, shopDomain, id string) error

	// UpdateStatus transitions a campaign's status.
	UpdateStatus(ctx context.Context, shopDomain, id string, status domain.CampaignStatus) error

	// FindActiveCampaigns returns all ACTIVE campaigns for a shop with
	// rules loaded, ordered by priority.
	FindActiveCampaigns(ctx context.Context, shopDomain string) ([]domain.Campaign, error)

	// IncrementTriggerCount bumps trigger_count and last_triggered_at.
	IncrementTriggerCount(ctx context.Context, campaignID string, at time.Time) error
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied.
type UpdateFields struct {
	Name        *string
	Description *string
	Priority    *int
	Targets     *domain.TargetCriteria
	Rules       *[]domain.PricingRule
}
