package campaign

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// Service implements campaign business logic. It coordinates between the
// repository layer and rule validation. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, shopDomain, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, shopDomain, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, shopDomain string, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.List(ctx, shopDomain, f)
}

// Create validates and persists a new campaign in DRAFT status.
func (s *Service) Create(ctx context.Context, shopDomain string, input CreateInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	c := &domain.Campaign{
		ID:          uuid.New().String(),
		ShopDomain:  shopDomain,
		Name:        input.Name,
		Description: input.Description,
		Priority:    input.Priority,
		Targets:     input.Targets,
		Status:      domain.CampaignDraft,
	}
	for i, r := range input.Rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		r.ID = uuid.New().String()
		r.CampaignID = c.ID
		r.Position = i
		c.Rules = append(c.Rules, r)
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// Update modifies mutable campaign fields. Rules, when present, are
// validated and replace the campaign's full rule set.
func (s *Service) Update(ctx context.Context, shopDomain, id string, u UpdateFields) error {
	if u.Rules != nil {
		for i, r := range *u.Rules {
			if err := validateRule(r); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
			(*u.Rules)[i].Position = i
			if (*u.Rules)[i].ID == "" {
				(*u.Rules)[i].ID = uuid.New().String()
			}
			(*u.Rules)[i].CampaignID = id
		}
	}
	return s.repo.Update(ctx, shopDomain, id, u)
}

// Delete removes a campaign (DRAFT or ARCHIVED only).
func (s *Service) Delete(ctx context.Context, shopDomain, id string) error {
	c, err := s.repo.Get(ctx, shopDomain, id)
	if err != nil {
		return err
	}
	if c.Status != domain.CampaignDraft && c.Status != domain.CampaignArchived {
		return fmt.Errorf("%w: cannot delete a %s campaign", ErrInvalidTransition, c.Status)
	}
	return s.repo.Delete(ctx, shopDomain, id)
}

// allowedTransitions maps each status to the statuses it may move to.
var allowedTransitions = map[domain.CampaignStatus][]domain.CampaignStatus{
	domain.CampaignDraft:     {domain.CampaignActive, domain.CampaignArchived},
	domain.CampaignActive:    {domain.CampaignPaused, domain.CampaignCompleted},
	domain.CampaignPaused:    {domain.CampaignActive, domain.CampaignCompleted, domain.CampaignArchived},
	domain.CampaignCompleted: {domain.CampaignArchived},
	domain.CampaignArchived:  {},
}

// SetStatus transitions a campaign through its lifecycle. Activation
// requires at least one valid rule: an ACTIVE campaign with no rules would
// hold locks and cooldowns for nothing on every matching event.
func (s *Service) SetStatus(ctx context.Context, shopDomain, id string, status domain.CampaignStatus) error {
	c, err := s.repo.Get(ctx, shopDomain, id)
	if err != nil {
		return err
	}

	if !transitionAllowed(c.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, status)
	}
	if status == domain.CampaignActive && len(c.Rules) == 0 {
		return ErrNoRules
	}

	if err := s.repo.UpdateStatus(ctx, shopDomain, id, status); err != nil {
		return err
	}
	log.Printf("[campaign.Service] Campaign %s: %s -> %s", id, c.Status, status)
	return nil
}

func transitionAllowed(from, to domain.CampaignStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func validateRule(r domain.PricingRule) error {
	if r.WhenCondition != domain.ConditionInventoryLevel {
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidRule, r.WhenCondition)
	}
	switch r.WhenOperator {
	case domain.OpLessThan, domain.OpLessOrEqual, domain.OpGreaterThan,
		domain.OpGreaterOrEqual, domain.OpEqual:
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidRule, r.WhenOperator)
	}
	if r.WhenValue < 0 {
		return fmt.Errorf("%w: threshold must be non-negative", ErrInvalidRule)
	}
	switch r.ThenAction {
	case domain.ActionIncrease, domain.ActionDecrease, domain.ActionSet:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRule, r.ThenAction)
	}
	switch r.ThenMode {
	case domain.ModeFixed, domain.ModePercentage:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRule, r.ThenMode)
	}
	if r.ThenValue < 0 {
		return fmt.Errorf("%w: adjustment must be non-negative", ErrInvalidRule)
	}
	return nil
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Priority    int                   `json:"priority"`
	Targets     domain.TargetCriteria `json:"targets"`
	Rules       []domain.PricingRule  `json:"rules"`
}
