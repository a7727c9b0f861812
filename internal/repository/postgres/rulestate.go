package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/engine"
)

// RuleStateRepo persists rule execution state, one row per
// (campaign, rule, variant) triple.
type RuleStateRepo struct{ db *sql.DB }

// NewRuleStateRepo creates a Postgres-backed rule state repository.
func NewRuleStateRepo(db *sql.DB) *RuleStateRepo { return &RuleStateRepo{db: db} }

func (r *RuleStateRepo) Get(ctx context.Context, campaignID, ruleID, variantID string) (*domain.RuleExecutionState, error) {
	s := &domain.RuleExecutionState{}
	err := r.db.QueryRowContext(ctx, `
		SELECT campaign_id, rule_id, variant_id, state, last_inventory,
		       last_price, triggered_at, trigger_count, updated_at
		FROM rule_execution_states
		WHERE campaign_id = $1 AND rule_id = $2 AND variant_id = $3
	`, campaignID, ruleID, variantID).Scan(
		&s.CampaignID, &s.RuleID, &s.VariantID, &s.State, &s.LastInventory,
		&s.LastPrice, &s.TriggeredAt, &s.TriggerCount, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, engine.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rule state: %w", err)
	}
	return s, nil
}

func (r *RuleStateRepo) Save(ctx context.Context, s *domain.RuleExecutionState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rule_execution_states
			(campaign_id, rule_id, variant_id, state, last_inventory,
			 last_price, triggered_at, trigger_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (campaign_id, rule_id, variant_id) DO UPDATE SET
			state = EXCLUDED.state,
			last_inventory = EXCLUDED.last_inventory,
			last_price = EXCLUDED.last_price,
			triggered_at = EXCLUDED.triggered_at,
			trigger_count = EXCLUDED.trigger_count,
			updated_at = EXCLUDED.updated_at
	`, s.CampaignID, s.RuleID, s.VariantID, s.State, s.LastInventory,
		s.LastPrice, s.TriggeredAt, s.TriggerCount, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save rule state: %w", err)
	}
	return nil
}
