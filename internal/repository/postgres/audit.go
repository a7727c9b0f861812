package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// AuditRepo is the append-only outcome sink: price change entries and
// per-event processing run summaries. Rows are inserted once and never
// updated.
type AuditRepo struct{ db *sql.DB }

// NewAuditRepo creates a Postgres-backed audit repository.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) RecordPriceChange(ctx context.Context, c *domain.PriceChange) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_changes
			(id, shop_domain, variant_id, product_id, campaign_id, rule_id,
			 old_price, new_price, old_compare_at, new_compare_at,
			 success, reason, source_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, c.ID, c.ShopDomain, c.VariantID, c.ProductID, c.CampaignID, c.RuleID,
		c.OldPrice, c.NewPrice, c.OldCompareAt, c.NewCompareAt,
		c.Success, c.Reason, c.SourceMessageID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("record price change: %w", err)
	}
	return nil
}

func (r *AuditRepo) RecordRun(ctx context.Context, run *domain.ProcessingRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO processing_runs
			(id, message_id, shop_domain, topic, status,
			 processed, updated, failed, skipped, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, run.ID, run.MessageID, run.ShopDomain, run.Topic, run.Status,
		run.Processed, run.Updated, run.Failed, run.Skipped, run.Reason, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("record processing run: %w", err)
	}
	return nil
}
