package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// ResultsRepo is the read side of the audit trail, serving the admin API.
type ResultsRepo struct{ db *sql.DB }

// NewResultsRepo creates a Postgres-backed results reader.
func NewResultsRepo(db *sql.DB) *ResultsRepo { return &ResultsRepo{db: db} }

// ResultsFilter controls pagination for audit listings.
type ResultsFilter struct {
	CampaignID string
	VariantID  string
	Limit      int
	Offset     int
}

// ListPriceChanges returns recent price change entries, newest first.
func (r *ResultsRepo) ListPriceChanges(ctx context.Context, shop string, f ResultsFilter) ([]domain.PriceChange, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	q := `
		SELECT id, shop_domain, variant_id, product_id, campaign_id, rule_id,
		       old_price, new_price, old_compare_at, new_compare_at,
		       success, reason, source_message_id, created_at
		FROM price_changes
		WHERE shop_domain = $1`
	args := []interface{}{shop}
	idx := 2
	if f.CampaignID != "" {
		q += fmt.Sprintf(" AND campaign_id = $%d", idx)
		args = append(args, f.CampaignID)
		idx++
	}
	if f.VariantID != "" {
		q += fmt.Sprintf(" AND variant_id = $%d", idx)
		args = append(args, f.VariantID)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list price changes: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceChange
	for rows.Next() {
		var c domain.PriceChange
		if err := rows.Scan(
			&c.ID, &c.ShopDomain, &c.VariantID, &c.ProductID, &c.CampaignID, &c.RuleID,
			&c.OldPrice, &c.NewPrice, &c.OldCompareAt, &c.NewCompareAt,
			&c.Success, &c.Reason, &c.SourceMessageID, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan price change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListRuns returns recent processing run summaries, newest first.
func (r *ResultsRepo) ListRuns(ctx context.Context, shop string, limit, offset int) ([]domain.ProcessingRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, shop_domain, topic, status,
		       processed, updated, failed, skipped, reason, created_at
		FROM processing_runs
		WHERE shop_domain = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, shop, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list processing runs: %w", err)
	}
	defer rows.Close()

	var out []domain.ProcessingRun
	for rows.Next() {
		var run domain.ProcessingRun
		if err := rows.Scan(
			&run.ID, &run.MessageID, &run.ShopDomain, &run.Topic, &run.Status,
			&run.Processed, &run.Updated, &run.Failed, &run.Skipped, &run.Reason, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan processing run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
