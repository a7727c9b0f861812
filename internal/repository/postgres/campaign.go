package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL. The engine
// consumes the same instance through its CampaignRepository interface.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Get(ctx context.Context, shop, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var targets []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, shop_domain, name, COALESCE(description,''), status, priority,
		       targets, trigger_count, last_triggered_at, created_at, updated_at
		FROM pricing_campaigns
		WHERE id = $1 AND shop_domain = $2
	`, id, shop).Scan(
		&c.ID, &c.ShopDomain, &c.Name, &c.Description, &c.Status, &c.Priority,
		&targets, &c.TriggerCount, &c.LastTriggeredAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if len(targets) > 0 {
		if err := json.Unmarshal(targets, &c.Targets); err != nil {
			return nil, fmt.Errorf("decode targets: %w", err)
		}
	}

	rules, err := r.rulesFor(ctx, []string{c.ID})
	if err != nil {
		return nil, err
	}
	c.Rules = rules[c.ID]
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, shop string, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM pricing_campaigns WHERE shop_domain = $1`
	args := []interface{}{shop}
	idx := 2
	if f.Status != "" {
		countQ += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Search != "" {
		countQ += fmt.Sprintf(" AND name ILIKE $%d", idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := `
		SELECT id, name, COALESCE(description,''), status, priority, targets,
		       trigger_count, last_triggered_at, created_at, updated_at
		FROM pricing_campaigns
		WHERE shop_domain = $1`
	qArgs := []interface{}{shop}
	qIdx := 2
	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", qIdx)
		qArgs = append(qArgs, f.Status)
		qIdx++
	}
	if f.Search != "" {
		q += fmt.Sprintf(" AND name ILIKE $%d", qIdx)
		qArgs = append(qArgs, "%"+f.Search+"%")
		qIdx++
	}
	q += fmt.Sprintf(" ORDER BY priority ASC, created_at DESC LIMIT $%d OFFSET $%d", qIdx, qIdx+1)
	qArgs = append(qArgs, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, qArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out, err := scanCampaigns(rows, shop)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	targets, err := json.Marshal(c.Targets)
	if err != nil {
		return "", fmt.Errorf("encode targets: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pricing_campaigns
			(id, shop_domain, name, description, status, priority, targets,
			 trigger_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())
	`, c.ID, c.ShopDomain, c.Name, c.Description, c.Status, c.Priority, targets)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}

	if err := insertRules(ctx, tx, c.ID, c.Rules); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return c.ID, nil
}

func (r *CampaignRepo) Update(ctx context.Context, shop, id string, u campaign.UpdateFields) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Priority != nil {
		add("priority", *u.Priority)
	}
	if u.Targets != nil {
		targets, err := json.Marshal(*u.Targets)
		if err != nil {
			return fmt.Errorf("encode targets: %w", err)
		}
		add("targets", targets)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = NOW()")
		q := fmt.Sprintf("UPDATE pricing_campaigns SET %s WHERE id = $%d AND shop_domain = $%d",
			joinComma(sets), idx, idx+1)
		args = append(args, id, shop)

		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("update campaign: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return campaign.ErrNotFound
		}
	}

	if u.Rules != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pricing_rules WHERE campaign_id = $1`, id); err != nil {
			return fmt.Errorf("clear rules: %w", err)
		}
		if err := insertRules(ctx, tx, id, *u.Rules); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepo) Delete(ctx context.Context, shop, id string) error {
	// pricing_rules rows go with the campaign via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM pricing_campaigns
		WHERE id = $1 AND shop_domain = $2 AND status IN ('DRAFT','ARCHIVED')
	`, id, shop)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) UpdateStatus(ctx context.Context, shop, id string, status domain.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pricing_campaigns SET status = $1, updated_at = NOW()
		WHERE id = $2 AND shop_domain = $3
	`, status, id, shop)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) FindActiveCampaigns(ctx context.Context, shop string) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description,''), status, priority, targets,
		       trigger_count, last_triggered_at, created_at, updated_at
		FROM pricing_campaigns
		WHERE shop_domain = $1 AND status = 'ACTIVE'
		ORDER BY priority ASC, created_at ASC
	`, shop)
	if err != nil {
		return nil, fmt.Errorf("find active campaigns: %w", err)
	}
	defer rows.Close()

	out, err := scanCampaigns(rows, shop)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	rules, err := r.rulesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Rules = rules[out[i].ID]
	}
	return out, nil
}

func (r *CampaignRepo) IncrementTriggerCount(ctx context.Context, campaignID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pricing_campaigns
		SET trigger_count = trigger_count + 1, last_triggered_at = $1, updated_at = NOW()
		WHERE id = $2
	`, at, campaignID)
	if err != nil {
		return fmt.Errorf("increment trigger count: %w", err)
	}
	return nil
}

// rulesFor loads the rules for a set of campaigns in one query, keyed by
// campaign id and ordered by position.
func (r *CampaignRepo) rulesFor(ctx context.Context, campaignIDs []string) (map[string][]domain.PricingRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, position, when_condition, when_operator, when_value,
		       then_action, then_mode, then_value, adjust_compare_at, created_at
		FROM pricing_rules
		WHERE campaign_id = ANY($1)
		ORDER BY campaign_id, position ASC
	`, pq.Array(campaignIDs))
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.PricingRule)
	for rows.Next() {
		var rule domain.PricingRule
		if err := rows.Scan(
			&rule.ID, &rule.CampaignID, &rule.Position,
			&rule.WhenCondition, &rule.WhenOperator, &rule.WhenValue,
			&rule.ThenAction, &rule.ThenMode, &rule.ThenValue,
			&rule.AdjustCompareAt, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out[rule.CampaignID] = append(out[rule.CampaignID], rule)
	}
	return out, rows.Err()
}

func insertRules(ctx context.Context, tx *sql.Tx, campaignID string, rules []domain.PricingRule) error {
	for i, rule := range rules {
		if rule.ID == "" {
			rule.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pricing_rules
				(id, campaign_id, position, when_condition, when_operator, when_value,
				 then_action, then_mode, then_value, adjust_compare_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		`, rule.ID, campaignID, i,
			rule.WhenCondition, rule.WhenOperator, rule.WhenValue,
			rule.ThenAction, rule.ThenMode, rule.ThenValue, rule.AdjustCompareAt)
		if err != nil {
			return fmt.Errorf("insert rule %d: %w", i, err)
		}
	}
	return nil
}

func scanCampaigns(rows *sql.Rows, shop string) ([]domain.Campaign, error) {
	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var targets []byte
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.Status, &c.Priority, &targets,
			&c.TriggerCount, &c.LastTriggeredAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if len(targets) > 0 {
			if err := json.Unmarshal(targets, &c.Targets); err != nil {
				return nil, fmt.Errorf("decode targets: %w", err)
			}
		}
		c.ShopDomain = shop
		out = append(out, c)
	}
	return out, rows.Err()
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
