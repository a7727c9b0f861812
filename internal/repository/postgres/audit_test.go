package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/shopify-repricer/internal/domain"
)

func TestAuditRepo_RecordPriceChange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewAuditRepo(db)

	mock.ExpectExec("INSERT INTO price_changes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	change := &domain.PriceChange{
		ShopDomain:      "demo.myshopify.com",
		VariantID:       "v1",
		ProductID:       "p1",
		CampaignID:      "c1",
		RuleID:          "r1",
		OldPrice:        20.0,
		NewPrice:        25.0,
		Success:         true,
		SourceMessageID: "msg-1",
		CreatedAt:       time.Now(),
	}
	if err := repo.RecordPriceChange(context.Background(), change); err != nil {
		t.Fatalf("record: %v", err)
	}
	if change.ID == "" {
		t.Error("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditRepo_RecordRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewAuditRepo(db)

	mock.ExpectExec("INSERT INTO processing_runs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &domain.ProcessingRun{
		MessageID:  "msg-1",
		ShopDomain: "demo.myshopify.com",
		Topic:      "inventory_levels/update",
		Status:     domain.RunCompleted,
		Processed:  1,
		Updated:    1,
		CreatedAt:  time.Now(),
	}
	if err := repo.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResultsRepo_ListPriceChanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewResultsRepo(db)

	now := time.Now()
	cols := []string{"id", "shop_domain", "variant_id", "product_id", "campaign_id", "rule_id",
		"old_price", "new_price", "old_compare_at", "new_compare_at",
		"success", "reason", "source_message_id", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM price_changes").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("pc1", "demo.myshopify.com", "v1", "p1", "c1", "r1",
				20.0, 25.0, nil, nil, true, "threshold crossed", "msg-1", now))

	changes, err := repo.ListPriceChanges(context.Background(), "demo.myshopify.com",
		ResultsFilter{CampaignID: "c1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(changes) != 1 || changes[0].NewPrice != 25.0 {
		t.Fatalf("unexpected changes: %+v", changes)
	}
}
