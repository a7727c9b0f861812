package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/engine"
)

func TestRuleStateRepo_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewRuleStateRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM rule_execution_states").
		WithArgs("c1", "r1", "v1").
		WillReturnRows(sqlmock.NewRows(nil))

	_, err = repo.Get(context.Background(), "c1", "r1", "v1")
	if err != engine.ErrStateNotFound {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
}

func TestRuleStateRepo_GetRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewRuleStateRepo(db)

	now := time.Now()
	cols := []string{"campaign_id", "rule_id", "variant_id", "state", "last_inventory",
		"last_price", "triggered_at", "trigger_count", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM rule_execution_states").
		WithArgs("c1", "r1", "v1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", "r1", "v1", "TRIGGERED", 8, 25.0, now, 2, now))

	s, err := repo.Get(context.Background(), "c1", "r1", "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.State != domain.RuleTriggered || s.TriggerCount != 2 || s.LastInventory != 8 {
		t.Fatalf("unexpected state: %+v", s)
	}
}

func TestRuleStateRepo_SaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewRuleStateRepo(db)

	mock.ExpectExec("INSERT INTO rule_execution_states").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), &domain.RuleExecutionState{
		CampaignID:    "c1",
		RuleID:        "r1",
		VariantID:     "v1",
		State:         domain.RuleTriggered,
		LastInventory: 8,
		LastPrice:     25.0,
		TriggerCount:  1,
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
