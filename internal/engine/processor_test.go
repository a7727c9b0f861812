package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shopify-repricer/internal/config"
	"github.com/ignite/shopify-repricer/internal/cooldown"
	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/pkg/distlock"
)

type memCampaignRepo struct {
	mu        sync.Mutex
	campaigns []domain.Campaign
	triggers  map[string]int
}

func (r *memCampaignRepo) FindActiveCampaigns(_ context.Context, shop string) ([]domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Campaign
	for _, c := range r.campaigns {
		if c.ShopDomain == shop && c.Status == domain.CampaignActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCampaignRepo) IncrementTriggerCount(_ context.Context, campaignID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.triggers == nil {
		r.triggers = make(map[string]int)
	}
	r.triggers[campaignID]++
	return nil
}

type priceUpdateCall struct {
	VariantID    string
	NewPrice     float64
	NewCompareAt *float64
}

type fakeGateway struct {
	mu            sync.Mutex
	byVariant     map[string]*domain.Variant
	byInventory   map[string]*domain.Variant
	updateCalls   []priceUpdateCall
	rejectWith    []string
	transportFail error
}

func (g *fakeGateway) GetVariant(_ context.Context, _, variantID string) (*domain.Variant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.byVariant[variantID]
	if !ok {
		return nil, ErrNoVariant
	}
	cp := *v
	return &cp, nil
}

func (g *fakeGateway) GetVariantByInventoryItem(_ context.Context, _, inventoryItemID string) (*domain.Variant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.byInventory[inventoryItemID]
	if !ok {
		return nil, ErrNoVariant
	}
	cp := *v
	return &cp, nil
}

func (g *fakeGateway) UpdateVariantPrice(_ context.Context, _, _, variantID string, newPrice float64, newCompareAt *float64) (*domain.PriceUpdateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.transportFail != nil {
		return nil, g.transportFail
	}
	g.updateCalls = append(g.updateCalls, priceUpdateCall{VariantID: variantID, NewPrice: newPrice, NewCompareAt: newCompareAt})
	if len(g.rejectWith) > 0 {
		return &domain.PriceUpdateResult{Success: false, UserErrors: g.rejectWith}, nil
	}
	return &domain.PriceUpdateResult{Success: true}, nil
}

type memAudit struct {
	mu      sync.Mutex
	changes []domain.PriceChange
	runs    []domain.ProcessingRun
}

func (a *memAudit) RecordPriceChange(_ context.Context, change *domain.PriceChange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.changes = append(a.changes, *change)
	return nil
}

func (a *memAudit) RecordRun(_ context.Context, run *domain.ProcessingRun) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, *run)
	return nil
}

type processorFixture struct {
	processor *Processor
	locks     distlock.Store
	cooldowns *cooldown.Tracker
	campaigns *memCampaignRepo
	states    *memStateRepo
	gateway   *fakeGateway
	audit     *memAudit
	cfg       config.EngineConfig
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()

	trackedVariant := &domain.Variant{
		ID:                "v1",
		ProductID:         "p1",
		InventoryItemID:   "42",
		Price:             20.00,
		InventoryQuantity: 8,
		InventoryTracked:  true,
	}

	f := &processorFixture{
		locks:     distlock.NewMemoryStore(),
		cooldowns: cooldown.NewTracker(cooldown.NewMemoryStore()),
		states:    newMemStateRepo(),
		audit:     &memAudit{},
		campaigns: &memCampaignRepo{
			campaigns: []domain.Campaign{{
				ID:         "c1",
				ShopDomain: "demo.myshopify.com",
				Name:       "Low stock surge",
				Status:     domain.CampaignActive,
				Targets:    domain.TargetCriteria{ProductIDs: []string{"p1"}},
				Rules: []domain.PricingRule{{
					ID:            "r1",
					CampaignID:    "c1",
					WhenCondition: domain.ConditionInventoryLevel,
					WhenOperator:  domain.OpLessThan,
					WhenValue:     10,
					ThenAction:    domain.ActionIncrease,
					ThenMode:      domain.ModeFixed,
					ThenValue:     5,
				}},
			}},
		},
		gateway: &fakeGateway{
			byVariant:   map[string]*domain.Variant{"v1": trackedVariant},
			byInventory: map[string]*domain.Variant{"42": trackedVariant},
		},
		cfg: config.EngineConfig{
			WebhookLockTTLSeconds:   60,
			CampaignLockTTLSeconds:  120,
			VariantCooldownSeconds:  120,
			CampaignCooldownSeconds: 60,
			SelfEchoWindowSeconds:   60,
		},
	}
	f.processor = NewProcessor(f.locks, f.cooldowns, f.campaigns, f.states, f.gateway, f.audit, f.cfg)
	return f
}

func inventoryEvent(messageID string, available int) domain.InventoryChangeEvent {
	return domain.InventoryChangeEvent{
		MessageID:  messageID,
		Topic:      domain.TopicInventoryLevelUpdate,
		ShopDomain: "demo.myshopify.com",
		Payload:    []byte(fmt.Sprintf(`{"inventory_item_id":42,"available":%d}`, available)),
		ReceivedAt: time.Now(),
	}
}

func TestProcessor_AppliesWinningRule(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-1", 8))
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.Processed)
	assert.Equal(t, 1, outcome.Updated)
	require.Len(t, f.gateway.updateCalls, 1)
	assert.Equal(t, 25.00, f.gateway.updateCalls[0].NewPrice)

	// Audit links the change back to the triggering message.
	require.Len(t, f.audit.changes, 1)
	change := f.audit.changes[0]
	assert.Equal(t, "msg-1", change.SourceMessageID)
	assert.Equal(t, 20.00, change.OldPrice)
	assert.Equal(t, 25.00, change.NewPrice)
	assert.True(t, change.Success)

	// Both cooldowns are in place after a successful mutation.
	assert.True(t, f.cooldowns.IsSuppressed(ctx, "v1", domain.CooldownPriceUpdate))
	assert.True(t, f.cooldowns.IsSuppressed(ctx, cooldown.CampaignKey("c1"), domain.CooldownCampaignTrigger))

	assert.Equal(t, 1, f.campaigns.triggers["c1"])

	require.Len(t, f.audit.runs, 1)
	assert.Equal(t, domain.RunCompleted, f.audit.runs[0].Status)
}

func TestProcessor_DuplicateMessageShortCircuits(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	held := distlock.New(f.locks, domain.LockWebhookProcessing, "msg-dup", time.Minute)
	acquired, err := held.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-dup", 8))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "already processed", outcome.Reason)
	assert.Empty(t, f.gateway.updateCalls)
}

func TestProcessor_VariantLockContention(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	held := distlock.New(f.locks, domain.LockCampaignExecution, "v1", time.Minute)
	acquired, err := held.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-2", 8))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 0, outcome.Processed)
	assert.Empty(t, f.gateway.updateCalls)
}

func TestProcessor_SelfEchoSuppressed(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	recent := time.Now().UTC().Format(time.RFC3339)
	event := domain.InventoryChangeEvent{
		MessageID:  "msg-echo",
		Topic:      domain.TopicProductUpdate,
		ShopDomain: "demo.myshopify.com",
		Payload:    []byte(fmt.Sprintf(`{"id":1,"variants":[{"id":1,"updated_at":%q}]}`, recent)),
	}

	outcome, err := f.processor.Process(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, "self-echo suppressed", outcome.Reason)
	assert.Empty(t, f.gateway.updateCalls)

	require.Len(t, f.audit.runs, 1)
	assert.Equal(t, domain.RunSkipped, f.audit.runs[0].Status)
}

func TestProcessor_StaleProductUpdateIsProcessed(t *testing.T) {
	f := newProcessorFixture(t)
	f.gateway.byVariant["11"] = f.gateway.byVariant["v1"]
	ctx := context.Background()

	old := time.Now().Add(-10 * time.Minute).UTC().Format(time.RFC3339)
	event := domain.InventoryChangeEvent{
		MessageID:  "msg-old",
		Topic:      domain.TopicProductUpdate,
		ShopDomain: "demo.myshopify.com",
		Payload:    []byte(fmt.Sprintf(`{"id":1,"variants":[{"id":11,"updated_at":%q}]}`, old)),
	}

	outcome, err := f.processor.Process(ctx, event)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestProcessor_CooldownSuppresses(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cooldowns.Set(ctx, "v1", domain.CooldownPriceUpdate, time.Minute))

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-3", 8))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 0, outcome.Processed)
	assert.Empty(t, f.gateway.updateCalls)
}

func TestProcessor_CooldownRolledBackWhenNothingFires(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	// Inventory 50 satisfies no rule; the pre-emptive cooldown must not
	// survive the run.
	f.gateway.byVariant["v1"].InventoryQuantity = 50
	f.gateway.byInventory["42"].InventoryQuantity = 50

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-4", 50))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 1, outcome.Skipped)
	assert.False(t, f.cooldowns.IsSuppressed(ctx, "v1", domain.CooldownPriceUpdate))
}

func TestProcessor_CooldownRolledBackOnRejectedUpdate(t *testing.T) {
	f := newProcessorFixture(t)
	f.gateway.rejectWith = []string{"price must be positive"}
	ctx := context.Background()

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-5", 8))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 1, outcome.Failed)
	assert.False(t, f.cooldowns.IsSuppressed(ctx, "v1", domain.CooldownPriceUpdate))

	// The failed attempt is still audited.
	require.Len(t, f.audit.changes, 1)
	assert.False(t, f.audit.changes[0].Success)

	require.Len(t, f.audit.runs, 1)
	assert.Equal(t, domain.RunFailed, f.audit.runs[0].Status)
}

func TestProcessor_UntrackedInventorySkipped(t *testing.T) {
	f := newProcessorFixture(t)
	f.gateway.byVariant["v1"].InventoryTracked = false
	f.gateway.byInventory["42"].InventoryTracked = false
	ctx := context.Background()

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-6", 8))
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Processed)
	assert.Empty(t, f.gateway.updateCalls)
}

func TestProcessor_UnsupportedTopicAcknowledged(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	outcome, err := f.processor.Process(ctx, domain.InventoryChangeEvent{
		MessageID:  "msg-7",
		Topic:      domain.WebhookTopic("orders/create"),
		ShopDomain: "demo.myshopify.com",
		Payload:    []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "unsupported topic", outcome.Reason)
	require.Len(t, f.audit.runs, 1)
	assert.Equal(t, domain.RunSkipped, f.audit.runs[0].Status)
}

func TestProcessor_NoActiveCampaigns(t *testing.T) {
	f := newProcessorFixture(t)
	f.campaigns.campaigns[0].Status = domain.CampaignPaused
	ctx := context.Background()

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-8", 8))
	require.NoError(t, err)
	assert.Equal(t, "no active campaigns", outcome.Reason)
	assert.Empty(t, f.gateway.updateCalls)
}

func TestProcessor_SecondIdenticalEventSuppressedByCooldown(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-9a", 8))
	require.NoError(t, err)
	require.True(t, outcome.Success)

	// Same inventory observation under a fresh message ID: the variant
	// cooldown absorbs it before any rule evaluation.
	outcome, err = f.processor.Process(ctx, inventoryEvent("msg-9b", 8))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Len(t, f.gateway.updateCalls, 1)
}

func TestProcessor_CampaignCooldownSkipsRepeatTrigger(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cooldowns.Set(ctx, cooldown.CampaignKey("c1"), domain.CooldownCampaignTrigger, time.Minute))

	outcome, err := f.processor.Process(ctx, inventoryEvent("msg-10", 8))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 1, outcome.Skipped)
	require.Len(t, outcome.Campaigns, 1)
	assert.Equal(t, "campaign under trigger cooldown", outcome.Campaigns[0].SkipReason)
}

func TestProcessor_LocksReleasedAfterRun(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	_, err := f.processor.Process(ctx, inventoryEvent("msg-11", 8))
	require.NoError(t, err)

	// Both lock keys must be reacquirable immediately.
	msgLock := distlock.New(f.locks, domain.LockWebhookProcessing, "msg-11", time.Minute)
	acquired, err := msgLock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)

	varLock := distlock.New(f.locks, domain.LockCampaignExecution, "v1", time.Minute)
	acquired, err = varLock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}
