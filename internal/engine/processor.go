package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/shopify-repricer/internal/config"
	"github.com/ignite/shopify-repricer/internal/cooldown"
	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/pkg/distlock"
	"github.com/ignite/shopify-repricer/internal/pkg/logger"
)

// Processor orchestrates the handling of one inbound inventory-change event:
// de-duplication, self-echo suppression, per-variant serialization, rule
// evaluation, price mutation, and outcome recording.
type Processor struct {
	locks     distlock.Store
	cooldowns *cooldown.Tracker
	campaigns CampaignRepository
	rules     *RuleStateMachine
	gateway   VariantGateway
	audit     AuditRecorder
	cfg       config.EngineConfig
	now       func() time.Time
}

// NewProcessor wires an event processor. All collaborators are injected; the
// processor holds no hidden global state and any number of instances may run
// concurrently against the same stores.
func NewProcessor(
	locks distlock.Store,
	cooldowns *cooldown.Tracker,
	campaigns CampaignRepository,
	states RuleStateRepository,
	gateway VariantGateway,
	audit AuditRecorder,
	cfg config.EngineConfig,
) *Processor {
	return &Processor{
		locks:     locks,
		cooldowns: cooldowns,
		campaigns: campaigns,
		rules:     NewRuleStateMachine(states),
		gateway:   gateway,
		audit:     audit,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Process consumes one inbound event and returns the aggregated outcome.
// Contention (lock not acquired, cooldown active) and unusable payloads are
// normal short-circuits, not errors; err is non-nil only for unexpected
// failures, which are surfaced for visibility but must not be retried by the
// caller. Webhook redelivery provides retry.
func (p *Processor) Process(ctx context.Context, event domain.InventoryChangeEvent) (outcome domain.ProcessingOutcome, err error) {
	outcome = domain.ProcessingOutcome{MessageID: event.MessageID}

	defer func() {
		if r := recover(); r != nil {
			// Held locks are released by the defers below this one;
			// the pre-emptive cooldown is rolled back the same way.
			logger.Error("processor panic", "message_id", event.MessageID, "panic", fmt.Sprintf("%v", r))
			outcome.Reason = "internal error"
			err = fmt.Errorf("processing event %s: panic: %v", event.MessageID, r)
		}
	}()

	// Step 1: per-message lock. A redelivered event loses here and is
	// acknowledged without work.
	msgLock := distlock.New(p.locks, domain.LockWebhookProcessing, event.MessageID, p.cfg.WebhookLockTTL())
	acquired, lockErr := msgLock.Acquire(ctx)
	if lockErr != nil {
		// Never process without a confirmed lock.
		logger.Warn("webhook lock store unavailable", "message_id", event.MessageID, "error", lockErr.Error())
		outcome.Reason = "lock store unavailable"
		return outcome, nil
	}
	if !acquired {
		outcome.Reason = "already processed"
		return outcome, nil
	}
	defer p.releaseLock(msgLock, "webhook")

	// Step 4 is pulled forward because the refs feed the echo check:
	// kind-specific extraction of affected variant identifiers.
	refs, exErr := extractVariantRefs(event)
	switch exErr {
	case nil:
	case ErrUnsupportedTopic:
		outcome.Reason = "unsupported topic"
		p.recordRun(ctx, event, &outcome, domain.RunSkipped)
		return outcome, nil
	default:
		logger.Warn("payload yielded no usable variant",
			"message_id", event.MessageID, "topic", string(event.Topic))
		outcome.Reason = "extraction failed"
		p.recordRun(ctx, event, &outcome, domain.RunSkipped)
		return outcome, nil
	}

	// Step 2: self-echo check. A product-update whose variant was modified
	// within the echo window is the feedback from our own price write.
	if p.isSelfEcho(event.Topic, refs) {
		outcome.Reason = "self-echo suppressed"
		p.recordRun(ctx, event, &outcome, domain.RunSkipped)
		return outcome, nil
	}

	// Step 3: load active campaigns for the tenant.
	campaigns, cErr := p.campaigns.FindActiveCampaigns(ctx, event.ShopDomain)
	if cErr != nil {
		outcome.Reason = "campaign lookup failed"
		return outcome, fmt.Errorf("loading campaigns for %s: %w", event.ShopDomain, cErr)
	}
	if len(campaigns) == 0 {
		outcome.Reason = "no active campaigns"
		p.recordRun(ctx, event, &outcome, domain.RunSkipped)
		return outcome, nil
	}

	for _, ref := range refs {
		results := p.processVariant(ctx, event, campaigns, ref)
		outcome.Campaigns = append(outcome.Campaigns, results...)
	}

	for _, r := range outcome.Campaigns {
		outcome.Processed++
		switch {
		case r.Updated:
			outcome.Updated++
		case r.Skipped:
			outcome.Skipped++
		default:
			outcome.Failed++
		}
	}
	outcome.Success = outcome.Updated > 0

	status := domain.RunCompleted
	if outcome.Processed == 0 {
		status = domain.RunSkipped
	} else if !outcome.Success && outcome.Failed > 0 {
		status = domain.RunFailed
	}
	p.recordRun(ctx, event, &outcome, status)
	return outcome, nil
}

// processVariant runs steps 5-9 for a single affected variant.
func (p *Processor) processVariant(ctx context.Context, event domain.InventoryChangeEvent, campaigns []domain.Campaign, ref variantRef) []domain.CampaignResult {
	variant, err := p.captureVariant(ctx, event.ShopDomain, ref)
	if err != nil {
		logger.Warn("variant capture failed",
			"message_id", event.MessageID,
			"variant_id", ref.VariantID, "inventory_item_id", ref.InventoryItemID,
			"error", err.Error())
		return nil
	}
	if !variant.InventoryTracked {
		// Untracked inventory is excluded from rule evaluation entirely.
		return nil
	}

	// Step 5: serialize concurrent events about the same variant.
	varLock := distlock.New(p.locks, domain.LockCampaignExecution, variant.ID, p.cfg.CampaignLockTTL())
	acquired, err := varLock.Acquire(ctx)
	if err != nil || !acquired {
		// Contention (or a lock store outage, treated conservatively as
		// contention): terminal for this event, redelivery retries.
		return nil
	}
	defer p.releaseLock(varLock, "campaign")

	// Step 6: an active cooldown means we (or a peer) touched this variant
	// moments ago, including the echo of our own write.
	if p.cooldowns.IsSuppressed(ctx, variant.ID, domain.CooldownPriceUpdate) {
		return nil
	}

	// Step 7: pre-emptive cooldown, set BEFORE any mutation attempt so the
	// echo of our own write cannot slip in as a new event before the
	// cooldown exists. Rolled back below if nothing mutates.
	cooldownSet := true
	if err := p.cooldowns.Set(ctx, variant.ID, domain.CooldownPriceUpdate, p.cfg.VariantCooldown()); err != nil {
		logger.Warn("pre-emptive cooldown set failed", "variant_id", variant.ID, "error", err.Error())
		cooldownSet = false
	}

	snap := domain.VariantSnapshot{
		VariantID:      variant.ID,
		ProductID:      variant.ProductID,
		Inventory:      variant.InventoryQuantity,
		Price:          variant.Price,
		CompareAtPrice: variant.CompareAtPrice,
		CapturedAt:     p.now(),
	}

	// Step 8: evaluate each matching campaign independently; a failure in
	// one campaign must not stop the rest.
	var results []domain.CampaignResult
	anyUpdated := false
	for i := range campaigns {
		campaign := &campaigns[i]
		if !MatchesTargets(campaign.Targets, variant) {
			continue
		}
		res := p.executeCampaign(ctx, event, campaign, variant, &snap)
		if res.Updated {
			anyUpdated = true
		}
		results = append(results, res)
	}

	// Step 9: a cooldown without a mutation behind it would wrongly
	// suppress the next genuine inventory change.
	if !anyUpdated && cooldownSet {
		if err := p.cooldowns.Clear(ctx, variant.ID, domain.CooldownPriceUpdate); err != nil {
			logger.Warn("cooldown rollback failed", "variant_id", variant.ID, "error", err.Error())
		}
	}
	return results
}

// executeCampaign evaluates one campaign's rules against the snapshot and
// applies the winning rule's price action.
func (p *Processor) executeCampaign(ctx context.Context, event domain.InventoryChangeEvent, campaign *domain.Campaign, variant *domain.Variant, snap *domain.VariantSnapshot) domain.CampaignResult {
	res := domain.CampaignResult{CampaignID: campaign.ID, CampaignName: campaign.Name}

	if p.cooldowns.IsSuppressed(ctx, cooldown.CampaignKey(campaign.ID), domain.CooldownCampaignTrigger) {
		res.Skipped = true
		res.SkipReason = "campaign under trigger cooldown"
		return res
	}

	var applicable []RuleMatch
	for _, rule := range campaign.Rules {
		eval := p.rules.Evaluate(ctx, rule, *snap)
		if eval.ShouldExecute {
			applicable = append(applicable, RuleMatch{Rule: rule, Evaluation: eval})
		}
	}
	if len(applicable) == 0 {
		res.Skipped = true
		res.SkipReason = "no rule fired"
		return res
	}

	winner := Prioritize(applicable)[0]
	res.RuleID = winner.Rule.ID

	newPrice := ComputePrice(snap.Price, winner.Rule)
	newCompareAt := ComputeCompareAt(snap.CompareAtPrice, snap.Price, winner.Rule)
	if sameCents(newPrice, snap.Price) && newCompareAt == nil {
		res.Skipped = true
		res.SkipReason = "price unchanged"
		return res
	}

	res.OldPrice = snap.Price
	res.NewPrice = newPrice

	change := &domain.PriceChange{
		ID:              uuid.New().String(),
		ShopDomain:      event.ShopDomain,
		VariantID:       variant.ID,
		ProductID:       variant.ProductID,
		CampaignID:      campaign.ID,
		RuleID:          winner.Rule.ID,
		OldPrice:        snap.Price,
		NewPrice:        newPrice,
		OldCompareAt:    snap.CompareAtPrice,
		NewCompareAt:    newCompareAt,
		Reason:          winner.Evaluation.Reason,
		SourceMessageID: event.MessageID,
		CreatedAt:       p.now(),
	}

	updated, upErr := p.gateway.UpdateVariantPrice(ctx, event.ShopDomain, variant.ProductID, variant.ID, newPrice, newCompareAt)
	switch {
	case upErr != nil:
		res.Error = upErr.Error()
		logger.Error("price update transport failure",
			"campaign_id", campaign.ID, "variant_id", variant.ID, "error", upErr.Error())
	case !updated.Success:
		res.Error = fmt.Sprintf("gateway rejected update: %v", updated.UserErrors)
		logger.Warn("price update rejected",
			"campaign_id", campaign.ID, "variant_id", variant.ID,
			"errors", fmt.Sprintf("%v", updated.UserErrors))
	default:
		res.Updated = true
	}
	change.Success = res.Updated

	if err := p.audit.RecordPriceChange(ctx, change); err != nil {
		// Audit is immaterial to the lock/cooldown protocol; an applied
		// price change is never rolled back over a failed audit write.
		logger.Error("audit record failed", "change_id", change.ID, "error", err.Error())
	}

	if res.Updated {
		// Mutations within one event compound: a later campaign prices
		// from the value the earlier one just wrote.
		snap.Price = newPrice
		if newCompareAt != nil {
			snap.CompareAtPrice = newCompareAt
		}

		if err := p.campaigns.IncrementTriggerCount(ctx, campaign.ID, p.now()); err != nil {
			logger.Warn("trigger counter update failed", "campaign_id", campaign.ID, "error", err.Error())
		}
		if err := p.cooldowns.Set(ctx, cooldown.CampaignKey(campaign.ID), domain.CooldownCampaignTrigger, p.cfg.CampaignCooldown()); err != nil {
			logger.Warn("campaign cooldown set failed", "campaign_id", campaign.ID, "error", err.Error())
		}
	}
	return res
}

// captureVariant resolves the authoritative variant snapshot for a ref.
func (p *Processor) captureVariant(ctx context.Context, shop string, ref variantRef) (*domain.Variant, error) {
	if ref.VariantID != "" {
		return p.gateway.GetVariant(ctx, shop, ref.VariantID)
	}
	if ref.InventoryItemID != "" {
		return p.gateway.GetVariantByInventoryItem(ctx, shop, ref.InventoryItemID)
	}
	return nil, ErrNoVariant
}

// isSelfEcho reports whether the event looks like feedback from the engine's
// own prior price write. Only product topics carry the variant-level
// last-modified timestamp that a price write refreshes; inventory topics
// carry the inventory timestamp, which is recent for every genuine change.
func (p *Processor) isSelfEcho(topic domain.WebhookTopic, refs []variantRef) bool {
	if topic != domain.TopicProductUpdate && topic != domain.TopicProductCreate {
		return false
	}
	window := p.cfg.SelfEchoWindow()
	now := p.now()
	for _, ref := range refs {
		if !ref.UpdatedAt.IsZero() && now.Sub(ref.UpdatedAt) < window {
			return true
		}
	}
	return false
}

func (p *Processor) releaseLock(l *distlock.Lock, kind string) {
	// Release on a fresh context: the request context may already be
	// cancelled on the failure paths, and an unreleased lock would stall
	// the key until the TTL expires.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Release(ctx); err != nil {
		logger.Warn("lock release failed", "kind", kind, "error", err.Error())
	}
}

func (p *Processor) recordRun(ctx context.Context, event domain.InventoryChangeEvent, outcome *domain.ProcessingOutcome, status domain.ProcessingRunStatus) {
	run := &domain.ProcessingRun{
		ID:         uuid.New().String(),
		MessageID:  event.MessageID,
		ShopDomain: event.ShopDomain,
		Topic:      string(event.Topic),
		Status:     status,
		Processed:  outcome.Processed,
		Updated:    outcome.Updated,
		Failed:     outcome.Failed,
		Skipped:    outcome.Skipped,
		Reason:     outcome.Reason,
		CreatedAt:  p.now(),
	}
	if err := p.audit.RecordRun(ctx, run); err != nil {
		logger.Error("run record failed", "message_id", event.MessageID, "error", err.Error())
	}
}
