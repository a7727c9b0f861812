package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/pkg/logger"
)

// RuleEvaluation is the outcome of evaluating one rule against a variant
// snapshot. Degraded marks the stateless fallback path taken when the state
// store is unavailable: availability over exactness, at the cost of possible
// duplicate triggers on sustained conditions.
type RuleEvaluation struct {
	ShouldExecute bool
	Reason        string
	Degraded      bool
	NewState      domain.RuleExecutionState
}

// RuleStateMachine evaluates rules with threshold-crossing detection backed
// by persisted per-(campaign, rule, variant) state.
type RuleStateMachine struct {
	states RuleStateRepository
	now    func() time.Time
}

// NewRuleStateMachine creates a state machine over the given repository.
func NewRuleStateMachine(states RuleStateRepository) *RuleStateMachine {
	return &RuleStateMachine{states: states, now: time.Now}
}

// Evaluate decides whether a rule fires for the captured snapshot.
//
// A rule fires only when its condition is NEWLY true: true now, and either
// no prior state exists or the condition was false on the previously
// captured inventory. A rule whose condition stays continuously true does
// not re-fire; it re-arms only after the condition goes false again.
//
// The snapshot always becomes the new state's last* fields, whatever the
// outcome, so the next evaluation compares against the freshest observation.
func (m *RuleStateMachine) Evaluate(ctx context.Context, rule domain.PricingRule, snap domain.VariantSnapshot) RuleEvaluation {
	condNow := rule.Matches(snap.Inventory)

	prev, err := m.states.Get(ctx, rule.CampaignID, rule.ID, snap.VariantID)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		// State store unavailable: degrade to a stateless level check
		// instead of failing the whole event. This path can re-fire on
		// sustained conditions.
		return m.fallback(rule, snap, condNow, err)
	}

	now := m.now()
	next := domain.RuleExecutionState{
		CampaignID: rule.CampaignID,
		RuleID:     rule.ID,
		VariantID:  snap.VariantID,
		State:      domain.RuleInactive,
	}
	if prev != nil {
		next = *prev
	}
	next.LastInventory = snap.Inventory
	next.LastPrice = snap.Price
	next.UpdatedAt = now

	var fire bool
	var reason string
	switch {
	case condNow && prev == nil:
		fire = true
		reason = fmt.Sprintf("threshold crossed: inventory %d %s %v (first evaluation)",
			snap.Inventory, rule.WhenOperator, rule.WhenValue)

	case condNow && !rule.Matches(prev.LastInventory):
		fire = true
		reason = fmt.Sprintf("threshold crossed: inventory %d %s %v (was %d)",
			snap.Inventory, rule.WhenOperator, rule.WhenValue, prev.LastInventory)

	case condNow:
		reason = fmt.Sprintf("condition still true (inventory %d), awaiting reset", snap.Inventory)

	default:
		reason = fmt.Sprintf("condition false (inventory %d)", snap.Inventory)
	}

	if fire {
		next.State = domain.RuleTriggered
		next.TriggerCount++
		next.TriggeredAt = &now
	} else if !condNow {
		switch next.State {
		case domain.RuleTriggered, domain.RuleCoolingDown:
			next.State = domain.RuleResetPending
		default:
			next.State = domain.RuleInactive
		}
	}

	if err := m.states.Save(ctx, &next); err != nil {
		// The decision stands; losing the write means the next
		// evaluation compares against a stale observation.
		logger.Warn("rule state save failed",
			"campaign_id", rule.CampaignID, "rule_id", rule.ID,
			"variant_id", snap.VariantID, "error", err.Error())
	}

	return RuleEvaluation{ShouldExecute: fire, Reason: reason, NewState: next}
}

func (m *RuleStateMachine) fallback(rule domain.PricingRule, snap domain.VariantSnapshot, condNow bool, cause error) RuleEvaluation {
	logger.Warn("rule state lookup failed, using stateless level check",
		"campaign_id", rule.CampaignID, "rule_id", rule.ID,
		"variant_id", snap.VariantID, "error", cause.Error())

	now := m.now()
	state := domain.RuleInactive
	if condNow {
		state = domain.RuleTriggered
	}
	return RuleEvaluation{
		ShouldExecute: condNow,
		Degraded:      true,
		Reason: fmt.Sprintf("FALLBACK: stateless level check, inventory %d %s %v = %t",
			snap.Inventory, rule.WhenOperator, rule.WhenValue, condNow),
		NewState: domain.RuleExecutionState{
			CampaignID:    rule.CampaignID,
			RuleID:        rule.ID,
			VariantID:     snap.VariantID,
			State:         state,
			LastInventory: snap.Inventory,
			LastPrice:     snap.Price,
			UpdatedAt:     now,
		},
	}
}
