package engine

import (
	"sort"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// RuleMatch is a rule whose condition fired for the current snapshot,
// paired with its evaluation.
type RuleMatch struct {
	Rule       domain.PricingRule
	Evaluation RuleEvaluation
}

// conditionFamily groups operators whose thresholds are comparable for
// specificity ordering.
func conditionFamily(op domain.WhenOperator) int {
	switch op {
	case domain.OpLessThan, domain.OpLessOrEqual:
		return familyLess
	case domain.OpGreaterThan, domain.OpGreaterOrEqual:
		return familyGreater
	default:
		return familyOther
	}
}

const (
	familyLess = iota
	familyGreater
	familyOther
)

// Prioritize orders applicable rules so the most specific wins. Within the
// "less than" family the smaller threshold has priority (it implies a more
// urgent state); within the "greater than" family the larger threshold wins.
// Each family is ranked among its own members only, and the ranked members
// go back into the slots that family occupied, so rules of different
// families keep their campaign declaration order even when interleaved.
// Only the first rule's action is applied per event per campaign; rules are
// not cumulative.
func Prioritize(applicable []RuleMatch) []RuleMatch {
	out := make([]RuleMatch, len(applicable))
	copy(out, applicable)

	rankFamily(out, familyLess, func(a, b domain.PricingRule) bool { return a.WhenValue < b.WhenValue })
	rankFamily(out, familyGreater, func(a, b domain.PricingRule) bool { return a.WhenValue > b.WhenValue })
	return out
}

// rankFamily reorders one condition family's members among themselves,
// leaving every other rule in its declaration slot.
func rankFamily(matches []RuleMatch, family int, less func(a, b domain.PricingRule) bool) {
	slots := make([]int, 0, len(matches))
	for i, m := range matches {
		if conditionFamily(m.Rule.WhenOperator) == family {
			slots = append(slots, i)
		}
	}
	if len(slots) < 2 {
		return
	}

	members := make([]RuleMatch, len(slots))
	for k, i := range slots {
		members[k] = matches[i]
	}
	sort.SliceStable(members, func(a, b int) bool { return less(members[a].Rule, members[b].Rule) })
	for k, i := range slots {
		matches[i] = members[k]
	}
}
