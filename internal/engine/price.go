package engine

import (
	"math"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// ComputePrice applies a rule's action to the current price. The result is
// floored at 0 and rounded to 2 decimal places.
func ComputePrice(current float64, rule domain.PricingRule) float64 {
	var out float64
	switch rule.ThenAction {
	case domain.ActionIncrease:
		if rule.ThenMode == domain.ModePercentage {
			out = current * (1 + rule.ThenValue/100)
		} else {
			out = current + rule.ThenValue
		}
	case domain.ActionDecrease:
		if rule.ThenMode == domain.ModePercentage {
			out = current * (1 - rule.ThenValue/100)
		} else {
			out = current - rule.ThenValue
		}
	case domain.ActionSet:
		if rule.ThenMode == domain.ModePercentage {
			out = current * (rule.ThenValue / 100)
		} else {
			out = rule.ThenValue
		}
	default:
		out = current
	}

	if out < 0 {
		out = 0
	}
	return round2(out)
}

// ComputeCompareAt applies the rule's formula to the compare-at price when
// the rule requests it. The base is the existing compare-at value, or the
// pre-change price if no compare-at value exists. Returns nil when the rule
// leaves compare-at untouched.
func ComputeCompareAt(compareAt *float64, prePrice float64, rule domain.PricingRule) *float64 {
	if !rule.AdjustCompareAt {
		return nil
	}
	base := prePrice
	if compareAt != nil {
		base = *compareAt
	}
	v := ComputePrice(base, rule)
	return &v
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// sameCents reports whether two prices agree once reduced to whole cents,
// so representation drift below a cent never counts as a change.
func sameCents(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}
