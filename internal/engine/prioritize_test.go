package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shopify-repricer/internal/domain"
)

func lowStockRule(id string, op domain.WhenOperator, threshold float64) RuleMatch {
	return RuleMatch{Rule: domain.PricingRule{
		ID:            id,
		WhenCondition: domain.ConditionInventoryLevel,
		WhenOperator:  op,
		WhenValue:     threshold,
	}}
}

func TestPrioritize(t *testing.T) {
	t.Run("smaller threshold wins for less_than", func(t *testing.T) {
		got := Prioritize([]RuleMatch{
			lowStockRule("loose", domain.OpLessThan, 20),
			lowStockRule("tight", domain.OpLessThan, 10),
		})
		require.Len(t, got, 2)
		assert.Equal(t, "tight", got[0].Rule.ID)
	})

	t.Run("larger threshold wins for greater_than", func(t *testing.T) {
		got := Prioritize([]RuleMatch{
			lowStockRule("loose", domain.OpGreaterThan, 50),
			lowStockRule("tight", domain.OpGreaterThan, 100),
		})
		require.Len(t, got, 2)
		assert.Equal(t, "tight", got[0].Rule.ID)
	})

	t.Run("mixed families keep declaration order", func(t *testing.T) {
		got := Prioritize([]RuleMatch{
			lowStockRule("first", domain.OpLessThan, 10),
			lowStockRule("second", domain.OpGreaterThan, 100),
		})
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Rule.ID)
		assert.Equal(t, "second", got[1].Rule.ID)
	})

	t.Run("family members rank across an interleaved rule", func(t *testing.T) {
		got := Prioritize([]RuleMatch{
			lowStockRule("loose", domain.OpLessThan, 5),
			lowStockRule("exact", domain.OpEqual, 2),
			lowStockRule("tight", domain.OpLessThan, 3),
		})
		require.Len(t, got, 3)
		assert.Equal(t, "tight", got[0].Rule.ID)
		assert.Equal(t, "exact", got[1].Rule.ID)
		assert.Equal(t, "loose", got[2].Rule.ID)
	})

	t.Run("both families rank independently when interleaved", func(t *testing.T) {
		got := Prioritize([]RuleMatch{
			lowStockRule("less-loose", domain.OpLessThan, 20),
			lowStockRule("greater-loose", domain.OpGreaterThan, 50),
			lowStockRule("less-tight", domain.OpLessThan, 10),
			lowStockRule("greater-tight", domain.OpGreaterThan, 100),
		})
		require.Len(t, got, 4)
		assert.Equal(t, "less-tight", got[0].Rule.ID)
		assert.Equal(t, "greater-tight", got[1].Rule.ID)
		assert.Equal(t, "less-loose", got[2].Rule.ID)
		assert.Equal(t, "greater-loose", got[3].Rule.ID)
	})

	t.Run("or-equal variants share a family", func(t *testing.T) {
		got := Prioritize([]RuleMatch{
			lowStockRule("loose", domain.OpLessOrEqual, 15),
			lowStockRule("tight", domain.OpLessThan, 5),
		})
		assert.Equal(t, "tight", got[0].Rule.ID)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		in := []RuleMatch{
			lowStockRule("loose", domain.OpLessThan, 20),
			lowStockRule("tight", domain.OpLessThan, 10),
		}
		Prioritize(in)
		assert.Equal(t, "loose", in[0].Rule.ID)
	})
}
