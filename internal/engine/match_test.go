package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/shopify-repricer/internal/domain"
)

func TestMatchesTargets(t *testing.T) {
	variant := &domain.Variant{
		ID:            "v1",
		ProductID:     "p1",
		ProductTags:   []string{"summer", "sale"},
		ProductVendor: "Acme",
		ProductType:   "Shirt",
		CollectionIDs: []string{"c1", "c2"},
	}

	tests := []struct {
		name    string
		targets domain.TargetCriteria
		want    bool
	}{
		{"empty criteria match everything", domain.TargetCriteria{}, true},
		{"product id match", domain.TargetCriteria{ProductIDs: []string{"p1"}}, true},
		{"product id miss", domain.TargetCriteria{ProductIDs: []string{"p2"}}, false},
		{"collection match", domain.TargetCriteria{CollectionIDs: []string{"c2"}}, true},
		{"tag match", domain.TargetCriteria{Tags: []string{"sale"}}, true},
		{"vendor match", domain.TargetCriteria{Vendors: []string{"Acme"}}, true},
		{"type match", domain.TargetCriteria{ProductTypes: []string{"Shirt"}}, true},
		{"union across lists", domain.TargetCriteria{ProductIDs: []string{"p9"}, Tags: []string{"summer"}}, true},
		{"all lists miss", domain.TargetCriteria{ProductIDs: []string{"p9"}, Tags: []string{"winter"}, Vendors: []string{"Other"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesTargets(tt.targets, variant))
		})
	}
}
