package engine

import (
	"github.com/ignite/shopify-repricer/internal/domain"
)

// MatchesTargets reports whether a variant falls inside a campaign's target
// criteria. Lists are matched by union: the variant matches if it appears in
// ANY configured list. Criteria with no lists set match everything.
func MatchesTargets(t domain.TargetCriteria, v *domain.Variant) bool {
	if t.Empty() {
		return true
	}
	if containsString(t.ProductIDs, v.ProductID) {
		return true
	}
	for _, id := range v.CollectionIDs {
		if containsString(t.CollectionIDs, id) {
			return true
		}
	}
	for _, tag := range v.ProductTags {
		if containsString(t.Tags, tag) {
			return true
		}
	}
	if v.ProductVendor != "" && containsString(t.Vendors, v.ProductVendor) {
		return true
	}
	if v.ProductType != "" && containsString(t.ProductTypes, v.ProductType) {
		return true
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
