// Package engine implements the catalog query semantics as a pure function
// over an in-memory product set. Both the HTTP listing path and the
// Elasticsearch fallback go through it, so there is exactly one place that
// decides what a filter or sort means.
package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/petalroad/storefront-service/internal/model"
)

// CategoryAll is the sentinel category value that disables the category
// predicate.
const CategoryAll = "All"

const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNewest    = "newest"
	SortFeatured  = "featured"
)

// Request describes one catalog query. All supplied predicates are
// AND-combined. Unknown sort or price-range values degrade to no-ops rather
// than erroring.
type Request struct {
	Category   string
	PriceRange string
	Search     string
	FlowerType string
	Featured   *bool
	Sort       string
	Limit      int
}

var (
	price25  = decimal.NewFromInt(25)
	price50  = decimal.NewFromInt(50)
	price100 = decimal.NewFromInt(100)
)

// Query filters, sorts and truncates products per req. The input slice is
// not modified; equal-key items keep their input order across repeated
// calls.
func Query(products []model.Product, req Request) []model.Product {
	out := make([]model.Product, 0, len(products))
	for i := range products {
		if matches(&products[i], req) {
			out = append(out, products[i])
		}
	}

	sortProducts(out, req.Sort)

	// Truncation happens strictly after filter+sort; truncating earlier
	// would bias which items survive.
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out
}

func matches(p *model.Product, req Request) bool {
	if req.Category != "" && req.Category != CategoryAll && p.Category != req.Category {
		return false
	}
	if req.Featured != nil && p.IsFeatured != *req.Featured {
		return false
	}
	if !matchesPriceRange(p.EffectivePrice(), req.PriceRange) {
		return false
	}
	if req.Search != "" && !matchesText(p, req.Search) {
		return false
	}
	if req.FlowerType != "" && !matchesText(p, req.FlowerType) {
		return false
	}
	return true
}

func matchesPriceRange(price decimal.Decimal, bucket string) bool {
	switch bucket {
	case "under-25":
		return price.LessThan(price25)
	case "25-50":
		return price.GreaterThanOrEqual(price25) && price.LessThanOrEqual(price50)
	case "50-100":
		return price.GreaterThanOrEqual(price50) && price.LessThanOrEqual(price100)
	case "over-100":
		return price.GreaterThan(price100)
	default:
		// Unknown buckets (and "") are harmless: no filter.
		return true
	}
}

func matchesText(p *model.Product, term string) bool {
	needle := strings.ToLower(term)
	haystack := strings.ToLower(p.Name + " " + p.Description + " " + strings.Join(p.Features, " "))
	return strings.Contains(haystack, needle)
}

func sortProducts(products []model.Product, order string) {
	switch order {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].EffectivePrice().LessThan(products[j].EffectivePrice())
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].EffectivePrice().GreaterThan(products[j].EffectivePrice())
		})
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].IsNew && !products[j].IsNew
		})
	case SortFeatured, "":
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].IsFeatured != products[j].IsFeatured {
				return products[i].IsFeatured
			}
			return products[i].EffectivePrice().LessThan(products[j].EffectivePrice())
		})
	default:
		// Unknown sort value: leave input order untouched.
	}
}
