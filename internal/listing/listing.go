// Package listing filters and orders already-fetched deals for display.
//
// FilterAndSort is pure and total: it never mutates its input and never
// fails. Restricting to active deals happens where deals are fetched
// (store.DealRepository.ListActive), not here.
package listing

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vouchify/deals-engine/internal/model"
	"github.com/vouchify/deals-engine/internal/pricing"
)

// SortKey selects the display order.
type SortKey string

const (
	SortPopular   SortKey = "popular"
	SortDiscount  SortKey = "discount"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "all"

// ParseSortKey maps a query-string value to a SortKey. Unknown values fall
// back to SortPopular.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortPopular, SortDiscount, SortPriceLow, SortPriceHigh:
		return k
	}
	return SortPopular
}

// Params are the user-chosen filter and sort criteria.
type Params struct {
	SearchQuery string
	Category    string
	SortKey     SortKey

	// MissingPriceFirstWhenDescending flips where unpriced deals land under
	// SortPriceHigh. By default they sink to the bottom for both price
	// sorts; with this set they rise to the top when sorting descending.
	MissingPriceFirstWhenDescending bool
}

// FilterAndSort returns the deals matching p, in display order. The result
// is always a new slice, empty (not nil) when nothing matches.
func FilterAndSort(deals []model.Deal, p Params) []model.Deal {
	query := strings.ToLower(strings.TrimSpace(p.SearchQuery))

	out := lo.Filter(deals, func(d model.Deal, _ int) bool {
		return matchesQuery(d, query) && matchesCategory(d, p.Category)
	})
	if out == nil {
		out = []model.Deal{}
	}

	slices.SortStableFunc(out, comparator(p))
	return out
}

func matchesQuery(d model.Deal, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Title), query) ||
		strings.Contains(strings.ToLower(d.MerchantName), query) ||
		strings.Contains(strings.ToLower(d.Category), query)
}

func matchesCategory(d model.Deal, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return d.Category == category
}

func comparator(p Params) func(a, b model.Deal) int {
	switch ParseSortKey(string(p.SortKey)) {
	case SortDiscount:
		return func(a, b model.Deal) int {
			return DiscountMagnitude(b).Cmp(DiscountMagnitude(a))
		}
	case SortPriceLow:
		return func(a, b model.Deal) int {
			return comparePrice(a.DerivedPrice, b.DerivedPrice, false)
		}
	case SortPriceHigh:
		missingFirst := p.MissingPriceFirstWhenDescending
		return func(a, b model.Deal) int {
			if missingFirst && (!a.DerivedPrice.Valid || !b.DerivedPrice.Valid) {
				return -comparePrice(a.DerivedPrice, b.DerivedPrice, false)
			}
			return comparePrice(a.DerivedPrice, b.DerivedPrice, true)
		}
	default:
		return func(a, b model.Deal) int {
			switch {
			case a.SoldCount > b.SoldCount:
				return -1
			case a.SoldCount < b.SoldCount:
				return 1
			}
			return 0
		}
	}
}

// comparePrice orders two optional prices. An absent price always compares
// greater than a present one, whatever the direction.
func comparePrice(a, b decimal.NullDecimal, descending bool) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	if descending {
		return b.Decimal.Cmp(a.Decimal)
	}
	return a.Decimal.Cmp(b.Decimal)
}

// DiscountMagnitude is the sort weight of a deal's discount. The stored
// display string wins when present; otherwise the discount value of a
// discounted offer is used. No discount → 0.
func DiscountMagnitude(d model.Deal) decimal.Decimal {
	if d.Discount != "" {
		return pricing.DiscountMagnitude(d.Discount)
	}
	if d.ListingType == model.DiscountedOffer && d.DiscountValue.Valid {
		return d.DiscountValue.Decimal
	}
	return decimal.Zero
}
