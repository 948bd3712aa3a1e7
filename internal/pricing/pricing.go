// Package pricing implements the deal pricing rules: deriving the price a
// customer pays from a deal's listing type, base price and discount.
//
// Everything here is pure and stateless. Missing or malformed numeric input
// degrades to zero; nothing in this package returns an error. Range checks
// on discounts belong to the caller (see package draft).
//
// All monetary values use shopspring/decimal, never float64.
// No rounding is applied; presentation layers round for display.
package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vouchify/deals-engine/internal/model"
)

// CurrencySymbol prefixes fixed-amount discount labels.
const CurrencySymbol = "₦"

var hundred = decimal.NewFromInt(100)

// ComputeDerivedPrice returns the customer-facing price.
//
//	FullPrice, LoyaltyProgram:   basePrice
//	DiscountedOffer, Percentage: basePrice - (basePrice * discountValue / 100)
//	DiscountedOffer, FixedAmount: basePrice - discountValue
//
// An absent basePrice or discountValue counts as 0. The result is not
// clamped, so an oversized discount yields a negative price.
func ComputeDerivedPrice(
	listingType model.ListingType,
	basePrice decimal.NullDecimal,
	discountKind model.DiscountKind,
	discountValue decimal.NullDecimal,
) decimal.Decimal {
	base := orZero(basePrice)

	if listingType != model.DiscountedOffer {
		return base
	}

	value := orZero(discountValue)
	switch discountKind {
	case model.Percentage:
		return base.Sub(base.Mul(value).Div(hundred))
	case model.FixedAmount:
		return base.Sub(value)
	}
	return base
}

// Savings returns how much the customer saves against the base price.
// Zero when either side is absent.
func Savings(basePrice, derivedPrice decimal.NullDecimal) decimal.Decimal {
	if !basePrice.Valid || !derivedPrice.Valid {
		return decimal.Zero
	}
	return basePrice.Decimal.Sub(derivedPrice.Decimal)
}

// numberRegex matches the first number in a display string, allowing
// thousands separators: "₦2,000" → "2,000", "50%" → "50".
var numberRegex = regexp.MustCompile(`[0-9][0-9,]*(\.[0-9]+)?`)

// DiscountMagnitude parses the numeric magnitude out of a discount display
// string. The unit is ignored: "50%" → 50, "₦2,000" → 2000. Empty or
// unparsable input → 0.
func DiscountMagnitude(display string) decimal.Decimal {
	match := numberRegex.FindString(display)
	if match == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// DiscountLabel renders a discount for display and for the legacy
// "discount" column: "20%" or "₦1,500". Empty for an absent value or an
// unknown kind.
func DiscountLabel(kind model.DiscountKind, value decimal.NullDecimal) string {
	if !value.Valid {
		return ""
	}
	switch kind {
	case model.Percentage:
		return value.Decimal.String() + "%"
	case model.FixedAmount:
		return CurrencySymbol + groupThousands(value.Decimal.String())
	}
	return ""
}

// FormatNaira renders an amount as "₦12,500.50" without rounding.
func FormatNaira(amount decimal.Decimal) string {
	return CurrencySymbol + groupThousands(amount.String())
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// groupThousands inserts commas into the integer part of a plain decimal
// string ("-1234567.5" → "-1,234,567.5").
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
