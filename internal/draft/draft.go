// Package draft models a deal being composed across the merchant wizard as
// an immutable value plus a pure reducer. The derived price is a selector
// over the draft, never a stored input.
package draft

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vouchify/deals-engine/internal/model"
	"github.com/vouchify/deals-engine/internal/pricing"
)

// Field names a draft attribute editable through ApplyFieldChange.
type Field string

const (
	FieldTitle          Field = "title"
	FieldDescription    Field = "description"
	FieldCategory       Field = "category"
	FieldMerchantName   Field = "merchant_name"
	FieldImageURL       Field = "image_url"
	FieldListingType    Field = "listing_type"
	FieldBasePrice      Field = "base_price"
	FieldDiscountKind   Field = "discount_kind"
	FieldDiscountValue  Field = "discount_value"
	FieldLoyaltyDetails Field = "loyalty_details"
)

var (
	ErrUnknownField          = errors.New("draft: unknown field")
	ErrInvalidListingType    = errors.New("draft: invalid listing type")
	ErrInvalidDiscountKind   = errors.New("draft: invalid discount kind")
	ErrTitleRequired         = errors.New("draft: title is required")
	ErrCategoryRequired      = errors.New("draft: category is required")
	ErrListingTypeRequired   = errors.New("draft: listing type is required")
	ErrBasePriceRequired     = errors.New("draft: base price is required")
	ErrNegativeBasePrice     = errors.New("draft: base price must not be negative")
	ErrDiscountKindRequired  = errors.New("draft: discount kind is required")
	ErrDiscountValueRequired = errors.New("draft: discount value is required")
	ErrDiscountOutOfRange    = errors.New("draft: discount value out of range")
	ErrLoyaltyDetailsMissing = errors.New("draft: loyalty details are required")
)

// Draft is the in-progress state of a deal. It is passed and returned by
// value; ApplyFieldChange never modifies its argument.
type Draft struct {
	Title          string
	Description    string
	Category       string
	MerchantName   string
	ImageURL       string
	ListingType    model.ListingType
	BasePrice      decimal.NullDecimal
	DiscountKind   model.DiscountKind
	DiscountValue  decimal.NullDecimal
	LoyaltyDetails string
}

// Change is one field edit, as sent by the wizard.
type Change struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// ApplyFieldChange returns a copy of d with field set to value. Numeric
// fields that are empty or not numbers become absent. On error the
// original draft is returned.
func ApplyFieldChange(d Draft, field Field, value string) (Draft, error) {
	next := d
	switch field {
	case FieldTitle:
		next.Title = strings.TrimSpace(value)
	case FieldDescription:
		next.Description = strings.TrimSpace(value)
	case FieldCategory:
		next.Category = strings.TrimSpace(value)
	case FieldMerchantName:
		next.MerchantName = strings.TrimSpace(value)
	case FieldImageURL:
		next.ImageURL = strings.TrimSpace(value)
	case FieldLoyaltyDetails:
		next.LoyaltyDetails = strings.TrimSpace(value)
	case FieldListingType:
		lt := model.ListingType(strings.TrimSpace(value))
		if lt != "" && !lt.Valid() {
			return d, fmt.Errorf("%w: %q", ErrInvalidListingType, value)
		}
		next.ListingType = lt
	case FieldDiscountKind:
		k := model.DiscountKind(strings.TrimSpace(value))
		if k != "" && !k.Valid() {
			return d, fmt.Errorf("%w: %q", ErrInvalidDiscountKind, value)
		}
		next.DiscountKind = k
	case FieldBasePrice:
		next.BasePrice = parseAmount(value)
	case FieldDiscountValue:
		next.DiscountValue = parseAmount(value)
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return next, nil
}

// ApplyChanges folds changes into d in order, stopping at the first error.
func ApplyChanges(d Draft, changes []Change) (Draft, error) {
	for _, c := range changes {
		var err error
		if d, err = ApplyFieldChange(d, c.Field, c.Value); err != nil {
			return d, err
		}
	}
	return d, nil
}

// DerivedPrice is the customer price for the draft as it stands. It is
// absent exactly when the draft has no base price.
func (d Draft) DerivedPrice() decimal.NullDecimal {
	if !d.BasePrice.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(
		pricing.ComputeDerivedPrice(d.ListingType, d.BasePrice, d.DiscountKind, d.DiscountValue),
	)
}

// Validate is the submit gate. It reports every problem at once, joined.
// The pricing engine itself never rejects input; this is where a draft
// that would produce a nonsensical price is stopped.
func Validate(d Draft) error {
	var errs []error

	if d.Title == "" {
		errs = append(errs, ErrTitleRequired)
	}
	if d.Category == "" {
		errs = append(errs, ErrCategoryRequired)
	}
	if d.BasePrice.Valid && d.BasePrice.Decimal.IsNegative() {
		errs = append(errs, ErrNegativeBasePrice)
	}

	switch d.ListingType {
	case "":
		errs = append(errs, ErrListingTypeRequired)
	case model.FullPrice:
		if !d.BasePrice.Valid {
			errs = append(errs, ErrBasePriceRequired)
		}
	case model.LoyaltyProgram:
		if d.LoyaltyDetails == "" {
			errs = append(errs, ErrLoyaltyDetailsMissing)
		}
	case model.DiscountedOffer:
		if !d.BasePrice.Valid {
			errs = append(errs, ErrBasePriceRequired)
		}
		errs = append(errs, validateDiscount(d)...)
	}

	return errors.Join(errs...)
}

func validateDiscount(d Draft) []error {
	var errs []error
	if d.DiscountKind == "" {
		errs = append(errs, ErrDiscountKindRequired)
	}
	if !d.DiscountValue.Valid {
		return append(errs, ErrDiscountValueRequired)
	}

	v := d.DiscountValue.Decimal
	if v.IsNegative() {
		return append(errs, fmt.Errorf("%w: %s is negative", ErrDiscountOutOfRange, v))
	}
	switch d.DiscountKind {
	case model.Percentage:
		if v.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, fmt.Errorf("%w: %s%% exceeds 100%%", ErrDiscountOutOfRange, v))
		}
	case model.FixedAmount:
		if d.BasePrice.Valid && v.GreaterThan(d.BasePrice.Decimal) {
			errs = append(errs, fmt.Errorf("%w: %s exceeds base price %s",
				ErrDiscountOutOfRange, v, d.BasePrice.Decimal))
		}
	}
	return errs
}

// Deal converts the draft to a persistable record. Fields that do not
// apply to the listing type are dropped, and the derived price and
// discount label are filled in.
func (d Draft) Deal(id, merchantID string, now time.Time) model.Deal {
	deal := model.Deal{
		ID:           id,
		MerchantID:   merchantID,
		Title:        d.Title,
		Description:  d.Description,
		Category:     d.Category,
		MerchantName: d.MerchantName,
		ImageURL:     d.ImageURL,
		ListingType:  d.ListingType,
		BasePrice:    d.BasePrice,
		DerivedPrice: d.DerivedPrice(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch d.ListingType {
	case model.DiscountedOffer:
		deal.DiscountKind = d.DiscountKind
		deal.DiscountValue = d.DiscountValue
		deal.Discount = pricing.DiscountLabel(d.DiscountKind, d.DiscountValue)
	case model.LoyaltyProgram:
		deal.LoyaltyDetails = d.LoyaltyDetails
	}
	return deal
}

// FromDeal rebuilds a draft from a stored deal, for editing.
func FromDeal(deal model.Deal) Draft {
	return Draft{
		Title:          deal.Title,
		Description:    deal.Description,
		Category:       deal.Category,
		MerchantName:   deal.MerchantName,
		ImageURL:       deal.ImageURL,
		ListingType:    deal.ListingType,
		BasePrice:      deal.BasePrice,
		DiscountKind:   deal.DiscountKind,
		DiscountValue:  deal.DiscountValue,
		LoyaltyDetails: deal.LoyaltyDetails,
	}
}

func parseAmount(s string) decimal.NullDecimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v)
}
