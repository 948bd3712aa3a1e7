package draft

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/deals-engine/internal/model"
)

func apply(t *testing.T, d Draft, changes ...Change) Draft {
	t.Helper()
	out, err := ApplyChanges(d, changes)
	require.NoError(t, err)
	return out
}

func discounted() []Change {
	return []Change{
		{FieldTitle, "Weekend brunch"},
		{FieldCategory, "Food & Drink"},
		{FieldMerchantName, "Terra Kulture"},
		{FieldListingType, string(model.DiscountedOffer)},
		{FieldBasePrice, "10,000"},
		{FieldDiscountKind, string(model.Percentage)},
		{FieldDiscountValue, "20"},
	}
}

func TestApplyFieldChange_DoesNotMutateInput(t *testing.T) {
	original := Draft{Title: "old"}

	next, err := ApplyFieldChange(original, FieldTitle, "new")
	require.NoError(t, err)

	assert.Equal(t, "old", original.Title)
	assert.Equal(t, "new", next.Title)
}

func TestApplyFieldChange_NonNumericBecomesAbsent(t *testing.T) {
	d := apply(t, Draft{}, Change{FieldBasePrice, "5000"})
	require.True(t, d.BasePrice.Valid)

	d = apply(t, d, Change{FieldBasePrice, "five thousand"})
	assert.False(t, d.BasePrice.Valid)

	d = apply(t, d, Change{FieldDiscountValue, ""})
	assert.False(t, d.DiscountValue.Valid)
}

func TestApplyFieldChange_Errors(t *testing.T) {
	d := Draft{Title: "keep"}

	got, err := ApplyFieldChange(d, Field("price"), "1")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, d, got)

	_, err = ApplyFieldChange(d, FieldListingType, "Auction")
	assert.ErrorIs(t, err, ErrInvalidListingType)

	_, err = ApplyFieldChange(d, FieldDiscountKind, "BOGO")
	assert.ErrorIs(t, err, ErrInvalidDiscountKind)
}

func TestApplyChanges_StopsAtFirstError(t *testing.T) {
	d, err := ApplyChanges(Draft{}, []Change{
		{FieldTitle, "first"},
		{Field("nope"), "x"},
		{FieldCategory, "never applied"},
	})
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, "first", d.Title)
	assert.Empty(t, d.Category)
}

func TestDerivedPrice_RecomputedOnEveryPricingChange(t *testing.T) {
	d := apply(t, Draft{}, discounted()...)
	assert.True(t, d.DerivedPrice().Decimal.Equal(decimal.NewFromInt(8000)))

	d = apply(t, d, Change{FieldDiscountKind, string(model.FixedAmount)}, Change{FieldDiscountValue, "1500"})
	assert.True(t, d.DerivedPrice().Decimal.Equal(decimal.NewFromInt(8500)))

	d = apply(t, d, Change{FieldBasePrice, "12000"})
	assert.True(t, d.DerivedPrice().Decimal.Equal(decimal.NewFromInt(10500)))

	d = apply(t, d, Change{FieldListingType, string(model.FullPrice)})
	assert.True(t, d.DerivedPrice().Decimal.Equal(decimal.NewFromInt(12000)))
}

func TestDerivedPrice_AbsentWithoutBasePrice(t *testing.T) {
	d := apply(t, Draft{}, Change{FieldListingType, string(model.LoyaltyProgram)})
	assert.False(t, d.DerivedPrice().Valid)
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(apply(t, Draft{}, discounted()...)))

	loyalty := apply(t, Draft{},
		Change{FieldTitle, "Coffee card"},
		Change{FieldCategory, "Food & Drink"},
		Change{FieldListingType, string(model.LoyaltyProgram)},
		Change{FieldLoyaltyDetails, "10th cup free"},
	)
	assert.NoError(t, Validate(loyalty))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	err := Validate(Draft{ListingType: model.DiscountedOffer})
	require.Error(t, err)

	for _, want := range []error{
		ErrTitleRequired,
		ErrCategoryRequired,
		ErrBasePriceRequired,
		ErrDiscountKindRequired,
		ErrDiscountValueRequired,
	} {
		assert.True(t, errors.Is(err, want), "expected %v in %v", want, err)
	}
}

func TestValidate_DiscountRange(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.DiscountKind
		value   string
		wantErr bool
	}{
		{"percent at 100", model.Percentage, "100", false},
		{"percent over 100", model.Percentage, "100.5", true},
		{"negative percent", model.Percentage, "-5", true},
		{"fixed equal to base", model.FixedAmount, "10000", false},
		{"fixed over base", model.FixedAmount, "10001", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := apply(t, Draft{}, discounted()...)
			d = apply(t, d, Change{FieldDiscountKind, string(tt.kind)}, Change{FieldDiscountValue, tt.value})

			err := Validate(d)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDiscountOutOfRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_LoyaltyNeedsDetails(t *testing.T) {
	d := Draft{Title: "t", Category: "c", ListingType: model.LoyaltyProgram}
	assert.ErrorIs(t, Validate(d), ErrLoyaltyDetailsMissing)
}

func TestDeal_DropsIrrelevantFields(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	d := apply(t, Draft{}, discounted()...)
	d = apply(t, d, Change{FieldLoyaltyDetails, "stale"})

	deal := d.Deal("deal-1", "merchant-1", now)
	assert.Equal(t, "20%", deal.Discount)
	assert.Empty(t, deal.LoyaltyDetails)
	assert.True(t, deal.DerivedPrice.Decimal.Equal(decimal.NewFromInt(8000)))
	assert.Equal(t, now, deal.CreatedAt)

	d = apply(t, d, Change{FieldListingType, string(model.FullPrice)})
	deal = d.Deal("deal-1", "merchant-1", now)
	assert.Empty(t, deal.Discount)
	assert.Empty(t, deal.DiscountKind)
	assert.False(t, deal.DiscountValue.Valid)
	assert.True(t, deal.DerivedPrice.Decimal.Equal(decimal.NewFromInt(10000)))
}

func TestFromDeal_RoundTrip(t *testing.T) {
	d := apply(t, Draft{}, discounted()...)
	back := FromDeal(d.Deal("id", "m", time.Now()))
	assert.Equal(t, d.Title, back.Title)
	assert.Equal(t, d.ListingType, back.ListingType)
	assert.True(t, d.DerivedPrice().Decimal.Equal(back.DerivedPrice().Decimal))
}
