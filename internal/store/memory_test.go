package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/deals-engine/internal/model"
	"github.com/vouchify/deals-engine/internal/store"
)

func seedDeal(t *testing.T, ms *store.MemoryStore, id string, active bool) {
	t.Helper()
	require.NoError(t, ms.CreateDeal(context.Background(), &model.Deal{
		ID:           id,
		MerchantID:   "m1",
		Title:        "deal " + id,
		ListingType:  model.FullPrice,
		BasePrice:    decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		DerivedPrice: decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		IsActive:     active,
	}))
}

func TestMemoryStore_ListActiveNewestFirst(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDeal(t, ms, "a", true)
	seedDeal(t, ms, "b", false)
	seedDeal(t, ms, "c", true)

	active, err := ms.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "c", active[0].ID)
	assert.Equal(t, "a", active[1].ID)

	all, err := ms.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_DuplicateAndMissingDeal(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDeal(t, ms, "a", true)

	err := ms.CreateDeal(context.Background(), &model.Deal{ID: "a"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = ms.GetDeal(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, ms.SetDealActive(context.Background(), "missing", true), store.ErrNotFound)
}

func TestMemoryStore_UpdateKeepsSoldCount(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	seedDeal(t, ms, "a", true)

	require.NoError(t, ms.CreateBooking(ctx, &model.Booking{
		ID: "b1", DealID: "a", CustomerEmail: "ada@example.com", Quantity: 3,
		VoucherCode: "VCH-00000000-00000001", Status: model.BookingConfirmed,
	}))

	d, err := ms.GetDeal(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 3, d.SoldCount)

	d.Title = "renamed"
	d.SoldCount = 0
	require.NoError(t, ms.UpdateDeal(ctx, d))

	d, err = ms.GetDeal(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", d.Title)
	assert.EqualValues(t, 3, d.SoldCount)
}

func TestMemoryStore_Bookings(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	seedDeal(t, ms, "a", true)

	book := func(id, email, code string, qty int64) error {
		return ms.CreateBooking(ctx, &model.Booking{
			ID: id, DealID: "a", CustomerEmail: email, Quantity: qty,
			VoucherCode: code, Status: model.BookingConfirmed,
		})
	}
	require.NoError(t, book("b1", "ada@example.com", "VCH-00000000-00000001", 2))
	require.NoError(t, book("b2", "ADA@example.com", "VCH-00000000-00000002", 1))
	assert.ErrorIs(t, book("b3", "tunde@example.com", "VCH-00000000-00000002", 1), store.ErrConflict)

	units, err := ms.CountCustomerUnits(ctx, "a", "ada@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 3, units)

	list, err := ms.ListBookingsByCustomer(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b2", list[0].ID)

	at := time.Now().UTC()
	require.NoError(t, ms.RedeemBooking(ctx, "b1", at))
	assert.ErrorIs(t, ms.RedeemBooking(ctx, "b1", at), store.ErrConflict)
	assert.ErrorIs(t, ms.RedeemBooking(ctx, "nope", at), store.ErrNotFound)

	b, err := ms.GetBookingByVoucher(ctx, "VCH-00000000-00000001")
	require.NoError(t, err)
	assert.Equal(t, model.BookingRedeemed, b.Status)
	require.NotNil(t, b.RedeemedAt)
}

func TestMemoryStore_MerchantsAndWaitlist(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()

	require.NoError(t, ms.CreateMerchant(ctx, &model.Merchant{ID: "m1", Email: "a@x.ng", Status: model.MerchantPending}))
	require.NoError(t, ms.CreateMerchant(ctx, &model.Merchant{ID: "m2", Email: "b@x.ng", Status: model.MerchantPending}))
	assert.ErrorIs(t, ms.CreateMerchant(ctx, &model.Merchant{ID: "m3", Email: "A@x.ng"}), store.ErrConflict)

	require.NoError(t, ms.SetMerchantStatus(ctx, "m1", model.MerchantApproved))
	approved, err := ms.ListMerchants(ctx, model.MerchantApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "m1", approved[0].ID)

	all, err := ms.ListMerchants(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, ms.JoinWaitlist(ctx, &model.WaitlistEntry{ID: "w1", Email: "x@y.ng", Role: "customer"}))
	assert.ErrorIs(t, ms.JoinWaitlist(ctx, &model.WaitlistEntry{ID: "w2", Email: "X@y.ng", Role: "merchant"}), store.ErrConflict)

	entries, err := ms.ListWaitlist(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
