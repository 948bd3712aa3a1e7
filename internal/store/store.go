// Package store defines the persistence interfaces for the deals engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/vouchify/deals-engine/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write collides with existing state:
	// a duplicate key, or a booking already redeemed.
	ErrConflict = errors.New("store: conflict")
)

// DealRepository persists deals.
type DealRepository interface {
	// ListActive returns deals with IsActive set, newest first.
	ListActive(ctx context.Context) ([]model.Deal, error)

	// ListAll returns every deal, newest first. Admin only.
	ListAll(ctx context.Context) ([]model.Deal, error)

	// ListDealsByMerchant returns a merchant's deals, newest first.
	ListDealsByMerchant(ctx context.Context, merchantID string) ([]model.Deal, error)

	GetDeal(ctx context.Context, id string) (*model.Deal, error)
	CreateDeal(ctx context.Context, deal *model.Deal) error

	// UpdateDeal overwrites the editable fields of a deal. SoldCount and
	// CreatedAt are left untouched.
	UpdateDeal(ctx context.Context, deal *model.Deal) error

	SetDealActive(ctx context.Context, id string, active bool) error
}

// BookingRepository persists checkouts.
type BookingRepository interface {
	// CreateBooking records a booking and adds its quantity to the deal's
	// SoldCount in one step.
	CreateBooking(ctx context.Context, booking *model.Booking) error

	GetBookingByVoucher(ctx context.Context, code string) (*model.Booking, error)
	ListBookingsByCustomer(ctx context.Context, email string) ([]model.Booking, error)

	// CountCustomerUnits sums the quantity a customer has booked of a deal.
	CountCustomerUnits(ctx context.Context, dealID, email string) (int64, error)

	// RedeemBooking marks a confirmed booking redeemed. ErrConflict if it
	// was already redeemed.
	RedeemBooking(ctx context.Context, id string, at time.Time) error
}

// MerchantRepository persists merchant applications.
type MerchantRepository interface {
	CreateMerchant(ctx context.Context, m *model.Merchant) error
	GetMerchant(ctx context.Context, id string) (*model.Merchant, error)

	// ListMerchants returns merchants, newest first. An empty status
	// returns all of them.
	ListMerchants(ctx context.Context, status model.MerchantStatus) ([]model.Merchant, error)

	SetMerchantStatus(ctx context.Context, id string, status model.MerchantStatus) error
}

// WaitlistRepository persists pre-launch sign-ups.
type WaitlistRepository interface {
	// JoinWaitlist adds an entry. ErrConflict if the email already joined.
	JoinWaitlist(ctx context.Context, entry *model.WaitlistEntry) error
	ListWaitlist(ctx context.Context) ([]model.WaitlistEntry, error)
}

// Store is the full persistence interface. PostgreSQL is the source of
// truth; Redis provides a read-through cache layer.
type Store interface {
	DealRepository
	BookingRepository
	MerchantRepository
	WaitlistRepository
}
