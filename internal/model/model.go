// Package model defines the core domain types shared across the deals engine.
// All monetary values use shopspring/decimal, never float64.
// Optional amounts are decimal.NullDecimal so "absent" survives JSON and SQL.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingType controls which pricing fields of a Deal are meaningful.
type ListingType string

const (
	FullPrice       ListingType = "FullPrice"
	LoyaltyProgram  ListingType = "LoyaltyProgram"
	DiscountedOffer ListingType = "DiscountedOffer"
)

// Valid reports whether t is one of the known listing types.
func (t ListingType) Valid() bool {
	switch t {
	case FullPrice, LoyaltyProgram, DiscountedOffer:
		return true
	}
	return false
}

// DiscountKind says how DiscountValue is read on a DiscountedOffer.
type DiscountKind string

const (
	Percentage  DiscountKind = "Percentage"
	FixedAmount DiscountKind = "FixedAmount"
)

// Valid reports whether k is one of the known discount kinds.
func (k DiscountKind) Valid() bool {
	return k == Percentage || k == FixedAmount
}

// Deal is a merchant-created listing. DerivedPrice is always computed from
// (ListingType, BasePrice, DiscountKind, DiscountValue) and never taken from
// user input.
type Deal struct {
	ID             string              `json:"id" db:"id"`
	MerchantID     string              `json:"merchant_id" db:"merchant_id"`
	Title          string              `json:"title" db:"title"`
	Description    string              `json:"description,omitempty" db:"description"`
	Category       string              `json:"category" db:"category"`
	MerchantName   string              `json:"merchant_name" db:"merchant_name"`
	ImageURL       string              `json:"image_url,omitempty" db:"image_url"`
	ListingType    ListingType         `json:"listing_type" db:"listing_type"`
	BasePrice      decimal.NullDecimal `json:"base_price" db:"base_price"`
	DiscountKind   DiscountKind        `json:"discount_kind,omitempty" db:"discount_kind"`
	DiscountValue  decimal.NullDecimal `json:"discount_value" db:"discount_value"`
	Discount       string              `json:"discount,omitempty" db:"discount"` // display form, e.g. "50%" or "₦2,000"
	DerivedPrice   decimal.NullDecimal `json:"derived_price" db:"derived_price"`
	LoyaltyDetails string              `json:"loyalty_details,omitempty" db:"loyalty_details"`
	SoldCount      int64               `json:"sold_count" db:"sold_count"`
	IsActive       bool                `json:"is_active" db:"is_active"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" db:"updated_at"`
}

// Booking statuses.
const (
	BookingConfirmed = "confirmed"
	BookingRedeemed  = "redeemed"
)

// Booking is a customer's purchase of one or more units of a deal.
// The voucher code is what the customer presents to the merchant.
type Booking struct {
	ID            string          `json:"id" db:"id"`
	DealID        string          `json:"deal_id" db:"deal_id"`
	CustomerName  string          `json:"customer_name" db:"customer_name"`
	CustomerEmail string          `json:"customer_email" db:"customer_email"`
	Quantity      int64           `json:"quantity" db:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	Total         decimal.Decimal `json:"total" db:"total"`
	VoucherCode   string          `json:"voucher_code" db:"voucher_code"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	RedeemedAt    *time.Time      `json:"redeemed_at,omitempty" db:"redeemed_at"`
}

// MerchantStatus is the admin review state of a merchant application.
type MerchantStatus string

const (
	MerchantPending  MerchantStatus = "pending"
	MerchantApproved MerchantStatus = "approved"
	MerchantRejected MerchantStatus = "rejected"
)

// Valid reports whether s is one of the known review states.
func (s MerchantStatus) Valid() bool {
	switch s {
	case MerchantPending, MerchantApproved, MerchantRejected:
		return true
	}
	return false
}

// Merchant is a business onboarded through the merchant portal.
type Merchant struct {
	ID           string         `json:"id" db:"id"`
	BusinessName string         `json:"business_name" db:"business_name"`
	ContactName  string         `json:"contact_name" db:"contact_name"`
	Email        string         `json:"email" db:"email"`
	Phone        string         `json:"phone" db:"phone"`
	Category     string         `json:"category" db:"category"`
	Address      string         `json:"address" db:"address"`
	City         string         `json:"city" db:"city"`
	Status       MerchantStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// WaitlistEntry is a pre-launch sign-up from a customer or merchant.
type WaitlistEntry struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"` // "customer" or "merchant"
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
