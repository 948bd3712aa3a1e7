// Package limits caps how many units of a deal a customer can buy, per
// order and in total across orders.
package limits

import "errors"

var (
	// ErrInvalidQuantity is returned for a requested quantity below one.
	ErrInvalidQuantity = errors.New("limits: quantity must be at least 1")

	// ErrPerOrderLimitExceeded is returned when a single checkout asks for
	// more units than one order may hold.
	ErrPerOrderLimitExceeded = errors.New("limits: per-order unit limit exceeded")

	// ErrPerCustomerLimitExceeded is returned when a checkout would take a
	// customer's lifetime units of one deal beyond the cap.
	ErrPerCustomerLimitExceeded = errors.New("limits: per-customer unit limit exceeded")
)

// PurchaseLimiter enforces unit caps at checkout. A zero cap disables
// that check.
type PurchaseLimiter struct {
	// MaxPerOrder is the most units a single checkout may request.
	MaxPerOrder int64

	// MaxPerCustomer is the most units one customer may hold of one deal,
	// summed over all their bookings.
	MaxPerCustomer int64
}

// NewPurchaseLimiter creates a limiter. Negative caps are treated as zero.
func NewPurchaseLimiter(maxPerOrder, maxPerCustomer int64) *PurchaseLimiter {
	return &PurchaseLimiter{
		MaxPerOrder:    max(maxPerOrder, 0),
		MaxPerCustomer: max(maxPerCustomer, 0),
	}
}

// CheckLimit validates a checkout of requested units by a customer who
// already holds alreadyBought units of the same deal. Quantities near
// MaxInt64 are rejected, never wrapped.
func (l *PurchaseLimiter) CheckLimit(alreadyBought, requested int64) error {
	if requested < 1 {
		return ErrInvalidQuantity
	}
	if l.MaxPerOrder > 0 && requested > l.MaxPerOrder {
		return ErrPerOrderLimitExceeded
	}
	if l.MaxPerCustomer > 0 && requested > l.MaxPerCustomer-alreadyBought {
		return ErrPerCustomerLimitExceeded
	}
	return nil
}
