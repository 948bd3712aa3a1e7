package marketplace

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vouchify/deals-engine/internal/limits"
	"github.com/vouchify/deals-engine/internal/metrics"
	"github.com/vouchify/deals-engine/internal/model"
	"github.com/vouchify/deals-engine/internal/pricing"
	"github.com/vouchify/deals-engine/internal/store"
	"github.com/vouchify/deals-engine/internal/voucher"
)

// CheckoutRequest is the JSON body for POST /checkout.
type CheckoutRequest struct {
	DealID        string `json:"deal_id" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	Quantity      int64  `json:"quantity" validate:"gte=1"`
}

// CheckoutResponse is the JSON body returned from POST /checkout.
type CheckoutResponse struct {
	Booking        model.Booking `json:"booking"`
	DealTitle      string        `json:"deal_title"`
	FormattedTotal string        `json:"formatted_total"`
}

// Checkout handles POST /api/v1/checkout
// Books units of an active deal at its derived price and issues a voucher.
// Loyalty programs without a price book at zero.
func (s *Service) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	ctx := r.Context()

	// Serialize checkout so the limit check and insert agree.
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, err := s.store.GetDeal(ctx, req.DealID)
	if err != nil {
		writeErr(w, r, err, "failed to load deal")
		return
	}
	if !deal.IsActive {
		metrics.CheckoutRejections.WithLabelValues("inactive").Inc()
		writeError(w, "deal is not available", http.StatusConflict)
		return
	}

	unitPrice := decimal.Zero
	if deal.DerivedPrice.Valid {
		unitPrice = deal.DerivedPrice.Decimal
	}
	if unitPrice.IsNegative() {
		metrics.CheckoutRejections.WithLabelValues("invalid_price").Inc()
		slog.Error("deal has a negative derived price", "trace_id", traceID(r), "deal", deal.ID, "price", unitPrice.String())
		writeError(w, "deal price is invalid", http.StatusConflict)
		return
	}

	bought, err := s.store.CountCustomerUnits(ctx, deal.ID, req.CustomerEmail)
	if err != nil {
		writeErr(w, r, err, "failed to check purchase limits")
		return
	}
	if err := s.limiter.CheckLimit(bought, req.Quantity); err != nil {
		reason := "per_customer"
		if errors.Is(err, limits.ErrPerOrderLimitExceeded) {
			reason = "per_order"
		}
		metrics.CheckoutRejections.WithLabelValues(reason).Inc()
		writeErr(w, r, err, "failed to check purchase limits")
		return
	}

	booking := model.Booking{
		ID:            uuid.New().String(),
		DealID:        deal.ID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Quantity:      req.Quantity,
		UnitPrice:     unitPrice,
		Total:         unitPrice.Mul(decimal.NewFromInt(req.Quantity)),
		VoucherCode:   voucher.Generate(deal.ID),
		Status:        model.BookingConfirmed,
		CreatedAt:     s.now(),
	}

	if err := s.store.CreateBooking(ctx, &booking); err != nil {
		writeErr(w, r, err, "failed to record booking")
		return
	}

	metrics.BookingsTotal.WithLabelValues(string(deal.ListingType)).Inc()
	metrics.BookedUnits.Add(float64(booking.Quantity))
	slog.Info("booking created", "trace_id", traceID(r),
		"booking_id", booking.ID,
		"deal", deal.ID,
		"qty", booking.Quantity,
		"unit_price", unitPrice.String(),
		"total", booking.Total.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:       EventBookingCreated,
			DealID:     deal.ID,
			MerchantID: deal.MerchantID,
			SoldCount:  deal.SoldCount + booking.Quantity,
			Quantity:   booking.Quantity,
			IsActive:   deal.IsActive,
		})
	}

	writeJSON(w, http.StatusCreated, CheckoutResponse{
		Booking:        booking,
		DealTitle:      deal.Title,
		FormattedTotal: pricing.FormatNaira(booking.Total),
	})
}

// ListCustomerBookings handles GET /api/v1/customers/{email}/bookings
func (s *Service) ListCustomerBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.store.ListBookingsByCustomer(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeErr(w, r, err, "failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// RedeemVoucher handles POST /api/v1/vouchers/{code}/redeem
// A voucher redeems once; a second attempt is a conflict.
func (s *Service) RedeemVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := voucher.Parse(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	booking, err := s.store.GetBookingByVoucher(ctx, v.Code)
	if err != nil {
		writeErr(w, r, err, "failed to load voucher")
		return
	}
	if !v.MatchesDeal(booking.DealID) {
		// A stored code whose reference disagrees with its deal is corrupt.
		writeError(w, "voucher not found", http.StatusNotFound)
		return
	}

	at := s.now()
	if err := s.store.RedeemBooking(ctx, booking.ID, at); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, "voucher already redeemed", http.StatusConflict)
			return
		}
		writeErr(w, r, err, "failed to redeem voucher")
		return
	}

	booking.Status = model.BookingRedeemed
	booking.RedeemedAt = &at

	metrics.VouchersRedeemed.Inc()
	slog.Info("voucher redeemed", "trace_id", traceID(r), "code", v.Code, "booking_id", booking.ID, "deal", booking.DealID)

	writeJSON(w, http.StatusOK, booking)
}
