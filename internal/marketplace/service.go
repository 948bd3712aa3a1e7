// Package marketplace provides the HTTP handlers and business logic behind
// the Vouchify front end: browsing and pricing deals, merchant deal
// management, checkout and voucher redemption, merchant onboarding, the
// launch waitlist and the admin back office.
//
// All monetary values use shopspring/decimal, never float64.
package marketplace

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/vouchify/deals-engine/internal/limits"
	"github.com/vouchify/deals-engine/internal/logx"
	"github.com/vouchify/deals-engine/internal/middlewarex"
	"github.com/vouchify/deals-engine/internal/store"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary         //nolint:gochecknoglobals // skip
	validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip
)

// Service handles marketplace operations. Checkouts are serialized with a
// mutex so the per-customer limit check and the booking insert see the
// same state (single-instance). For horizontal scaling, move the limit
// check into the booking transaction.
type Service struct {
	store   store.Store
	limiter *limits.PurchaseLimiter
	wsHub   *WSHub // optional WebSocket hub for live deal updates
	mu      sync.Mutex
	now     func() time.Time
}

// NewService creates a new marketplace service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *limits.PurchaseLimiter, hub *WSHub) *Service {
	if limiter == nil {
		limiter = limits.NewPurchaseLimiter(0, 0)
	}
	return &Service{
		store:   st,
		limiter: limiter,
		wsHub:   hub,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes mounts every handler under r. Callers add /api/v1.
func (s *Service) RegisterRoutes(r chi.Router) {
	if s.wsHub != nil {
		r.Get("/ws", s.wsHub.HandleWS)
	}

	// Customer-facing deal browsing.
	r.Get("/deals", s.ListDeals)
	r.Post("/deals/price-preview", s.PricePreview)
	r.Get("/deals/{dealID}", s.GetDeal)
	r.Patch("/deals/{dealID}", s.UpdateDeal)

	// Checkout and vouchers.
	r.Post("/checkout", s.Checkout)
	r.Get("/customers/{email}/bookings", s.ListCustomerBookings)
	r.Post("/vouchers/{code}/redeem", s.RedeemVoucher)

	// Merchant portal.
	r.Post("/merchants", s.OnboardMerchant)
	r.Get("/merchants/{merchantID}", s.GetMerchant)
	r.Get("/merchants/{merchantID}/deals", s.ListMerchantDeals)
	r.Post("/merchants/{merchantID}/deals", s.CreateDeal)

	// Waitlist.
	r.Post("/waitlist", s.JoinWaitlist)

	// Admin back office.
	r.Route("/admin", func(r chi.Router) {
		r.Get("/deals", s.AdminListDeals)
		r.Put("/deals/{dealID}/active", s.AdminSetDealActive)
		r.Get("/merchants", s.AdminListMerchants)
		r.Put("/merchants/{merchantID}/status", s.AdminSetMerchantStatus)
		r.Get("/waitlist", s.AdminListWaitlist)
	})
}

// decode reads a JSON body into dest and runs struct validation on it.
func decode(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return errInvalidBody
	}
	if err := validate.StructCtx(r.Context(), dest); err != nil {
		return &validationError{err: err}
	}
	return nil
}

var errInvalidBody = errors.New("invalid request body")

// validationError carries the validator's message to the client as a 400.
type validationError struct{ err error }

func (e *validationError) Error() string { return e.err.Error() }
func (e *validationError) Unwrap() error { return e.err }

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var ve *validationError
	switch {
	case errors.Is(err, errInvalidBody), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, limits.ErrPerOrderLimitExceeded),
		errors.Is(err, limits.ErrPerCustomerLimitExceeded):
		return http.StatusConflict
	case errors.Is(err, limits.ErrInvalidQuantity):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// traceID is the X-Trace-Id assigned by middlewarex.TraceID, if any.
func traceID(r *http.Request) string {
	return middlewarex.TraceIDFrom(r.Context())
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErr writes err with the status statusFor picks. Internal errors
// are logged with the request's trace ID and not echoed to the client.
func writeErr(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(internalMsg, "trace_id", traceID(r), logx.Err(err))
		writeError(w, internalMsg, status)
		return
	}
	writeError(w, err.Error(), status)
}
