package marketplace

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vouchify/deals-engine/internal/draft"
	"github.com/vouchify/deals-engine/internal/listing"
	"github.com/vouchify/deals-engine/internal/metrics"
	"github.com/vouchify/deals-engine/internal/model"
	"github.com/vouchify/deals-engine/internal/pricing"
)

// --- Request/Response types ---

// DraftRequest carries the wizard's field edits, applied in order.
type DraftRequest struct {
	Changes []draft.Change `json:"changes"`
}

// CreateDealRequest is the JSON body for deal creation.
type CreateDealRequest struct {
	Changes []draft.Change `json:"changes" validate:"required,min=1"`
	Publish bool           `json:"publish"` // list immediately instead of saving inactive
}

// UpdateDealRequest is the JSON body for PATCH /deals/{dealID}.
type UpdateDealRequest struct {
	Changes []draft.Change `json:"changes" validate:"required,min=1"`
}

// PricePreviewResponse is what the wizard shows next to the price inputs.
type PricePreviewResponse struct {
	DerivedPrice   decimal.NullDecimal `json:"derived_price"`
	FormattedPrice string              `json:"formatted_price,omitempty"`
	Savings        decimal.Decimal     `json:"savings"`
	DiscountLabel  string              `json:"discount_label,omitempty"`
	Problems       []string            `json:"problems,omitempty"` // submit-gate issues, informational here
}

// InvalidDealResponse lists every reason a draft was refused.
type InvalidDealResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// --- HTTP Handlers ---

// ListDeals handles GET /api/v1/deals?q=&category=&sort=
// Returns active deals only, filtered and ordered for display.
func (s *Service) ListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.store.ListActive(r.Context())
	if err != nil {
		writeErr(w, r, err, "failed to list deals")
		return
	}

	q := r.URL.Query()
	missingFirst, _ := strconv.ParseBool(q.Get("missing_price_first"))
	params := listing.Params{
		SearchQuery:                     q.Get("q"),
		Category:                        q.Get("category"),
		SortKey:                         listing.ParseSortKey(q.Get("sort")),
		MissingPriceFirstWhenDescending: missingFirst,
	}

	writeJSON(w, http.StatusOK, listing.FilterAndSort(deals, params))
}

// GetDeal handles GET /api/v1/deals/{dealID}
func (s *Service) GetDeal(w http.ResponseWriter, r *http.Request) {
	deal, err := s.store.GetDeal(r.Context(), chi.URLParam(r, "dealID"))
	if err != nil {
		writeErr(w, r, err, "failed to load deal")
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// PricePreview handles POST /api/v1/deals/price-preview
// Applies the changes to an empty draft and reports the derived price.
// Validation problems are returned alongside rather than as an error, so
// the wizard can show a live price while the form is incomplete.
func (s *Service) PricePreview(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	d, err := draft.ApplyChanges(draft.Draft{}, req.Changes)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	derived := d.DerivedPrice()
	resp := PricePreviewResponse{
		DerivedPrice: derived,
		Savings:      pricing.Savings(d.BasePrice, derived),
		Problems:     details(draft.Validate(d)),
	}
	if derived.Valid {
		resp.FormattedPrice = pricing.FormatNaira(derived.Decimal)
	}
	if d.ListingType == model.DiscountedOffer {
		resp.DiscountLabel = pricing.DiscountLabel(d.DiscountKind, d.DiscountValue)
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateDeal handles POST /api/v1/merchants/{merchantID}/deals
// The merchant must be approved. Any derived price sent by the client is
// ignored; it is always recomputed from the draft.
func (s *Service) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req CreateDealRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	ctx := r.Context()
	merchantID := chi.URLParam(r, "merchantID")
	merchant, err := s.store.GetMerchant(ctx, merchantID)
	if err != nil {
		writeErr(w, r, err, "failed to load merchant")
		return
	}
	if merchant.Status != model.MerchantApproved {
		writeError(w, "merchant is not approved to list deals", http.StatusConflict)
		return
	}

	d, err := draft.ApplyChanges(draft.Draft{MerchantName: merchant.BusinessName}, req.Changes)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := draft.Validate(d); err != nil {
		writeInvalidDeal(w, err)
		return
	}

	deal := d.Deal(uuid.New().String(), merchant.ID, s.now())
	deal.IsActive = req.Publish

	if err := s.store.CreateDeal(ctx, &deal); err != nil {
		writeErr(w, r, err, "failed to create deal")
		return
	}

	metrics.DealsCreated.WithLabelValues(string(deal.ListingType)).Inc()
	slog.Info("deal created", "trace_id", traceID(r),
		"id", deal.ID,
		"merchant", merchant.ID,
		"listing_type", deal.ListingType,
		"derived_price", deal.DerivedPrice.Decimal.String(),
		"active", deal.IsActive,
	)
	s.broadcastDeal(EventDealCreated, &deal)

	writeJSON(w, http.StatusCreated, deal)
}

// UpdateDeal handles PATCH /api/v1/deals/{dealID}
// Rebuilds the draft from the stored deal, applies the edits, re-validates
// and recomputes the derived price before saving.
func (s *Service) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	var req UpdateDealRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	ctx := r.Context()
	existing, err := s.store.GetDeal(ctx, chi.URLParam(r, "dealID"))
	if err != nil {
		writeErr(w, r, err, "failed to load deal")
		return
	}

	d, err := draft.ApplyChanges(draft.FromDeal(*existing), req.Changes)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := draft.Validate(d); err != nil {
		writeInvalidDeal(w, err)
		return
	}

	updated := d.Deal(existing.ID, existing.MerchantID, existing.CreatedAt)
	updated.SoldCount = existing.SoldCount
	updated.IsActive = existing.IsActive
	updated.UpdatedAt = s.now()

	if err := s.store.UpdateDeal(ctx, &updated); err != nil {
		writeErr(w, r, err, "failed to update deal")
		return
	}

	metrics.DealsUpdated.Inc()
	slog.Info("deal updated", "trace_id", traceID(r),
		"id", updated.ID,
		"changes", len(req.Changes),
		"derived_price", updated.DerivedPrice.Decimal.String(),
	)
	s.broadcastDeal(EventDealUpdated, &updated)

	writeJSON(w, http.StatusOK, updated)
}

// ListMerchantDeals handles GET /api/v1/merchants/{merchantID}/deals
// Includes inactive deals, for the merchant dashboard.
func (s *Service) ListMerchantDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.store.ListDealsByMerchant(r.Context(), chi.URLParam(r, "merchantID"))
	if err != nil {
		writeErr(w, r, err, "failed to list merchant deals")
		return
	}
	if deals == nil {
		deals = []model.Deal{}
	}
	writeJSON(w, http.StatusOK, deals)
}

func (s *Service) broadcastDeal(eventType string, d *model.Deal) {
	if s.wsHub == nil {
		return
	}
	msg := WSMessage{
		Type:       eventType,
		DealID:     d.ID,
		MerchantID: d.MerchantID,
		SoldCount:  d.SoldCount,
		IsActive:   d.IsActive,
	}
	if d.DerivedPrice.Valid {
		msg.DerivedPrice = d.DerivedPrice.Decimal.String()
	}
	s.wsHub.Broadcast(msg)
}

func writeInvalidDeal(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, InvalidDealResponse{
		Error:   "invalid deal",
		Details: details(err),
	})
}

// details flattens a joined error into its messages.
func details(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		msgs := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
