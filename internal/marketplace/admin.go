package marketplace

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vouchify/deals-engine/internal/model"
)

// SetActiveRequest is the JSON body for PUT /admin/deals/{dealID}/active.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SetMerchantStatusRequest is the JSON body for PUT /admin/merchants/{merchantID}/status.
type SetMerchantStatusRequest struct {
	Status model.MerchantStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// AdminListDeals handles GET /api/v1/admin/deals
// Every deal, active or not, newest first.
func (s *Service) AdminListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.store.ListAll(r.Context())
	if err != nil {
		writeErr(w, r, err, "failed to list deals")
		return
	}
	if deals == nil {
		deals = []model.Deal{}
	}
	writeJSON(w, http.StatusOK, deals)
}

// AdminSetDealActive handles PUT /api/v1/admin/deals/{dealID}/active
func (s *Service) AdminSetDealActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	ctx := r.Context()
	dealID := chi.URLParam(r, "dealID")
	if err := s.store.SetDealActive(ctx, dealID, *req.Active); err != nil {
		writeErr(w, r, err, "failed to update deal")
		return
	}

	deal, err := s.store.GetDeal(ctx, dealID)
	if err != nil {
		writeErr(w, r, err, "failed to load deal")
		return
	}

	slog.Info("deal visibility changed", "trace_id", traceID(r), "id", dealID, "active", deal.IsActive)
	s.broadcastDeal(EventDealUpdated, deal)
	writeJSON(w, http.StatusOK, deal)
}

// AdminListMerchants handles GET /api/v1/admin/merchants?status=
func (s *Service) AdminListMerchants(w http.ResponseWriter, r *http.Request) {
	status := model.MerchantStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, "unknown merchant status: "+string(status), http.StatusBadRequest)
		return
	}

	merchants, err := s.store.ListMerchants(r.Context(), status)
	if err != nil {
		writeErr(w, r, err, "failed to list merchants")
		return
	}
	if merchants == nil {
		merchants = []model.Merchant{}
	}
	writeJSON(w, http.StatusOK, merchants)
}

// AdminSetMerchantStatus handles PUT /api/v1/admin/merchants/{merchantID}/status
func (s *Service) AdminSetMerchantStatus(w http.ResponseWriter, r *http.Request) {
	var req SetMerchantStatusRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	ctx := r.Context()
	merchantID := chi.URLParam(r, "merchantID")
	if err := s.store.SetMerchantStatus(ctx, merchantID, req.Status); err != nil {
		writeErr(w, r, err, "failed to update merchant")
		return
	}

	m, err := s.store.GetMerchant(ctx, merchantID)
	if err != nil {
		writeErr(w, r, err, "failed to load merchant")
		return
	}

	slog.Info("merchant reviewed", "trace_id", traceID(r), "id", merchantID, "status", m.Status)
	writeJSON(w, http.StatusOK, m)
}

// AdminListWaitlist handles GET /api/v1/admin/waitlist
func (s *Service) AdminListWaitlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListWaitlist(r.Context())
	if err != nil {
		writeErr(w, r, err, "failed to list waitlist")
		return
	}
	if entries == nil {
		entries = []model.WaitlistEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
