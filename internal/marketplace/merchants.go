package marketplace

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vouchify/deals-engine/internal/metrics"
	"github.com/vouchify/deals-engine/internal/model"
)

// OnboardMerchantRequest is the merchant onboarding form, submitted once
// the wizard's last step is done.
type OnboardMerchantRequest struct {
	BusinessName string `json:"business_name" validate:"required,max=120"`
	ContactName  string `json:"contact_name" validate:"required,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,min=7,max=20"`
	Category     string `json:"category" validate:"required"`
	Address      string `json:"address" validate:"max=250"`
	City         string `json:"city" validate:"max=80"`
}

// JoinWaitlistRequest is the JSON body for POST /waitlist.
type JoinWaitlistRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=120"`
	Role  string `json:"role" validate:"required,oneof=customer merchant"`
}

// OnboardMerchant handles POST /api/v1/merchants
// New merchants start pending until an admin approves them.
func (s *Service) OnboardMerchant(w http.ResponseWriter, r *http.Request) {
	var req OnboardMerchantRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	m := &model.Merchant{
		ID:           uuid.New().String(),
		BusinessName: strings.TrimSpace(req.BusinessName),
		ContactName:  strings.TrimSpace(req.ContactName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		Category:     req.Category,
		Address:      req.Address,
		City:         req.City,
		Status:       model.MerchantPending,
		CreatedAt:    s.now(),
	}

	if err := s.store.CreateMerchant(r.Context(), m); err != nil {
		writeErr(w, r, err, "failed to create merchant")
		return
	}

	slog.Info("merchant onboarded", "trace_id", traceID(r), "id", m.ID, "business", m.BusinessName, "category", m.Category)
	writeJSON(w, http.StatusCreated, m)
}

// GetMerchant handles GET /api/v1/merchants/{merchantID}
func (s *Service) GetMerchant(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMerchant(r.Context(), chi.URLParam(r, "merchantID"))
	if err != nil {
		writeErr(w, r, err, "failed to load merchant")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// JoinWaitlist handles POST /api/v1/waitlist
func (s *Service) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req JoinWaitlistRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, err, "invalid request")
		return
	}

	entry := &model.WaitlistEntry{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Name:      strings.TrimSpace(req.Name),
		Role:      req.Role,
		CreatedAt: s.now(),
	}
	if err := s.store.JoinWaitlist(r.Context(), entry); err != nil {
		writeErr(w, r, err, "failed to join waitlist")
		return
	}

	metrics.WaitlistSignups.WithLabelValues(entry.Role).Inc()
	slog.Info("waitlist joined", "trace_id", traceID(r), "role", entry.Role)
	writeJSON(w, http.StatusCreated, entry)
}
