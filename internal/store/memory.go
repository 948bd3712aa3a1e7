package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vouchify/deals-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
//
// List methods return records newest first, i.e. in reverse insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	deals     map[string]*model.Deal
	dealOrder []string
	bookings  []model.Booking
	merchants map[string]*model.Merchant
	merchOrd  []string
	waitlist  []model.WaitlistEntry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deals:     make(map[string]*model.Deal),
		merchants: make(map[string]*model.Merchant),
	}
}

// --- Deals ---

func (s *MemoryStore) ListActive(_ context.Context) ([]model.Deal, error) {
	return s.listDeals(func(d *model.Deal) bool { return d.IsActive }), nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]model.Deal, error) {
	return s.listDeals(func(*model.Deal) bool { return true }), nil
}

func (s *MemoryStore) ListDealsByMerchant(_ context.Context, merchantID string) ([]model.Deal, error) {
	return s.listDeals(func(d *model.Deal) bool { return d.MerchantID == merchantID }), nil
}

func (s *MemoryStore) listDeals(keep func(*model.Deal) bool) []model.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deals := make([]model.Deal, 0, len(s.dealOrder))
	for i := len(s.dealOrder) - 1; i >= 0; i-- {
		if d := s.deals[s.dealOrder[i]]; keep(d) {
			deals = append(deals, *d)
		}
	}
	return deals
}

func (s *MemoryStore) GetDeal(_ context.Context, id string) (*model.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deals[id]
	if !ok {
		return nil, fmt.Errorf("deal %s: %w", id, ErrNotFound)
	}
	copy := *d
	return &copy, nil
}

func (s *MemoryStore) CreateDeal(_ context.Context, d *model.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deals[d.ID]; exists {
		return fmt.Errorf("deal %s already exists: %w", d.ID, ErrConflict)
	}

	// Store a copy to avoid external mutation.
	copy := *d
	s.deals[d.ID] = &copy
	s.dealOrder = append(s.dealOrder, d.ID)
	return nil
}

func (s *MemoryStore) UpdateDeal(_ context.Context, d *model.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.deals[d.ID]
	if !ok {
		return fmt.Errorf("deal %s: %w", d.ID, ErrNotFound)
	}
	updated := *d
	updated.SoldCount = existing.SoldCount
	updated.CreatedAt = existing.CreatedAt
	s.deals[d.ID] = &updated
	return nil
}

func (s *MemoryStore) SetDealActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok {
		return fmt.Errorf("deal %s: %w", id, ErrNotFound)
	}
	d.IsActive = active
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// --- Bookings ---

func (s *MemoryStore) CreateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[b.DealID]
	if !ok {
		return fmt.Errorf("deal %s: %w", b.DealID, ErrNotFound)
	}
	for _, existing := range s.bookings {
		if existing.VoucherCode == b.VoucherCode {
			return fmt.Errorf("voucher %s already issued: %w", b.VoucherCode, ErrConflict)
		}
	}

	s.bookings = append(s.bookings, *b)
	d.SoldCount += b.Quantity
	return nil
}

func (s *MemoryStore) GetBookingByVoucher(_ context.Context, code string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.VoucherCode == code {
			copy := b
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("voucher %s: %w", code, ErrNotFound)
}

func (s *MemoryStore) ListBookingsByCustomer(_ context.Context, email string) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.Booking{}
	for i := len(s.bookings) - 1; i >= 0; i-- {
		if strings.EqualFold(s.bookings[i].CustomerEmail, email) {
			result = append(result, s.bookings[i])
		}
	}
	return result, nil
}

func (s *MemoryStore) CountCustomerUnits(_ context.Context, dealID, email string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, b := range s.bookings {
		if b.DealID == dealID && strings.EqualFold(b.CustomerEmail, email) {
			total += b.Quantity
		}
	}
	return total, nil
}

func (s *MemoryStore) RedeemBooking(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bookings {
		b := &s.bookings[i]
		if b.ID != id {
			continue
		}
		if b.Status == model.BookingRedeemed {
			return fmt.Errorf("booking %s already redeemed: %w", id, ErrConflict)
		}
		b.Status = model.BookingRedeemed
		b.RedeemedAt = &at
		return nil
	}
	return fmt.Errorf("booking %s: %w", id, ErrNotFound)
}

// --- Merchants ---

func (s *MemoryStore) CreateMerchant(_ context.Context, m *model.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.merchants {
		if strings.EqualFold(existing.Email, m.Email) {
			return fmt.Errorf("merchant with email %s already exists: %w", m.Email, ErrConflict)
		}
	}
	copy := *m
	s.merchants[m.ID] = &copy
	s.merchOrd = append(s.merchOrd, m.ID)
	return nil
}

func (s *MemoryStore) GetMerchant(_ context.Context, id string) (*model.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.merchants[id]
	if !ok {
		return nil, fmt.Errorf("merchant %s: %w", id, ErrNotFound)
	}
	copy := *m
	return &copy, nil
}

func (s *MemoryStore) ListMerchants(_ context.Context, status model.MerchantStatus) ([]model.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Merchant, 0, len(s.merchOrd))
	for i := len(s.merchOrd) - 1; i >= 0; i-- {
		m := s.merchants[s.merchOrd[i]]
		if status == "" || m.Status == status {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (s *MemoryStore) SetMerchantStatus(_ context.Context, id string, status model.MerchantStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[id]
	if !ok {
		return fmt.Errorf("merchant %s: %w", id, ErrNotFound)
	}
	m.Status = status
	return nil
}

// --- Waitlist ---

func (s *MemoryStore) JoinWaitlist(_ context.Context, e *model.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.waitlist {
		if strings.EqualFold(existing.Email, e.Email) {
			return fmt.Errorf("%s already on waitlist: %w", e.Email, ErrConflict)
		}
	}
	s.waitlist = append(s.waitlist, *e)
	return nil
}

func (s *MemoryStore) ListWaitlist(_ context.Context) ([]model.WaitlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.WaitlistEntry, 0, len(s.waitlist))
	for i := len(s.waitlist) - 1; i >= 0; i-- {
		result = append(result, s.waitlist[i])
	}
	return result, nil
}
