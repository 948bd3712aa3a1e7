package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vouchify/deals-engine/internal/logx"
	"github.com/vouchify/deals-engine/internal/model"
)

const activeDealsKey = "deals:active"

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the customer-facing deal reads. Writes go to the primary store
// and invalidate the cache; reads check Redis first then fall back to the
// primary. Everything else passes straight through to the embedded Store.
type CachedStore struct {
	Store
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store: primary,
		rdb:   rdb,
		ttl:   ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateDeal(ctx context.Context, d *model.Deal) error {
	if err := s.Store.CreateDeal(ctx, d); err != nil {
		return err
	}
	s.invalidate(ctx, activeDealsKey)
	return nil
}

func (s *CachedStore) UpdateDeal(ctx context.Context, d *model.Deal) error {
	if err := s.Store.UpdateDeal(ctx, d); err != nil {
		return err
	}
	s.invalidate(ctx, dealKey(d.ID), activeDealsKey)
	return nil
}

func (s *CachedStore) SetDealActive(ctx context.Context, id string, active bool) error {
	if err := s.Store.SetDealActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidate(ctx, dealKey(id), activeDealsKey)
	return nil
}

// CreateBooking changes the deal's sold count, so the cached deal and the
// active list are both stale afterwards.
func (s *CachedStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	if err := s.Store.CreateBooking(ctx, b); err != nil {
		return err
	}
	s.invalidate(ctx, dealKey(b.DealID), activeDealsKey)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetDeal(ctx context.Context, id string) (*model.Deal, error) {
	data, err := s.rdb.Get(ctx, dealKey(id)).Bytes()
	if err == nil {
		var d model.Deal
		if json.Unmarshal(data, &d) == nil {
			return &d, nil
		}
	}

	// Cache miss: read from primary.
	d, err := s.Store.GetDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(ctx, dealKey(id), d)
	return d, nil
}

func (s *CachedStore) ListActive(ctx context.Context) ([]model.Deal, error) {
	data, err := s.rdb.Get(ctx, activeDealsKey).Bytes()
	if err == nil {
		var deals []model.Deal
		if json.Unmarshal(data, &deals) == nil {
			return deals, nil
		}
	}

	deals, err := s.Store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.set(ctx, activeDealsKey, deals)
	return deals, nil
}

// --- Cache helpers ---

func (s *CachedStore) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, logx.Err(err))
	}
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, logx.Err(err))
	}
}

func dealKey(id string) string { return fmt.Sprintf("deal:%s", id) }
