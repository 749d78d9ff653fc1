package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/travelx-planner/internal/types"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store backed by go-cache. Expired plans are
// invisible immediately and reclaimed every cleanupInterval.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, plan *types.TripPlan) error {
	// Store a copy so later mutation by the caller does not leak into the session.
	stored := *plan
	s.cache.Set(sessionID, &stored, s.ttl)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*types.TripPlan, error) {
	v, found := s.cache.Get(sessionID)
	if !found {
		return nil, ErrNotFound
	}
	plan := *v.(*types.TripPlan)
	return &plan, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// Len reports live plans, including expired ones not yet reclaimed.
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
