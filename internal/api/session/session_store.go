package session

import (
	"context"
	"errors"

	"github.com/FACorreiaa/travelx-planner/internal/types"
)

// ErrNotFound is returned when a session holds no plan or it has expired.
var ErrNotFound = errors.New("session plan not found")

// Store keeps at most one TripPlan per session ID. Save replaces any prior
// plan and restarts its TTL.
type Store interface {
	Save(ctx context.Context, sessionID string, plan *types.TripPlan) error
	Load(ctx context.Context, sessionID string) (*types.TripPlan, error)
	Delete(ctx context.Context, sessionID string) error
}
