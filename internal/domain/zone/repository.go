package zone

import (
	"context"

	"github.com/google/uuid"
)

// ZonePlanRepository defines the persistence contract for zone plan aggregates.
type ZonePlanRepository interface {
	// FindByID retrieves a plan by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*ZonePlan, error)

	// List retrieves plans with pagination, optionally filtered by status
	// (empty status means all).
	List(ctx context.Context, status PlanStatus, page, limit int) ([]*ZonePlan, int64, error)

	// CountByStatus returns plan counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new plan.
	Save(ctx context.Context, plan *ZonePlan) error

	// Update persists changes to an existing plan with optimistic locking.
	Update(ctx context.Context, plan *ZonePlan) error
}
