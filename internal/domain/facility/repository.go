package facility

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for facilities.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Facility, error)
	FindByCode(ctx context.Context, code string) (*Facility, error)
	List(ctx context.Context, page, limit int) ([]*Facility, int64, error)
	ListActive(ctx context.Context) ([]*Facility, error)
	ListByCellIDs(ctx context.Context, cellIDs []uint64) ([]*Facility, error)
	Save(ctx context.Context, f *Facility) error
	Update(ctx context.Context, f *Facility) error
}
