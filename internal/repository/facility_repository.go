package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetgrid/service-zoning/internal/common/domain"
	facilityDomain "github.com/fleetgrid/service-zoning/internal/domain/facility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FacilityModel is the GORM model for the facilities table.
type FacilityModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code      string    `gorm:"uniqueIndex;not null;size:40"`
	Name      string    `gorm:"not null;size:120"`
	Lat       float64   `gorm:"not null"`
	Lng       float64   `gorm:"not null"`
	// S2 cell IDs use the full uint64 range; the bit pattern is stored in a
	// signed BIGINT column.
	CellID    int64     `gorm:"not null;index"`
	Active    bool      `gorm:"not null;default:true;index"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (FacilityModel) TableName() string {
	return "facilities"
}

// GormFacilityRepository is the GORM-based implementation of the facility Repository.
type GormFacilityRepository struct {
	db *gorm.DB
}

// NewGormFacilityRepository creates a new GormFacilityRepository.
func NewGormFacilityRepository(db *gorm.DB) *GormFacilityRepository {
	return &GormFacilityRepository{db: db}
}

// FindByID retrieves a facility by its unique identifier.
func (r *GormFacilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*facilityDomain.Facility, error) {
	var model FacilityModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Facility", id.String())
		}
		return nil, fmt.Errorf("failed to find facility by ID: %w", err)
	}
	return toDomainFacility(&model), nil
}

// FindByCode retrieves a facility by its unique code.
func (r *GormFacilityRepository) FindByCode(ctx context.Context, code string) (*facilityDomain.Facility, error) {
	var model FacilityModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Facility", code)
		}
		return nil, fmt.Errorf("failed to find facility by code: %w", err)
	}
	return toDomainFacility(&model), nil
}

// List retrieves facilities with pagination.
func (r *GormFacilityRepository) List(ctx context.Context, page, limit int) ([]*facilityDomain.Facility, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&FacilityModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count facilities: %w", err)
	}

	var models []FacilityModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("code ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list facilities: %w", err)
	}

	return toDomainFacilities(models), total, nil
}

// ListActive retrieves all active facilities.
func (r *GormFacilityRepository) ListActive(ctx context.Context) ([]*facilityDomain.Facility, error) {
	var models []FacilityModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list active facilities: %w", err)
	}
	return toDomainFacilities(models), nil
}

// ListByCellIDs retrieves active facilities whose spatial cell is in the set.
func (r *GormFacilityRepository) ListByCellIDs(ctx context.Context, cellIDs []uint64) ([]*facilityDomain.Facility, error) {
	signed := make([]int64, len(cellIDs))
	for i, c := range cellIDs {
		signed[i] = int64(c)
	}

	var models []FacilityModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND cell_id IN ?", true, signed).
		Order("code ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list facilities by cell: %w", err)
	}
	return toDomainFacilities(models), nil
}

// Save persists a new facility.
func (r *GormFacilityRepository) Save(ctx context.Context, f *facilityDomain.Facility) error {
	if err := r.db.WithContext(ctx).Create(toFacilityModel(f)).Error; err != nil {
		return fmt.Errorf("failed to save facility: %w", err)
	}
	return nil
}

// Update persists changes to an existing facility with optimistic locking.
func (r *GormFacilityRepository) Update(ctx context.Context, f *facilityDomain.Facility) error {
	model := toFacilityModel(f)

	expectedVersion := f.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&FacilityModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"lat":        model.Lat,
			"lng":        model.Lng,
			"cell_id":    model.CellID,
			"active":     model.Active,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update facility: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("facility was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toFacilityModel(f *facilityDomain.Facility) *FacilityModel {
	return &FacilityModel{
		ID:        f.ID(),
		Code:      f.Code(),
		Name:      f.Name(),
		Lat:       f.Lat(),
		Lng:       f.Lng(),
		CellID:    int64(f.CellID()),
		Active:    f.IsActive(),
		Version:   f.Version(),
		CreatedAt: f.CreatedAt(),
		UpdatedAt: f.UpdatedAt(),
	}
}

func toDomainFacility(m *FacilityModel) *facilityDomain.Facility {
	return facilityDomain.Reconstruct(
		m.ID,
		m.Code,
		m.Name,
		m.Lat,
		m.Lng,
		uint64(m.CellID),
		m.Active,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toDomainFacilities(models []FacilityModel) []*facilityDomain.Facility {
	facilities := make([]*facilityDomain.Facility, len(models))
	for i, m := range models {
		facilities[i] = toDomainFacility(&m)
	}
	return facilities
}
