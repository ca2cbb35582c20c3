package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fleetgrid/service-zoning/internal/common/domain"
	zoneDomain "github.com/fleetgrid/service-zoning/internal/domain/zone"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ZonePlanModel is the GORM model for the zone_plans table.
type ZonePlanModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"not null;size:120"`
	Status      string          `gorm:"not null;size:20;index"`
	Strategy    json.RawMessage `gorm:"type:jsonb;not null"`
	Zones       json.RawMessage `gorm:"type:jsonb;not null"`
	Version     int64           `gorm:"not null;default:1"`
	ActivatedAt *time.Time      `gorm:""`
	ArchivedAt  *time.Time      `gorm:""`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ZonePlanModel) TableName() string {
	return "zone_plans"
}

// GormZonePlanRepository is the GORM-based implementation of ZonePlanRepository.
type GormZonePlanRepository struct {
	db *gorm.DB
}

// NewGormZonePlanRepository creates a new GormZonePlanRepository.
func NewGormZonePlanRepository(db *gorm.DB) *GormZonePlanRepository {
	return &GormZonePlanRepository{db: db}
}

// FindByID retrieves a zone plan by its unique identifier.
func (r *GormZonePlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*zoneDomain.ZonePlan, error) {
	var model ZonePlanModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("ZonePlan", id.String())
		}
		return nil, fmt.Errorf("failed to find zone plan by ID: %w", err)
	}
	return toDomainZonePlan(&model)
}

// List retrieves zone plans with pagination, optionally filtered by status.
func (r *GormZonePlanRepository) List(ctx context.Context, status zoneDomain.PlanStatus, page, limit int) ([]*zoneDomain.ZonePlan, int64, error) {
	query := r.db.WithContext(ctx).Model(&ZonePlanModel{})
	if status != "" {
		query = query.Where("status = ?", status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count zone plans: %w", err)
	}

	var models []ZonePlanModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list zone plans: %w", err)
	}

	plans := make([]*zoneDomain.ZonePlan, len(models))
	for i, m := range models {
		p, err := toDomainZonePlan(&m)
		if err != nil {
			return nil, 0, err
		}
		plans[i] = p
	}

	return plans, total, nil
}

// CountByStatus returns zone plan counts grouped by status (admin).
func (r *GormZonePlanRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&ZonePlanModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new zone plan.
func (r *GormZonePlanRepository) Save(ctx context.Context, plan *zoneDomain.ZonePlan) error {
	model, err := toZonePlanModel(plan)
	if err != nil {
		return fmt.Errorf("failed to convert zone plan to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save zone plan: %w", err)
	}
	return nil
}

// Update persists changes to an existing zone plan with optimistic locking.
func (r *GormZonePlanRepository) Update(ctx context.Context, plan *zoneDomain.ZonePlan) error {
	model, err := toZonePlanModel(plan)
	if err != nil {
		return fmt.Errorf("failed to convert zone plan to model: %w", err)
	}

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := plan.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ZonePlanModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"status":       model.Status,
			"strategy":     model.Strategy,
			"zones":        model.Zones,
			"version":      model.Version,
			"activated_at": model.ActivatedAt,
			"archived_at":  model.ArchivedAt,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update zone plan: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("zone plan was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toZonePlanModel(plan *zoneDomain.ZonePlan) (*ZonePlanModel, error) {
	strategyJSON, err := json.Marshal(plan.Strategy())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal strategy: %w", err)
	}

	zonesJSON, err := json.Marshal(plan.Zones())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal zones: %w", err)
	}

	return &ZonePlanModel{
		ID:          plan.ID(),
		Name:        plan.Name(),
		Status:      plan.Status().String(),
		Strategy:    strategyJSON,
		Zones:       zonesJSON,
		Version:     plan.Version(),
		ActivatedAt: plan.ActivatedAt(),
		ArchivedAt:  plan.ArchivedAt(),
		CreatedAt:   plan.CreatedAt(),
		UpdatedAt:   plan.UpdatedAt(),
	}, nil
}

func toDomainZonePlan(m *ZonePlanModel) (*zoneDomain.ZonePlan, error) {
	var strategy zoneDomain.Strategy
	if err := json.Unmarshal(m.Strategy, &strategy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strategy: %w", err)
	}

	var zones []zoneDomain.Zone
	if err := json.Unmarshal(m.Zones, &zones); err != nil {
		return nil, fmt.Errorf("failed to unmarshal zones: %w", err)
	}

	status, err := zoneDomain.ParsePlanStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return zoneDomain.ReconstructZonePlan(
		m.ID,
		m.Name,
		status,
		strategy,
		zones,
		m.Version,
		m.ActivatedAt,
		m.ArchivedAt,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
