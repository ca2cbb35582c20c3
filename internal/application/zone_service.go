package application

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/fleetgrid/service-zoning/internal/common/domain"
	"github.com/fleetgrid/service-zoning/internal/common/kafka"
	"github.com/fleetgrid/service-zoning/internal/domain/facility"
	"github.com/fleetgrid/service-zoning/internal/domain/geo"
	"github.com/fleetgrid/service-zoning/internal/domain/zone"
	"github.com/fleetgrid/service-zoning/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher abstracts the Kafka producer for testability.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// PointInput is an explicit clustering input point.
type PointInput struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lng float64 `json:"lng" binding:"gte=-180,lte=180"`
}

// PreviewZonesRequest asks for a zone partition without persisting anything.
// When Points is empty the active facilities are used as input. Seed makes a
// k-means preview reproducible.
type PreviewZonesRequest struct {
	Strategy zone.Strategy `json:"strategy" binding:"required"`
	Points   []PointInput  `json:"points"`
	Seed     *int64        `json:"seed"`
}

// CreateZonePlanRequest creates a draft plan from the active facilities.
type CreateZonePlanRequest struct {
	Name     string        `json:"name" binding:"required"`
	Strategy zone.Strategy `json:"strategy" binding:"required"`
	Seed     *int64        `json:"seed"`
}

// ZoneDTO is the response representation of a single zone.
type ZoneDTO struct {
	Number      int              `json:"number"`
	Centroid    geo.Coordinate   `json:"centroid"`
	FacilityIDs []string         `json:"facility_ids"`
	Boundary    []geo.Coordinate `json:"boundary"`
	PointCount  int              `json:"point_count"`
}

// ZonePreviewDTO is the result of a preview computation.
type ZonePreviewDTO struct {
	Strategy   zone.Strategy `json:"strategy"`
	Zones      []ZoneDTO     `json:"zones"`
	PointCount int           `json:"point_count"`
	ZoneCount  int           `json:"zone_count"`
}

// ZonePlanDTO is the response representation of a zone plan.
type ZonePlanDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Status      string        `json:"status"`
	Strategy    zone.Strategy `json:"strategy"`
	Zones       []ZoneDTO     `json:"zones"`
	Version     int64         `json:"version"`
	ActivatedAt *time.Time    `json:"activated_at,omitempty"`
	ArchivedAt  *time.Time    `json:"archived_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ZoneStatsDTO holds plan statistics for the admin dashboard.
type ZoneStatsDTO struct {
	TotalPlans int64            `json:"total_plans"`
	ByStatus   map[string]int64 `json:"by_status"`
}

// ZoneMatchDTO is the result of locating a point within an active plan.
type ZoneMatchDTO struct {
	PlanID uuid.UUID `json:"plan_id"`
	Zone   ZoneDTO   `json:"zone"`
}

// ZoneService is the application service orchestrating zone plan use cases.
type ZoneService struct {
	plans      zone.ZonePlanRepository
	facilities facility.Repository
	publisher  EventPublisher
	logger     *zap.Logger
}

// NewZoneService creates a new ZoneService.
func NewZoneService(
	plans zone.ZonePlanRepository,
	facilities facility.Repository,
	publisher EventPublisher,
	logger *zap.Logger,
) *ZoneService {
	return &ZoneService{
		plans:      plans,
		facilities: facilities,
		publisher:  publisher,
		logger:     logger,
	}
}

// PreviewZones computes a partition over the given points (or the active
// facilities when none are given) without persisting anything.
func (s *ZoneService) PreviewZones(ctx context.Context, req PreviewZonesRequest) (*ZonePreviewDTO, error) {
	points, err := s.resolvePoints(ctx, req.Points)
	if err != nil {
		return nil, err
	}

	zones, err := s.computeZones(ctx, req.Strategy, req.Seed, points)
	if err != nil {
		return nil, err
	}

	return &ZonePreviewDTO{
		Strategy:   req.Strategy,
		Zones:      toZoneDTOs(zones),
		PointCount: len(points),
		ZoneCount:  len(zones),
	}, nil
}

// CreateZonePlan computes a partition over the active facilities and persists
// it as a draft plan.
func (s *ZoneService) CreateZonePlan(ctx context.Context, req CreateZonePlanRequest) (*ZonePlanDTO, error) {
	points, err := s.resolvePoints(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, domain.NewValidationError("no active facilities to partition")
	}

	zones, err := s.computeZones(ctx, req.Strategy, req.Seed, points)
	if err != nil {
		return nil, err
	}

	plan, err := zone.NewZonePlan(req.Name, req.Strategy, zones)
	if err != nil {
		return nil, err
	}

	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}

	evt := events.ZonePlanDraftedEvent{
		PlanID:    plan.ID(),
		Name:      plan.Name(),
		Strategy:  plan.Strategy(),
		ZoneCount: len(plan.Zones()),
		CreatedAt: plan.CreatedAt(),
	}
	s.publishEvent(ctx, events.TopicZoneEvents, events.ZonePlanDrafted, evt)

	result := toZonePlanDTO(plan)
	return &result, nil
}

// ActivateZonePlan transitions a draft plan to active.
func (s *ZoneService) ActivateZonePlan(ctx context.Context, planID uuid.UUID) (*ZonePlanDTO, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := plan.Activate(); err != nil {
		return nil, err
	}

	plan.IncrementVersion()
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}

	evt := events.ZonePlanActivatedEvent{
		PlanID:      plan.ID(),
		Name:        plan.Name(),
		ZoneCount:   len(plan.Zones()),
		ActivatedAt: *plan.ActivatedAt(),
	}
	s.publishEvent(ctx, events.TopicZoneEvents, events.ZonePlanActivated, evt)

	result := toZonePlanDTO(plan)
	return &result, nil
}

// ArchiveZonePlan transitions a draft or active plan to archived.
func (s *ZoneService) ArchiveZonePlan(ctx context.Context, planID uuid.UUID) (*ZonePlanDTO, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := plan.Archive(); err != nil {
		return nil, err
	}

	plan.IncrementVersion()
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}

	evt := events.ZonePlanArchivedEvent{
		PlanID:     plan.ID(),
		Name:       plan.Name(),
		ArchivedAt: *plan.ArchivedAt(),
	}
	s.publishEvent(ctx, events.TopicZoneEvents, events.ZonePlanArchived, evt)

	result := toZonePlanDTO(plan)
	return &result, nil
}

// GetZonePlan retrieves a single plan by ID.
func (s *ZoneService) GetZonePlan(ctx context.Context, planID uuid.UUID) (*ZonePlanDTO, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	result := toZonePlanDTO(plan)
	return &result, nil
}

// ListZonePlans retrieves paginated plans, optionally filtered by status.
func (s *ZoneService) ListZonePlans(ctx context.Context, status string, page, limit int) (*domain.PaginatedResult[ZonePlanDTO], error) {
	var filter zone.PlanStatus
	if status != "" {
		parsed, err := zone.ParsePlanStatus(status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter = parsed
	}

	plans, total, err := s.plans.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ZonePlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toZonePlanDTO(p)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// LocateZone finds the zone of a plan whose boundary contains the coordinate.
func (s *ZoneService) LocateZone(ctx context.Context, planID uuid.UUID, lat, lng float64) (*ZoneMatchDTO, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	z, ok := plan.ZoneForPoint(geo.Coordinate{Lat: lat, Lng: lng})
	if !ok {
		return nil, domain.NewNotFoundError("Zone", fmt.Sprintf("%.4f,%.4f", lat, lng))
	}

	return &ZoneMatchDTO{PlanID: plan.ID(), Zone: toZoneDTO(z)}, nil
}

// GetZoneStats returns aggregate plan statistics (admin).
func (s *ZoneService) GetZoneStats(ctx context.Context) (*ZoneStatsDTO, error) {
	counts, err := s.plans.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &ZoneStatsDTO{
		TotalPlans: total,
		ByStatus:   counts,
	}, nil
}

// --- Helpers ---

// resolvePoints turns explicit inputs into geo points, or loads the active
// facilities when no explicit points are given.
func (s *ZoneService) resolvePoints(ctx context.Context, inputs []PointInput) ([]geo.GeoPoint, error) {
	if len(inputs) > 0 {
		points := make([]geo.GeoPoint, len(inputs))
		for i, in := range inputs {
			points[i] = geo.GeoPoint{ID: in.ID, Lat: in.Lat, Lng: in.Lng}
		}
		return points, nil
	}

	active, err := s.facilities.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]geo.GeoPoint, len(active))
	for i, f := range active {
		points[i] = f.GeoPoint()
	}
	return points, nil
}

// computeZones runs the partitioner and derives a boundary per cluster. The
// context is checked between the partition and hull phases; the geo core
// itself never blocks on IO.
func (s *ZoneService) computeZones(ctx context.Context, strategy zone.Strategy, seed *int64, points []geo.GeoPoint) ([]zone.Zone, error) {
	if err := strategy.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	partitioner := strategy.NewPartitioner()
	if seed != nil && strategy.Kind == zone.StrategyKMeans {
		km := geo.NewKMeansPartitionerWithSource(strategy.K, rand.NewSource(*seed))
		if strategy.MaxIterations > 0 {
			km.MaxIterations = strategy.MaxIterations
		}
		partitioner = km
	}

	clusters := partitioner.Partition(points)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zones := make([]zone.Zone, len(clusters))
	for i, c := range clusters {
		coords := make([]geo.Coordinate, len(c.Points))
		ids := make([]string, len(c.Points))
		for j, p := range c.Points {
			coords[j] = p.Coordinate()
			ids[j] = p.ID
		}
		zones[i] = zone.Zone{
			Number:      c.ClusterID + 1,
			Centroid:    c.Centroid,
			FacilityIDs: ids,
			Boundary:    geo.ConvexHull(coords),
		}
	}
	return zones, nil
}

func (s *ZoneService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(events.SourceZoning, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toZoneDTO(z zone.Zone) ZoneDTO {
	return ZoneDTO{
		Number:      z.Number,
		Centroid:    z.Centroid,
		FacilityIDs: z.FacilityIDs,
		Boundary:    z.Boundary,
		PointCount:  len(z.FacilityIDs),
	}
}

func toZoneDTOs(zones []zone.Zone) []ZoneDTO {
	dtos := make([]ZoneDTO, len(zones))
	for i, z := range zones {
		dtos[i] = toZoneDTO(z)
	}
	return dtos
}

func toZonePlanDTO(p *zone.ZonePlan) ZonePlanDTO {
	return ZonePlanDTO{
		ID:          p.ID(),
		Name:        p.Name(),
		Status:      p.Status().String(),
		Strategy:    p.Strategy(),
		Zones:       toZoneDTOs(p.Zones()),
		Version:     p.Version(),
		ActivatedAt: p.ActivatedAt(),
		ArchivedAt:  p.ArchivedAt(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}
