package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fleetgrid/service-zoning/internal/common/domain"
	"github.com/fleetgrid/service-zoning/internal/common/kafka"
	facilityDomain "github.com/fleetgrid/service-zoning/internal/domain/facility"
	"github.com/fleetgrid/service-zoning/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterFacilityRequest registers a facility or updates it when the code
// already exists.
type RegisterFacilityRequest struct {
	Code string  `json:"code" binding:"required"`
	Name string  `json:"name" binding:"required"`
	Lat  float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lng  float64 `json:"lng" binding:"gte=-180,lte=180"`
}

// FacilityDTO is the response representation of a facility. The S2 cell ID is
// rendered as a string since it does not fit a JSON number.
type FacilityDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CellID    string    `json:"cell_id"`
	Active    bool      `json:"active"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FacilityService is the application service orchestrating facility use cases.
type FacilityService struct {
	repo      facilityDomain.Repository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewFacilityService creates a new FacilityService.
func NewFacilityService(repo facilityDomain.Repository, publisher EventPublisher, logger *zap.Logger) *FacilityService {
	return &FacilityService{repo: repo, publisher: publisher, logger: logger}
}

// RegisterFacility upserts a facility by code and announces the change.
func (s *FacilityService) RegisterFacility(ctx context.Context, req RegisterFacilityRequest) (*FacilityDTO, error) {
	f, created, err := s.upsert(ctx, req.Code, req.Name, req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}

	if created {
		evt := events.FacilityRegisteredEvent{Code: f.Code(), Name: f.Name(), Lat: f.Lat(), Lng: f.Lng()}
		s.publishEvent(ctx, events.TopicFacilityEvents, events.FacilityRegistered, evt)
	} else {
		evt := events.FacilityUpdatedEvent{Code: f.Code(), Name: f.Name(), Lat: f.Lat(), Lng: f.Lng()}
		s.publishEvent(ctx, events.TopicFacilityEvents, events.FacilityUpdated, evt)
	}

	result := toFacilityDTO(f)
	return &result, nil
}

// SyncFacility upserts a facility from a fleet registry event. No event is
// published back, so registry announcements cannot echo through this service.
func (s *FacilityService) SyncFacility(ctx context.Context, code, name string, lat, lng float64) error {
	_, _, err := s.upsert(ctx, code, name, lat, lng)
	return err
}

// SyncDeactivation deactivates a facility from a fleet registry event.
// Unknown codes are ignored.
func (s *FacilityService) SyncDeactivation(ctx context.Context, code string) error {
	f, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	f.Deactivate()
	return s.repo.Update(ctx, f)
}

// ListFacilities retrieves paginated facilities. When near is set, only
// facilities in the S2 neighborhood of the coordinate are returned.
func (s *FacilityService) ListFacilities(ctx context.Context, page, limit int, near *PointInput) (*domain.PaginatedResult[FacilityDTO], error) {
	if near != nil {
		cells := facilityDomain.NeighborhoodCells(near.Lat, near.Lng)
		facilities, err := s.repo.ListByCellIDs(ctx, cells)
		if err != nil {
			return nil, err
		}
		dtos := toFacilityDTOs(facilities)
		result := domain.NewPaginatedResult(dtos, int64(len(dtos)), 1, len(dtos))
		return &result, nil
	}

	facilities, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toFacilityDTOs(facilities), total, page, limit)
	return &result, nil
}

// DeactivateFacility removes a facility from zone planning input.
func (s *FacilityService) DeactivateFacility(ctx context.Context, id uuid.UUID) error {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	f.Deactivate()
	if err := s.repo.Update(ctx, f); err != nil {
		return err
	}

	evt := events.FacilityDeactivatedEvent{Code: f.Code()}
	s.publishEvent(ctx, events.TopicFacilityEvents, events.FacilityDeactivated, evt)
	return nil
}

// --- Helpers ---

func (s *FacilityService) upsert(ctx context.Context, code, name string, lat, lng float64) (*facilityDomain.Facility, bool, error) {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, false, err
		}

		f, err := facilityDomain.NewFacility(code, name, lat, lng)
		if err != nil {
			return nil, false, err
		}
		if err := s.repo.Save(ctx, f); err != nil {
			return nil, false, err
		}
		return f, true, nil
	}

	if err := existing.Update(name, lat, lng); err != nil {
		return nil, false, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *FacilityService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
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

func toFacilityDTO(f *facilityDomain.Facility) FacilityDTO {
	return FacilityDTO{
		ID:        f.ID(),
		Code:      f.Code(),
		Name:      f.Name(),
		Lat:       f.Lat(),
		Lng:       f.Lng(),
		CellID:    strconv.FormatUint(f.CellID(), 10),
		Active:    f.IsActive(),
		Version:   f.Version(),
		CreatedAt: f.CreatedAt(),
		UpdatedAt: f.UpdatedAt(),
	}
}

func toFacilityDTOs(facilities []*facilityDomain.Facility) []FacilityDTO {
	dtos := make([]FacilityDTO, len(facilities))
	for i, f := range facilities {
		dtos[i] = toFacilityDTO(f)
	}
	return dtos
}
