package zone

import (
	"time"

	"github.com/fleetgrid/service-zoning/internal/common/domain"
	"github.com/fleetgrid/service-zoning/internal/domain/geo"
	"github.com/google/uuid"
)

// Zone is one spatial zone inside a plan: the cluster's centroid, the
// facilities assigned to it and the convex boundary ring derived from their
// coordinates. Boundary holds fewer than three vertices when the zone's
// facilities are too degenerate to form a polygon.
type Zone struct {
	Number      int              `json:"number"`
	Centroid    geo.Coordinate   `json:"centroid"`
	FacilityIDs []string         `json:"facility_ids"`
	Boundary    []geo.Coordinate `json:"boundary"`
}

// Contains reports whether the coordinate lies inside the zone boundary.
// Zones without a valid polygon boundary contain nothing.
func (z Zone) Contains(c geo.Coordinate) bool {
	return geo.HullContains(z.Boundary, c)
}

// ZonePlan is the aggregate root for a versioned zoning proposal. Plans are
// created as drafts, may be activated once, and end up archived.
type ZonePlan struct {
	id       uuid.UUID
	name     string
	status   PlanStatus
	strategy Strategy
	zones    []Zone

	version     int64
	activatedAt *time.Time
	archivedAt  *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewZonePlan creates a draft plan from a computed partition.
func NewZonePlan(name string, strategy Strategy, zones []Zone) (*ZonePlan, error) {
	if name == "" {
		return nil, domain.NewValidationError("plan name is required")
	}
	if err := strategy.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if len(zones) == 0 {
		return nil, domain.NewValidationError("plan must contain at least one zone")
	}
	for _, z := range zones {
		if len(z.FacilityIDs) == 0 {
			return nil, domain.NewValidationError("every zone must contain at least one facility")
		}
	}

	now := time.Now().UTC()
	return &ZonePlan{
		id:        uuid.New(),
		name:      name,
		status:    StatusDraft,
		strategy:  strategy,
		zones:     zones,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructZonePlan rebuilds a ZonePlan from persistence data (no validation).
func ReconstructZonePlan(
	id uuid.UUID,
	name string,
	status PlanStatus,
	strategy Strategy,
	zones []Zone,
	version int64,
	activatedAt, archivedAt *time.Time,
	createdAt, updatedAt time.Time,
) *ZonePlan {
	return &ZonePlan{
		id:          id,
		name:        name,
		status:      status,
		strategy:    strategy,
		zones:       zones,
		version:     version,
		activatedAt: activatedAt,
		archivedAt:  archivedAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (p *ZonePlan) ID() uuid.UUID           { return p.id }
func (p *ZonePlan) Name() string            { return p.name }
func (p *ZonePlan) Status() PlanStatus      { return p.status }
func (p *ZonePlan) Strategy() Strategy      { return p.strategy }
func (p *ZonePlan) Zones() []Zone           { return p.zones }
func (p *ZonePlan) Version() int64          { return p.version }
func (p *ZonePlan) ActivatedAt() *time.Time { return p.activatedAt }
func (p *ZonePlan) ArchivedAt() *time.Time  { return p.archivedAt }
func (p *ZonePlan) CreatedAt() time.Time    { return p.createdAt }
func (p *ZonePlan) UpdatedAt() time.Time    { return p.updatedAt }

// --- Behavior ---

// Activate transitions a draft plan to active.
func (p *ZonePlan) Activate() error {
	if !p.status.CanTransitionTo(StatusActive) {
		return domain.NewConflictError("plan cannot be activated from status " + p.status.String())
	}
	now := time.Now().UTC()
	p.status = StatusActive
	p.activatedAt = &now
	p.updatedAt = now
	return nil
}

// Archive transitions a draft or active plan to archived.
func (p *ZonePlan) Archive() error {
	if !p.status.CanTransitionTo(StatusArchived) {
		return domain.NewConflictError("plan cannot be archived from status " + p.status.String())
	}
	now := time.Now().UTC()
	p.status = StatusArchived
	p.archivedAt = &now
	p.updatedAt = now
	return nil
}

// IncrementVersion bumps the optimistic-locking version.
func (p *ZonePlan) IncrementVersion() {
	p.version++
}

// ZoneForPoint returns the zone whose boundary contains the coordinate.
// Zones are checked in order; the first match wins.
func (p *ZonePlan) ZoneForPoint(c geo.Coordinate) (Zone, bool) {
	for _, z := range p.zones {
		if z.Contains(c) {
			return z, true
		}
	}
	return Zone{}, false
}
