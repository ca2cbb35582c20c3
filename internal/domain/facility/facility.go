package facility

import (
	"fmt"
	"time"

	"github.com/fleetgrid/service-zoning/internal/common/domain"
	"github.com/fleetgrid/service-zoning/internal/domain/geo"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
)

// cellLevel is the S2 cell level used for coarse spatial bucketing; level 10
// cells are several kilometers across.
const cellLevel = 10

// Facility is a pickup/dropoff hub whose coordinates feed zone planning.
type Facility struct {
	id      uuid.UUID
	code    string
	name    string
	lat     float64
	lng     float64
	cellID  uint64
	active  bool
	version int64

	createdAt time.Time
	updatedAt time.Time
}

// CellIDAt returns the S2 cell ID for a coordinate at the bucketing level.
func CellIDAt(lat, lng float64) uint64 {
	ll := s2.LatLngFromDegrees(lat, lng)
	return uint64(s2.CellIDFromLatLng(ll).Parent(cellLevel))
}

// NeighborhoodCells returns the cell containing the coordinate plus its edge
// neighbors, for "near this point" lookups.
func NeighborhoodCells(lat, lng float64) []uint64 {
	ll := s2.LatLngFromDegrees(lat, lng)
	center := s2.CellIDFromLatLng(ll).Parent(cellLevel)

	cells := []uint64{uint64(center)}
	for _, n := range center.EdgeNeighbors() {
		cells = append(cells, uint64(n))
	}
	return cells
}

// NewFacility creates an active facility with validated fields.
func NewFacility(code, name string, lat, lng float64) (*Facility, error) {
	if code == "" {
		return nil, domain.NewValidationError("facility code is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("facility name is required")
	}
	if lat < -90 || lat > 90 {
		return nil, domain.NewValidationError(fmt.Sprintf("latitude out of range: %g", lat))
	}
	if lng < -180 || lng > 180 {
		return nil, domain.NewValidationError(fmt.Sprintf("longitude out of range: %g", lng))
	}

	now := time.Now().UTC()
	return &Facility{
		id:        uuid.New(),
		code:      code,
		name:      name,
		lat:       lat,
		lng:       lng,
		cellID:    CellIDAt(lat, lng),
		active:    true,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Facility from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	code, name string,
	lat, lng float64,
	cellID uint64,
	active bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Facility {
	return &Facility{
		id:        id,
		code:      code,
		name:      name,
		lat:       lat,
		lng:       lng,
		cellID:    cellID,
		active:    active,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

func (f *Facility) ID() uuid.UUID        { return f.id }
func (f *Facility) Code() string         { return f.code }
func (f *Facility) Name() string         { return f.name }
func (f *Facility) Lat() float64         { return f.lat }
func (f *Facility) Lng() float64         { return f.lng }
func (f *Facility) CellID() uint64       { return f.cellID }
func (f *Facility) IsActive() bool       { return f.active }
func (f *Facility) Version() int64       { return f.version }
func (f *Facility) CreatedAt() time.Time { return f.createdAt }
func (f *Facility) UpdatedAt() time.Time { return f.updatedAt }

// GeoPoint returns the facility as a clustering input point.
func (f *Facility) GeoPoint() geo.GeoPoint {
	return geo.GeoPoint{ID: f.id.String(), Lat: f.lat, Lng: f.lng}
}

// --- Behavior ---

// Update applies partial updates; the spatial cell is recomputed when the
// position changes.
func (f *Facility) Update(name string, lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return domain.NewValidationError(fmt.Sprintf("latitude out of range: %g", lat))
	}
	if lng < -180 || lng > 180 {
		return domain.NewValidationError(fmt.Sprintf("longitude out of range: %g", lng))
	}

	if name != "" {
		f.name = name
	}
	f.lat = lat
	f.lng = lng
	f.cellID = CellIDAt(lat, lng)
	f.active = true
	f.version++
	f.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate removes the facility from zone planning input.
func (f *Facility) Deactivate() {
	f.active = false
	f.version++
	f.updatedAt = time.Now().UTC()
}
