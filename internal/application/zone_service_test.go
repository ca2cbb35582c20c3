package application

import (
	"context"
	"testing"

	"github.com/fleetgrid/service-zoning/internal/common/domain"
	"github.com/fleetgrid/service-zoning/internal/common/kafka"
	facilityDomain "github.com/fleetgrid/service-zoning/internal/domain/facility"
	"github.com/fleetgrid/service-zoning/internal/domain/zone"
	"github.com/fleetgrid/service-zoning/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- In-memory fakes ---

type fakePlanRepo struct {
	plans map[uuid.UUID]*zone.ZonePlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uuid.UUID]*zone.ZonePlan)}
}

func (r *fakePlanRepo) FindByID(_ context.Context, id uuid.UUID) (*zone.ZonePlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, domain.NewNotFoundError("ZonePlan", id.String())
	}
	return p, nil
}

func (r *fakePlanRepo) List(_ context.Context, status zone.PlanStatus, page, limit int) ([]*zone.ZonePlan, int64, error) {
	var out []*zone.ZonePlan
	for _, p := range r.plans {
		if status == "" || p.Status() == status {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePlanRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, p := range r.plans {
		counts[p.Status().String()]++
	}
	return counts, nil
}

func (r *fakePlanRepo) Save(_ context.Context, plan *zone.ZonePlan) error {
	r.plans[plan.ID()] = plan
	return nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *zone.ZonePlan) error {
	if _, ok := r.plans[plan.ID()]; !ok {
		return domain.NewNotFoundError("ZonePlan", plan.ID().String())
	}
	r.plans[plan.ID()] = plan
	return nil
}

type fakeFacilityRepo struct {
	facilities []*facilityDomain.Facility
}

func (r *fakeFacilityRepo) FindByID(_ context.Context, id uuid.UUID) (*facilityDomain.Facility, error) {
	for _, f := range r.facilities {
		if f.ID() == id {
			return f, nil
		}
	}
	return nil, domain.NewNotFoundError("Facility", id.String())
}

func (r *fakeFacilityRepo) FindByCode(_ context.Context, code string) (*facilityDomain.Facility, error) {
	for _, f := range r.facilities {
		if f.Code() == code {
			return f, nil
		}
	}
	return nil, domain.NewNotFoundError("Facility", code)
}

func (r *fakeFacilityRepo) List(_ context.Context, page, limit int) ([]*facilityDomain.Facility, int64, error) {
	return r.facilities, int64(len(r.facilities)), nil
}

func (r *fakeFacilityRepo) ListActive(_ context.Context) ([]*facilityDomain.Facility, error) {
	var out []*facilityDomain.Facility
	for _, f := range r.facilities {
		if f.IsActive() {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFacilityRepo) ListByCellIDs(_ context.Context, cellIDs []uint64) ([]*facilityDomain.Facility, error) {
	want := make(map[uint64]struct{}, len(cellIDs))
	for _, c := range cellIDs {
		want[c] = struct{}{}
	}
	var out []*facilityDomain.Facility
	for _, f := range r.facilities {
		if _, ok := want[f.CellID()]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFacilityRepo) Save(_ context.Context, f *facilityDomain.Facility) error {
	r.facilities = append(r.facilities, f)
	return nil
}

func (r *fakeFacilityRepo) Update(_ context.Context, f *facilityDomain.Facility) error {
	return nil
}

type publishedEvent struct {
	Topic string
	Event kafka.CloudEvent
}

type stubPublisher struct {
	published []publishedEvent
}

func (p *stubPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.published = append(p.published, publishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *stubPublisher) eventTypes() []string {
	types := make([]string, len(p.published))
	for i, e := range p.published {
		types[i] = e.Event.Type
	}
	return types
}

// --- Test setup ---

func mustFacility(t *testing.T, code string, lat, lng float64) *facilityDomain.Facility {
	t.Helper()
	f, err := facilityDomain.NewFacility(code, "Hub "+code, lat, lng)
	require.NoError(t, err)
	return f
}

// Two well-separated groups of hubs around KL and around Penang.
func twoCityFacilities(t *testing.T) []*facilityDomain.Facility {
	t.Helper()
	return []*facilityDomain.Facility{
		mustFacility(t, "KL-1", 3.139, 101.687),
		mustFacility(t, "KL-2", 3.141, 101.690),
		mustFacility(t, "KL-3", 3.137, 101.683),
		mustFacility(t, "PG-1", 5.414, 100.329),
		mustFacility(t, "PG-2", 5.416, 100.332),
		mustFacility(t, "PG-3", 5.412, 100.325),
	}
}

func newZoneFixture(t *testing.T, facilities []*facilityDomain.Facility) (*ZoneService, *fakePlanRepo, *stubPublisher) {
	t.Helper()
	plans := newFakePlanRepo()
	pub := &stubPublisher{}
	svc := NewZoneService(plans, &fakeFacilityRepo{facilities: facilities}, pub, zap.NewNop())
	return svc, plans, pub
}

func seedPtr(v int64) *int64 { return &v }

// --- Tests ---

func TestPreviewZonesWithExplicitPoints(t *testing.T) {
	svc, _, _ := newZoneFixture(t, nil)

	req := PreviewZonesRequest{
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
		Seed:     seedPtr(42),
		Points: []PointInput{
			{ID: "a", Lat: 0.0, Lng: 0.0},
			{ID: "b", Lat: 0.1, Lng: 0.1},
			{ID: "c", Lat: 0.2, Lng: 0.0},
			{ID: "d", Lat: 10.0, Lng: 10.0},
			{ID: "e", Lat: 10.1, Lng: 10.1},
			{ID: "f", Lat: 10.2, Lng: 10.0},
		},
	}

	preview, err := svc.PreviewZones(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 6, preview.PointCount)
	require.Equal(t, 2, preview.ZoneCount)

	// Every input point lands in exactly one zone.
	seen := make(map[string]int)
	for _, z := range preview.Zones {
		for _, id := range z.FacilityIDs {
			seen[id]++
		}
	}
	require.Len(t, seen, 6)
	for id, n := range seen {
		assert.Equal(t, 1, n, "point %s assigned %d times", id, n)
	}
}

func TestPreviewZonesIsReproducibleWithSeed(t *testing.T) {
	svc, _, _ := newZoneFixture(t, twoCityFacilities(t))

	req := PreviewZonesRequest{
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
		Seed:     seedPtr(7),
	}

	first, err := svc.PreviewZones(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.PreviewZones(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Zones, second.Zones)
}

func TestPreviewZonesFallsBackToActiveFacilities(t *testing.T) {
	facilities := twoCityFacilities(t)
	facilities[0].Deactivate()
	svc, _, _ := newZoneFixture(t, facilities)

	preview, err := svc.PreviewZones(context.Background(), PreviewZonesRequest{
		Strategy: zone.Strategy{Kind: zone.StrategyDBSCAN, EpsilonKm: 2, MinPoints: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, preview.PointCount)
	assert.Equal(t, 2, preview.ZoneCount)
}

func TestPreviewZonesRejectsInvalidStrategy(t *testing.T) {
	svc, _, _ := newZoneFixture(t, twoCityFacilities(t))

	_, err := svc.PreviewZones(context.Background(), PreviewZonesRequest{
		Strategy: zone.Strategy{Kind: "voronoi"},
	})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestPreviewZonesHonorsCancellation(t *testing.T) {
	svc, _, _ := newZoneFixture(t, twoCityFacilities(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PreviewZones(ctx, PreviewZonesRequest{
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCreateZonePlanPersistsDraftAndPublishes(t *testing.T) {
	svc, plans, pub := newZoneFixture(t, twoCityFacilities(t))

	dto, err := svc.CreateZonePlan(context.Background(), CreateZonePlanRequest{
		Name:     "my-kl-pg-split",
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
		Seed:     seedPtr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, "draft", dto.Status)
	assert.Len(t, dto.Zones, 2)
	assert.Contains(t, plans.plans, dto.ID)

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.TopicZoneEvents, pub.published[0].Topic)
	assert.Equal(t, events.ZonePlanDrafted, pub.published[0].Event.Type)

	var evt events.ZonePlanDraftedEvent
	require.NoError(t, pub.published[0].Event.ParseData(&evt))
	assert.Equal(t, dto.ID, evt.PlanID)
	assert.Equal(t, 2, evt.ZoneCount)
}

func TestCreateZonePlanRequiresActiveFacilities(t *testing.T) {
	svc, _, pub := newZoneFixture(t, nil)

	_, err := svc.CreateZonePlan(context.Background(), CreateZonePlanRequest{
		Name:     "empty",
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
	})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, pub.published)
}

func TestActivateAndArchiveLifecycle(t *testing.T) {
	svc, _, pub := newZoneFixture(t, twoCityFacilities(t))

	created, err := svc.CreateZonePlan(context.Background(), CreateZonePlanRequest{
		Name:     "lifecycle",
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
	})
	require.NoError(t, err)

	activated, err := svc.ActivateZonePlan(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", activated.Status)
	assert.Equal(t, created.Version+1, activated.Version)
	require.NotNil(t, activated.ActivatedAt)

	archived, err := svc.ArchiveZonePlan(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "archived", archived.Status)

	// Archived is terminal.
	_, err = svc.ActivateZonePlan(context.Background(), created.ID)
	var conflictErr *domain.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	assert.Equal(t, []string{
		events.ZonePlanDrafted,
		events.ZonePlanActivated,
		events.ZonePlanArchived,
	}, pub.eventTypes())
}

func TestActivateUnknownPlan(t *testing.T) {
	svc, _, _ := newZoneFixture(t, nil)

	_, err := svc.ActivateZonePlan(context.Background(), uuid.New())
	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestListZonePlansFiltersByStatus(t *testing.T) {
	svc, _, _ := newZoneFixture(t, twoCityFacilities(t))

	first, err := svc.CreateZonePlan(context.Background(), CreateZonePlanRequest{
		Name:     "first",
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
	})
	require.NoError(t, err)
	_, err = svc.CreateZonePlan(context.Background(), CreateZonePlanRequest{
		Name:     "second",
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
	})
	require.NoError(t, err)

	_, err = svc.ActivateZonePlan(context.Background(), first.ID)
	require.NoError(t, err)

	active, err := svc.ListZonePlans(context.Background(), "active", 1, 10)
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "first", active.Items[0].Name)

	all, err := svc.ListZonePlans(context.Background(), "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = svc.ListZonePlans(context.Background(), "published", 1, 10)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestGetZoneStats(t *testing.T) {
	svc, _, _ := newZoneFixture(t, twoCityFacilities(t))

	created, err := svc.CreateZonePlan(context.Background(), CreateZonePlanRequest{
		Name:     "stats",
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
	})
	require.NoError(t, err)
	_, err = svc.ActivateZonePlan(context.Background(), created.ID)
	require.NoError(t, err)

	stats, err := svc.GetZoneStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalPlans)
	assert.Equal(t, int64(1), stats.ByStatus["active"])
}

func TestLocateZone(t *testing.T) {
	svc, _, _ := newZoneFixture(t, twoCityFacilities(t))

	created, err := svc.CreateZonePlan(context.Background(), CreateZonePlanRequest{
		Name:     "locator",
		Strategy: zone.Strategy{Kind: zone.StrategyKMeans, K: 2},
		Seed:     seedPtr(3),
	})
	require.NoError(t, err)

	// Inside the KL triangle of hubs.
	match, err := svc.LocateZone(context.Background(), created.ID, 3.139, 101.687)
	require.NoError(t, err)
	assert.Equal(t, created.ID, match.PlanID)
	assert.NotEmpty(t, match.Zone.FacilityIDs)

	// Middle of the ocean.
	_, err = svc.LocateZone(context.Background(), created.ID, -40, -140)
	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}
