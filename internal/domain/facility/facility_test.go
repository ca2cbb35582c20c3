package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFacilityValidation(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		fName   string
		lat     float64
		lng     float64
		wantErr string
	}{
		{"missing code", "", "Hub A", 3.14, 101.68, "code is required"},
		{"missing name", "HUB-A", "", 3.14, 101.68, "name is required"},
		{"lat too high", "HUB-A", "Hub A", 91, 101.68, "latitude out of range"},
		{"lat too low", "HUB-A", "Hub A", -91, 101.68, "latitude out of range"},
		{"lng too high", "HUB-A", "Hub A", 3.14, 181, "longitude out of range"},
		{"lng too low", "HUB-A", "Hub A", 3.14, -181, "longitude out of range"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFacility(tc.code, tc.fName, tc.lat, tc.lng)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewFacilityComputesCell(t *testing.T) {
	f, err := NewFacility("HUB-A", "Hub A", 3.1390, 101.6869)
	require.NoError(t, err)

	assert.True(t, f.IsActive())
	assert.NotZero(t, f.CellID())
	assert.Equal(t, CellIDAt(3.1390, 101.6869), f.CellID())

	// Same coordinate always buckets into the same cell.
	g, err := NewFacility("HUB-B", "Hub B", 3.1390, 101.6869)
	require.NoError(t, err)
	assert.Equal(t, f.CellID(), g.CellID())
}

func TestUpdateRecomputesCell(t *testing.T) {
	f, err := NewFacility("HUB-A", "Hub A", 3.1390, 101.6869)
	require.NoError(t, err)
	before := f.CellID()

	// A 40 km move always lands in a different level-10 cell.
	require.NoError(t, f.Update("Hub A", 3.5000, 101.7500))
	assert.NotEqual(t, before, f.CellID())
	assert.Equal(t, int64(2), f.Version())

	require.Error(t, f.Update("Hub A", 95, 0))
}

func TestNeighborhoodCells(t *testing.T) {
	cells := NeighborhoodCells(3.1390, 101.6869)

	// Center cell plus four edge neighbors.
	require.Len(t, cells, 5)
	assert.Equal(t, CellIDAt(3.1390, 101.6869), cells[0])

	seen := make(map[uint64]struct{})
	for _, c := range cells {
		_, dup := seen[c]
		assert.False(t, dup, "duplicate cell %d", c)
		seen[c] = struct{}{}
	}
}

func TestDeactivate(t *testing.T) {
	f, err := NewFacility("HUB-A", "Hub A", 3.1390, 101.6869)
	require.NoError(t, err)

	f.Deactivate()
	assert.False(t, f.IsActive())
	assert.Equal(t, int64(2), f.Version())
}

func TestGeoPointUsesIDString(t *testing.T) {
	f, err := NewFacility("HUB-A", "Hub A", 3.1390, 101.6869)
	require.NoError(t, err)

	pt := f.GeoPoint()
	assert.Equal(t, f.ID().String(), pt.ID)
	assert.Equal(t, f.Lat(), pt.Lat)
	assert.Equal(t, f.Lng(), pt.Lng)
}
