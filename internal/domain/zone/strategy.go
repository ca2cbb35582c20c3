package zone

import (
	"fmt"

	"github.com/fleetgrid/service-zoning/internal/domain/geo"
)

// StrategyKind identifies a partitioning algorithm.
type StrategyKind string

const (
	StrategyKMeans StrategyKind = "kmeans"
	StrategyDBSCAN StrategyKind = "dbscan"
)

// Strategy is a value object describing which partitioning algorithm a plan
// was (or will be) computed with, including its parameters.
type Strategy struct {
	Kind          StrategyKind `json:"kind"`
	K             int          `json:"k,omitempty"`
	MaxIterations int          `json:"max_iterations,omitempty"`
	EpsilonKm     float64      `json:"epsilon_km,omitempty"`
	MinPoints     int          `json:"min_points,omitempty"`
}

// Validate checks the strategy descriptor is usable.
func (s Strategy) Validate() error {
	switch s.Kind {
	case StrategyKMeans:
		if s.K < 1 {
			return fmt.Errorf("kmeans requires k >= 1, got %d", s.K)
		}
		if s.MaxIterations < 0 {
			return fmt.Errorf("max_iterations cannot be negative")
		}
	case StrategyDBSCAN:
		if s.EpsilonKm <= 0 {
			return fmt.Errorf("dbscan requires epsilon_km > 0, got %g", s.EpsilonKm)
		}
		if s.MinPoints < 0 {
			return fmt.Errorf("min_points cannot be negative")
		}
	default:
		return fmt.Errorf("unknown strategy kind: %q", s.Kind)
	}
	return nil
}

// NewPartitioner builds the partitioner this strategy describes. The caller
// must have validated the strategy first.
func (s Strategy) NewPartitioner() geo.Partitioner {
	switch s.Kind {
	case StrategyDBSCAN:
		return geo.NewDBSCANPartitioner(s.EpsilonKm, s.MinPoints)
	default:
		p := geo.NewKMeansPartitioner(s.K)
		if s.MaxIterations > 0 {
			p.MaxIterations = s.MaxIterations
		}
		return p
	}
}
