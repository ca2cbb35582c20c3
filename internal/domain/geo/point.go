// Package geo implements the spatial core of the zoning service: great-circle
// distance, two interchangeable point-partitioning strategies (K-Means++ and
// DBSCAN) and convex boundary extraction.
//
// Every function in this package degrades gracefully instead of failing:
// empty, single-point and degenerate inputs produce well-formed (possibly
// smaller than requested) results, never an error. Callers that turn hulls
// into closed polygons must check len(hull) >= 3 first.
package geo

import "gonum.org/v1/gonum/stat"

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoPoint is an immutable input point. ID must be unique within a single
// partitioning call; the engine never mutates points.
type GeoPoint struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate returns the point's coordinate pair.
func (p GeoPoint) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// Cluster is one group of points produced by a partitioner. Points is
// non-empty by construction and preserves the caller's input order.
// ClusterID is only unique within a single result set.
type Cluster struct {
	ClusterID int        `json:"cluster_id"`
	Centroid  Coordinate `json:"centroid"`
	Points    []GeoPoint `json:"points"`
}

// Partitioner groups a point set into clusters. Implementations guarantee
// that every input point appears in exactly one output cluster.
type Partitioner interface {
	Partition(points []GeoPoint) []Cluster
}

// centroidOf returns the arithmetic mean coordinate of the given points.
func centroidOf(points []GeoPoint) Coordinate {
	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}
	return Coordinate{
		Lat: stat.Mean(lats, nil),
		Lng: stat.Mean(lngs, nil),
	}
}
