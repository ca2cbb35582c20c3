package geo

import (
	"math"
	"sort"
)

// ConvexHull returns the convex hull of the given coordinates as a
// counter-clockwise ring without a repeated closing vertex, computed with a
// Graham scan. Inputs with two or fewer distinct coordinates come back
// deduplicated but otherwise unchanged; such results are not polygons and
// callers must check len >= 3 before closing the ring.
func ConvexHull(coords []Coordinate) []Coordinate {
	pts := dedupeCoordinates(coords)
	if len(pts) <= 2 {
		return pts
	}

	// Pivot: bottom-most point, ties broken left-most.
	pivotIdx := 0
	for i, c := range pts {
		if c.Lat < pts[pivotIdx].Lat ||
			(c.Lat == pts[pivotIdx].Lat && c.Lng < pts[pivotIdx].Lng) {
			pivotIdx = i
		}
	}
	pts[0], pts[pivotIdx] = pts[pivotIdx], pts[0]
	pivot := pts[0]
	rest := pts[1:]

	// Sort by polar angle around the pivot; collinear runs are processed
	// nearest-to-farthest.
	sort.Slice(rest, func(i, j int) bool {
		ai := math.Atan2(rest[i].Lat-pivot.Lat, rest[i].Lng-pivot.Lng)
		aj := math.Atan2(rest[j].Lat-pivot.Lat, rest[j].Lng-pivot.Lng)
		if ai != aj {
			return ai < aj
		}
		return squaredOffset(pivot, rest[i]) < squaredOffset(pivot, rest[j])
	})

	stack := make([]Coordinate, 0, len(pts))
	stack = append(stack, pivot)
	for _, c := range rest {
		for len(stack) >= 2 && cross(stack[len(stack)-2], stack[len(stack)-1], c) <= 0 {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, c)
	}
	return stack
}

// HullContains reports whether c lies inside or on the boundary of a
// counter-clockwise convex ring. Rings with fewer than three vertices
// contain nothing.
func HullContains(hull []Coordinate, c Coordinate) bool {
	if len(hull) < 3 {
		return false
	}
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		if cross(a, b, c) < 0 {
			return false
		}
	}
	return true
}

// cross returns the z-component of (o->a) x (o->b) in lng/lat plane
// coordinates; positive means a counter-clockwise turn.
func cross(o, a, b Coordinate) float64 {
	return (a.Lng-o.Lng)*(b.Lat-o.Lat) - (a.Lat-o.Lat)*(b.Lng-o.Lng)
}

func squaredOffset(o, a Coordinate) float64 {
	dLat := a.Lat - o.Lat
	dLng := a.Lng - o.Lng
	return dLat*dLat + dLng*dLng
}

func dedupeCoordinates(coords []Coordinate) []Coordinate {
	seen := make(map[Coordinate]struct{}, len(coords))
	out := make([]Coordinate, 0, len(coords))
	for _, c := range coords {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
