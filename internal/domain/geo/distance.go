package geo

import "math"

const earthRadiusKm = 6371.0

// Distance returns the great-circle (haversine) distance between two points
// in kilometers, assuming a spherical Earth. It is symmetric, non-negative
// and zero iff both coordinates are equal; NaN inputs propagate NaN.
//
// This is the sole distance primitive used by both partitioners. Planar
// Euclidean distance is not a substitute here: input sets can span distances
// where the spherical correction matters.
func Distance(a, b GeoPoint) float64 {
	return haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// CoordinateDistance returns the haversine distance in kilometers between
// two bare coordinates.
func CoordinateDistance(a, b Coordinate) float64 {
	return haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
