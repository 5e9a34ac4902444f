// Package geo provides the geofence distance math used by the attendance
// check-in flow.
package geo

import "math"

// Mean Earth radius in meters.
const earthRadiusMeters = 6371e3

// DistanceMeters returns the great-circle (haversine) distance between two
// coordinates. Symmetric, and zero for identical points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	deltaPhi := toRadians(lat2 - lat1)
	deltaLambda := toRadians(lon2 - lon1)

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius applies the accept rule: a distance exactly equal to the
// radius is still inside the fence.
func WithinRadius(distanceMeters float64, radiusMeters int) bool {
	return distanceMeters <= float64(radiusMeters)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
