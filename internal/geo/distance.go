// Package geo holds the spatial half of job resolution: great-circle distance
// between sampled points and ranking of job sites whose geofence contains a point.
//
// Everything here is a pure function over caller-supplied data. Coordinates are
// trusted: NaN or out-of-range values are a caller contract violation and are
// not checked.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6371000.0

// Point is a sampled location as reported by a device location API.
type Point struct {
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	AccuracyMeters float64 `json:"accuracy_meters"`
}

// DistanceMeters returns the Haversine great-circle distance between a and b.
// Accuracy is ignored. The result is symmetric and zero for coincident points.
func DistanceMeters(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
