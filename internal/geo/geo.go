// Package geo holds the great-circle math shared by the recommendation engine
// and the in-memory store.
package geo

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine.
	EarthRadiusKm = 6371.0

	// UnboundedDistanceKm is roughly the antipodal distance; any request at or
	// above WideningThresholdKm is widened to it.
	UnboundedDistanceKm = 20020.0
	WideningThresholdKm = 20.0

	DefaultDistanceKm = 10.0

	DefaultLocationLabel = "Cornell, Markham"
)

// DefaultPoint is used when the caller has not set a location.
var DefaultPoint = Point{Lat: 43.892958, Lng: -79.228599}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// NormalizeMaxDistanceKm applies the default radius and widens large requests
// to the unbounded sentinel.
func NormalizeMaxDistanceKm(km float64) float64 {
	if km <= 0 {
		return DefaultDistanceKm
	}
	if km >= WideningThresholdKm {
		return UnboundedDistanceKm
	}
	return km
}

// KmToMeters converts a radius to the integer meters the 2dsphere index expects.
func KmToMeters(km float64) int64 {
	return int64(km * 1000)
}

// ValidCoordinates reports whether lat/lng are inside the WGS84 ranges.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
