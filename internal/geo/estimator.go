// Package geo provides pure distance and travel-time estimation.
//
// Every function here is deterministic, does no I/O, and is safe to call
// concurrently from multiple routing strategies.
package geo

import (
	"math"
	"time"

	"route-optimizer-service/internal/domain"
)

const (
	earthRadiusKm = 6371.0

	// Assumed urban average travel speed for base estimates.
	averageSpeedKmh = 40.0

	// Travel time never drops below this, regardless of distance.
	minTravelTime = time.Minute
)

// TrafficSource supplies segment delay factors to the dynamic estimator.
// A miss means no observed condition for the segment.
type TrafficSource interface {
	Get(from, to domain.Coordinates) (domain.TrafficCondition, bool)
}

// Distance returns the great-circle distance between two points in
// kilometers, computed with the haversine formula.
func Distance(a, b domain.Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// TravelTime converts a distance in kilometers into a base duration at the
// assumed average speed.
func TravelTime(distanceKm float64) time.Duration {
	if distanceKm <= 0 {
		return minTravelTime
	}
	d := time.Duration(distanceKm / averageSpeedKmh * float64(time.Hour))
	if d < minTravelTime {
		return minTravelTime
	}
	return d
}

// DynamicTravelTime estimates travel time for a segment at a departure time.
// An observed traffic condition for the segment takes precedence; otherwise a
// time-of-day multiplier applies (rush hour slows, late night speeds up).
// Returns the duration and the factor that was applied.
func DynamicTravelTime(from, to domain.Coordinates, departure time.Time, traffic TrafficSource) (time.Duration, float64) {
	base := TravelTime(Distance(from, to))

	factor := TimeOfDayFactor(departure)
	if traffic != nil {
		if cond, ok := traffic.Get(from, to); ok && cond.DelayFactor > 0 {
			factor = cond.DelayFactor
		}
	}

	d := time.Duration(float64(base) * factor)
	if d < minTravelTime {
		d = minTravelTime
	}
	return d, factor
}

// TimeOfDayFactor returns the congestion multiplier implied by the hour of
// day when no observed condition is available.
func TimeOfDayFactor(t time.Time) float64 {
	h := t.Hour()
	switch {
	case (h >= 7 && h < 9) || (h >= 16 && h < 18):
		return 1.5
	case h >= 22 || h < 6:
		return 0.8
	default:
		return 1.0
	}
}
