package ports

import (
	"context"

	"route-optimizer-service/internal/domain"
)

// TripRequest describes one call to the hosted trip-optimization service.
type TripRequest struct {
	// Waypoints to order; between 2 and 12 inclusive.
	Waypoints []domain.Coordinates
	// Profile is driving, walking or cycling. Empty means driving.
	Profile string
	// FixedStart anchors the first waypoint as the trip source.
	FixedStart bool
	// FixedEnd anchors the last waypoint as the trip destination.
	FixedEnd bool
	// RoundTrip asks for a closed tour back to the start.
	RoundTrip bool
	// Geometry selects the encoded geometry format (e.g. polyline, geojson).
	Geometry string
}

// TripLeg is one segment of the optimized trip.
type TripLeg struct {
	DistanceMeters  float64
	DurationSeconds float64
	Steps           int
}

// TripResult is the provider's optimized waypoint order mapped back into
// the caller's coordinate convention.
type TripResult struct {
	// Order[i] is the input index visited at position i.
	Order           []int
	Waypoints       []domain.Coordinates
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        string
	Legs            []TripLeg
}

// Port: a boundary to a hosted waypoint-optimization service. Used when the
// caller wants a single authoritative optimized path instead of the
// in-process heuristics.
type TripOptimizer interface {
	OptimizeTrip(ctx context.Context, req TripRequest) (*TripResult, error)
}
