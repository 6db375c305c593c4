package domain

import "time"

// Accuracy is a coarse confidence tier attached to a geocoding result.
type Accuracy string

const (
	AccuracyHigh   Accuracy = "high"
	AccuracyMedium Accuracy = "medium"
	AccuracyLow    Accuracy = "low"
)

// GeocodeResult is the outcome of resolving one free-text address.
// Coords is nil when every provider failed; callers must check it before
// handing the stop to the optimization engine.
type GeocodeResult struct {
	Coords           *Coordinates
	Accuracy         Accuracy
	Confidence       float64
	City             string
	Country          string
	FormattedAddress string
	FromCache        bool
}

// GeocodeCacheEntry is one persisted resolution keyed by normalized address.
type GeocodeCacheEntry struct {
	Address   string
	Result    GeocodeResult
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry may no longer be served.
func (e GeocodeCacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
