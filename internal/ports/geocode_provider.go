package ports

import (
	"context"
	"errors"

	"route-optimizer-service/internal/domain"
)

// ErrNoResult is returned by a provider when the address produced no match.
// It is not a transport failure; the resolver treats it as "try the next
// provider".
var ErrNoResult = errors.New("geocode provider: no result")

// Contract for a single third-party geocoding backend.
type GeocodeProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Geocode resolves one address. Transport failures are retried inside
	// the provider; exhausted retries surface as an error.
	Geocode(ctx context.Context, address string) (*domain.GeocodeResult, error)
}
