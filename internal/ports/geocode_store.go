package ports

import (
	"context"
	"time"

	"route-optimizer-service/internal/domain"
)

// Port: a boundary for persisting geocode cache entries.
//
// Implementations are keyed by normalized address and must tolerate
// concurrent use; last writer wins per key. Expired entries must never be
// returned from Get.
type GeocodeStore interface {
	// Get returns the cached entry for a normalized address, or nil on a
	// miss or an expired entry.
	Get(ctx context.Context, address string) (*domain.GeocodeCacheEntry, error)
	// Put stores or replaces the entry for its address.
	Put(ctx context.Context, entry domain.GeocodeCacheEntry) error
	// Purge removes entries that expired before now and reports how many
	// were dropped.
	Purge(ctx context.Context, now time.Time) (int, error)
	// Len returns the number of stored entries, including not-yet-purged
	// expired ones.
	Len(ctx context.Context) (int, error)
}
