// Package geocode resolves free-text addresses into coordinates through a
// cache-first, rate-limited provider chain.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

// MaxBatchSize is the hard cap on addresses per ResolveBatch call.
const MaxBatchSize = 25

// Config carries the resolver tunables.
type Config struct {
	// Region is the operating bounding box; results outside it are
	// rejected regardless of provider confidence.
	Region domain.BoundingBox
	// RegionQualifier is appended to addresses that do not name the region.
	RegionQualifier string
	// MinRequestInterval is the process-wide floor between outbound
	// provider requests.
	MinRequestInterval time.Duration
	// SubBatchSize and SubBatchDelay pace ResolveBatch under provider
	// rate limits.
	SubBatchSize  int
	SubBatchDelay time.Duration
	// RelevanceThreshold is the minimum primary-provider confidence
	// accepted before falling back.
	RelevanceThreshold float64
	// TTL is how long a cached resolution stays valid.
	TTL time.Duration
}

// DefaultConfig returns production defaults: Greater Toronto region, the
// open-data provider's 1.1s courtesy interval, and a 30-day cache TTL.
func DefaultConfig() Config {
	return Config{
		Region:             domain.GreaterToronto,
		RegionQualifier:    "Toronto, ON, Canada",
		MinRequestInterval: 1100 * time.Millisecond,
		SubBatchSize:       5,
		SubBatchDelay:      500 * time.Millisecond,
		RelevanceThreshold: 0.5,
		TTL:                30 * 24 * time.Hour,
	}
}

// Resolver coordinates normalization, the persistent TTL cache, in-flight
// de-duplication, rate limiting and the provider chain. Safe for concurrent
// use; construct one per isolated cache (tests build their own instances).
type Resolver struct {
	cfg      Config
	store    ports.GeocodeStore
	primary  ports.GeocodeProvider
	fallback ports.GeocodeProvider

	group singleflight.Group

	// limiterMu serializes outbound requests process-wide.
	limiterMu   sync.Mutex
	lastRequest time.Time

	now func() time.Time

	statsMu       sync.Mutex
	hits          uint64
	misses        uint64
	byAccuracy    map[domain.Accuracy]uint64
	confidenceSum float64
	resolved      uint64
}

// New builds a resolver. Either provider may be nil; at least one must be
// set for network resolution to happen.
func New(store ports.GeocodeStore, primary, fallback ports.GeocodeProvider, cfg Config) *Resolver {
	if cfg.SubBatchSize <= 0 {
		cfg.SubBatchSize = 5
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	return &Resolver{
		cfg:        cfg,
		store:      store,
		primary:    primary,
		fallback:   fallback,
		now:        time.Now,
		byAccuracy: make(map[domain.Accuracy]uint64),
	}
}

// Resolve returns coordinates for one address. It never returns an error:
// every failure mode degrades to a result with nil coordinates and low
// accuracy. Cache hits are marked FromCache.
func (r *Resolver) Resolve(ctx context.Context, address string) domain.GeocodeResult {
	norm := Normalize(address, r.cfg.RegionQualifier)
	if norm == "" {
		return domain.GeocodeResult{Accuracy: domain.AccuracyLow}
	}

	if res, ok := r.fromCache(ctx, norm); ok {
		return res
	}

	// Near-simultaneous lookups for the same normalized address share one
	// in-flight request.
	v, _, _ := r.group.Do(norm, func() (interface{}, error) {
		// Another flight may have populated the cache while we queued.
		if res, ok := r.fromCache(ctx, norm); ok {
			return res, nil
		}
		return r.lookup(ctx, norm), nil
	})

	res := v.(domain.GeocodeResult)
	return res
}

// ResolveBatch resolves up to MaxBatchSize addresses, preserving input
// order in the returned slice regardless of completion order.
func (r *Resolver) ResolveBatch(ctx context.Context, addresses []string) (_ []domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.ResolveBatch")(&err)

	if len(addresses) == 0 {
		return nil, errors.New("resolve batch: no addresses given")
	}
	if len(addresses) > MaxBatchSize {
		return nil, fmt.Errorf("resolve batch: %d addresses exceeds maximum of %d", len(addresses), MaxBatchSize)
	}

	results := make([]domain.GeocodeResult, len(addresses))

	for start := 0; start < len(addresses); start += r.cfg.SubBatchSize {
		end := start + r.cfg.SubBatchSize
		if end > len(addresses) {
			end = len(addresses)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = r.Resolve(ctx, addresses[i])
			}(i)
		}
		wg.Wait()

		if end < len(addresses) && r.cfg.SubBatchDelay > 0 {
			timer := time.NewTimer(r.cfg.SubBatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, nil
			case <-timer.C:
			}
		}
	}

	return results, nil
}

func (r *Resolver) fromCache(ctx context.Context, norm string) (domain.GeocodeResult, bool) {
	if r.store == nil {
		return domain.GeocodeResult{}, false
	}

	entry, err := r.store.Get(ctx, norm)
	if err != nil {
		log.Printf("op=geocode.cache.get addr=%q err=%v", norm, err)
		return domain.GeocodeResult{}, false
	}
	if entry == nil {
		return domain.GeocodeResult{}, false
	}

	res := entry.Result
	res.FromCache = true

	r.statsMu.Lock()
	r.hits++
	r.statsMu.Unlock()
	obs.GeocodeCacheHits.Inc()

	return res, true
}

// lookup runs the provider chain for one normalized address and persists a
// successful result.
func (r *Resolver) lookup(ctx context.Context, norm string) domain.GeocodeResult {
	r.statsMu.Lock()
	r.misses++
	r.statsMu.Unlock()
	obs.GeocodeCacheMisses.Inc()

	res := r.queryProviders(ctx, norm)
	if res.Coords == nil {
		return res
	}

	if r.store != nil {
		now := r.now()
		entry := domain.GeocodeCacheEntry{
			Address:   norm,
			Result:    res,
			CreatedAt: now,
			ExpiresAt: now.Add(r.cfg.TTL),
		}
		// Cache write failure degrades to uncached operation, not an error.
		if err := r.store.Put(ctx, entry); err != nil {
			log.Printf("op=geocode.cache.put addr=%q err=%v", norm, err)
		}
	}

	r.recordResolution(res)
	return res
}

func (r *Resolver) queryProviders(ctx context.Context, norm string) domain.GeocodeResult {
	degraded := domain.GeocodeResult{Accuracy: domain.AccuracyLow}

	if r.primary != nil {
		r.waitTurn(ctx)
		res, err := r.primary.Geocode(ctx, norm)
		switch {
		case err != nil:
			if !errors.Is(err, ports.ErrNoResult) {
				log.Printf("op=geocode.provider provider=%s addr=%q err=%v", r.primary.Name(), norm, err)
			}
		case res.Confidence < r.cfg.RelevanceThreshold:
			log.Printf("op=geocode.provider provider=%s addr=%q low_confidence=%.2f", r.primary.Name(), norm, res.Confidence)
		case !r.inRegion(res):
			log.Printf("op=geocode.provider provider=%s addr=%q out_of_region", r.primary.Name(), norm)
		default:
			return *res
		}
	}

	if r.fallback != nil {
		r.waitTurn(ctx)
		res, err := r.fallback.Geocode(ctx, norm)
		switch {
		case err != nil:
			if !errors.Is(err, ports.ErrNoResult) {
				log.Printf("op=geocode.provider provider=%s addr=%q err=%v", r.fallback.Name(), norm, err)
			}
		case !r.inRegion(res):
			log.Printf("op=geocode.provider provider=%s addr=%q out_of_region", r.fallback.Name(), norm)
		default:
			return *res
		}
	}

	return degraded
}

func (r *Resolver) inRegion(res *domain.GeocodeResult) bool {
	return res.Coords != nil && res.Coords.Valid() && r.cfg.Region.Contains(*res.Coords)
}

// waitTurn enforces the process-wide minimum interval between outbound
// provider requests. Context cancellation cuts the wait short; the caller's
// request will then fail on its own context check.
func (r *Resolver) waitTurn(ctx context.Context) {
	if r.cfg.MinRequestInterval <= 0 {
		return
	}

	r.limiterMu.Lock()
	defer r.limiterMu.Unlock()

	elapsed := r.now().Sub(r.lastRequest)
	if wait := r.cfg.MinRequestInterval - elapsed; wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	r.lastRequest = r.now()
}

func (r *Resolver) recordResolution(res domain.GeocodeResult) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.resolved++
	r.byAccuracy[res.Accuracy]++
	r.confidenceSum += res.Confidence
}

// Stats is an aggregate view of cache and resolution activity.
type Stats struct {
	Entries       int                        `json:"entries"`
	Hits          uint64                     `json:"hits"`
	Misses        uint64                     `json:"misses"`
	ByAccuracy    map[domain.Accuracy]uint64 `json:"by_accuracy"`
	AvgConfidence float64                    `json:"avg_confidence"`
}

// Stats reports cache hit counts, the accuracy-tier breakdown and the
// average confidence of network resolutions.
func (r *Resolver) Stats(ctx context.Context) Stats {
	r.statsMu.Lock()
	s := Stats{
		Hits:       r.hits,
		Misses:     r.misses,
		ByAccuracy: make(map[domain.Accuracy]uint64, len(r.byAccuracy)),
	}
	for k, v := range r.byAccuracy {
		s.ByAccuracy[k] = v
	}
	if r.resolved > 0 {
		s.AvgConfidence = r.confidenceSum / float64(r.resolved)
	}
	r.statsMu.Unlock()

	if r.store != nil {
		if n, err := r.store.Len(ctx); err == nil {
			s.Entries = n
		}
	}
	return s
}
