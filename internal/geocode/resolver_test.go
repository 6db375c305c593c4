package geocode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"route-optimizer-service/internal/adapters/geoprovider"
	"route-optimizer-service/internal/adapters/geostore"
	"route-optimizer-service/internal/domain"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinRequestInterval = 0
	cfg.SubBatchDelay = 0
	return cfg
}

func downtown() domain.GeocodeResult {
	return domain.GeocodeResult{
		Coords:     &domain.Coordinates{Lat: 43.6532, Lon: -79.3832},
		Accuracy:   domain.AccuracyHigh,
		Confidence: 0.9,
	}
}

func TestResolveCachesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	norm := Normalize("100 Queen St W", testConfig().RegionQualifier)

	primary := geoprovider.NewMock("primary", map[string]domain.GeocodeResult{norm: downtown()})
	r := New(geostore.NewMemory(), primary, nil, testConfig())

	first := r.Resolve(ctx, "100 Queen St W")
	require.NotNil(t, first.Coords)
	require.False(t, first.FromCache)
	require.Equal(t, int64(1), primary.Calls.Load())

	second := r.Resolve(ctx, " 100  queen street west ")
	require.NotNil(t, second.Coords)
	require.True(t, second.FromCache, "second resolve must come from cache")
	require.Equal(t, *first.Coords, *second.Coords)
	require.Equal(t, int64(1), primary.Calls.Load(), "no extra network call expected")
}

func TestResolveFallsBackOnLowRelevance(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	norm := Normalize("10 Dundas St E", cfg.RegionQualifier)

	weak := downtown()
	weak.Confidence = 0.2

	primary := geoprovider.NewMock("primary", map[string]domain.GeocodeResult{norm: weak})
	fallback := geoprovider.NewMock("fallback", map[string]domain.GeocodeResult{norm: downtown()})
	r := New(geostore.NewMemory(), primary, fallback, cfg)

	got := r.Resolve(ctx, "10 Dundas St E")
	require.NotNil(t, got.Coords)
	require.Equal(t, int64(1), primary.Calls.Load())
	require.Equal(t, int64(1), fallback.Calls.Load(), "fallback should have been consulted")
}

func TestResolveRejectsOutOfRegionCoordinates(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	norm := Normalize("somewhere far away", cfg.RegionQualifier)

	montreal := domain.GeocodeResult{
		Coords:     &domain.Coordinates{Lat: 45.5019, Lon: -73.5674},
		Accuracy:   domain.AccuracyHigh,
		Confidence: 0.99,
	}

	primary := geoprovider.NewMock("primary", map[string]domain.GeocodeResult{norm: montreal})
	fallback := geoprovider.NewMock("fallback", map[string]domain.GeocodeResult{norm: montreal})
	r := New(geostore.NewMemory(), primary, fallback, cfg)

	got := r.Resolve(ctx, "somewhere far away")
	require.Nil(t, got.Coords, "out-of-region coordinates must be rejected")
	require.Equal(t, domain.AccuracyLow, got.Accuracy)
}

func TestResolveDegradesOnProviderFailure(t *testing.T) {
	ctx := context.Background()

	primary := geoprovider.NewMock("primary", nil)
	primary.Err = errors.New("upstream down")
	r := New(geostore.NewMemory(), primary, nil, testConfig())

	got := r.Resolve(ctx, "100 Queen St W")
	require.Nil(t, got.Coords)
	require.Equal(t, domain.AccuracyLow, got.Accuracy)
	require.False(t, got.FromCache)
}

func TestResolveDeduplicatesInFlightRequests(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	// A small request interval holds the first flight open long enough for
	// the others to join it.
	cfg.MinRequestInterval = 50 * time.Millisecond
	norm := Normalize("100 Queen St W", cfg.RegionQualifier)

	primary := geoprovider.NewMock("primary", map[string]domain.GeocodeResult{norm: downtown()})
	r := New(geostore.NewMemory(), primary, nil, cfg)
	r.lastRequest = time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.Resolve(ctx, "100 Queen St W")
			if got.Coords == nil {
				t.Error("expected coordinates")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), primary.Calls.Load(), "concurrent lookups must share one request")
}

func TestResolveBatchPreservesOrder(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	addrs := []string{"100 Queen St W", "10 Dundas St E", "301 Front St W"}
	coords := []domain.Coordinates{
		{Lat: 43.6525, Lon: -79.3839},
		{Lat: 43.6561, Lon: -79.3803},
		{Lat: 43.6426, Lon: -79.3871},
	}
	results := make(map[string]domain.GeocodeResult, len(addrs))
	for i, a := range addrs {
		c := coords[i]
		results[Normalize(a, cfg.RegionQualifier)] = domain.GeocodeResult{
			Coords: &c, Accuracy: domain.AccuracyHigh, Confidence: 0.9,
		}
	}

	primary := geoprovider.NewMock("primary", results)
	r := New(geostore.NewMemory(), primary, nil, cfg)

	got, err := r.ResolveBatch(ctx, addrs)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range addrs {
		require.NotNil(t, got[i].Coords, "address %d", i)
		require.InDelta(t, coords[i].Lat, got[i].Coords.Lat, 1e-9, "address %d out of order", i)
	}
}

func TestResolveBatchBounds(t *testing.T) {
	r := New(geostore.NewMemory(), nil, nil, testConfig())

	_, err := r.ResolveBatch(context.Background(), nil)
	require.Error(t, err)

	big := make([]string, MaxBatchSize+1)
	for i := range big {
		big[i] = "x"
	}
	_, err = r.ResolveBatch(context.Background(), big)
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	norm := Normalize("100 Queen St W", cfg.RegionQualifier)

	primary := geoprovider.NewMock("primary", map[string]domain.GeocodeResult{norm: downtown()})
	r := New(geostore.NewMemory(), primary, nil, cfg)

	r.Resolve(ctx, "100 Queen St W") // miss + resolve
	r.Resolve(ctx, "100 Queen St W") // hit

	s := r.Stats(ctx)
	require.Equal(t, uint64(1), s.Hits)
	require.Equal(t, uint64(1), s.Misses)
	require.Equal(t, 1, s.Entries)
	require.Equal(t, uint64(1), s.ByAccuracy[domain.AccuracyHigh])
	require.InDelta(t, 0.9, s.AvgConfidence, 1e-9)
}
