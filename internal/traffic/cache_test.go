package traffic

import (
	"sync"
	"testing"
	"time"

	"route-optimizer-service/internal/domain"
)

var (
	from = domain.Coordinates{Lat: 43.6532, Lon: -79.3832}
	to   = domain.Coordinates{Lat: 43.7000, Lon: -79.4000}
)

func TestObserveIsStableUntilRefresh(t *testing.T) {
	c := NewCache(15*time.Minute, nil)

	first := c.Observe(from, to)
	second := c.Observe(from, to)
	if first != second {
		t.Fatalf("observe resampled before refresh: %v vs %v", first, second)
	}

	got, ok := c.Get(from, to)
	if !ok || got != first {
		t.Fatalf("get after observe = %v %v, want %v", got, ok, first)
	}
}

func TestGetMissesUntrackedSegment(t *testing.T) {
	c := NewCache(15*time.Minute, nil)
	if _, ok := c.Get(from, to); ok {
		t.Fatal("expected miss for untracked segment")
	}
}

func TestRefreshHonorsInterval(t *testing.T) {
	samples := 0
	sample := func(key string, now time.Time) domain.TrafficCondition {
		samples++
		return domain.TrafficCondition{DelayFactor: 1.0}
	}

	current := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c := NewCache(15*time.Minute, sample)
	c.now = func() time.Time { return current }

	c.Observe(from, to)
	if samples != 1 {
		t.Fatalf("samples = %d after observe, want 1", samples)
	}

	if !c.Refresh() {
		t.Fatal("first refresh should resample")
	}
	if c.Refresh() {
		t.Fatal("second refresh within interval should be a no-op")
	}

	current = current.Add(16 * time.Minute)
	if !c.Refresh() {
		t.Fatal("refresh after interval should resample")
	}
	if samples != 3 {
		t.Fatalf("samples = %d, want 3", samples)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCache(time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p := domain.Coordinates{Lat: 43.6 + float64(n)/100, Lon: -79.4}
			for j := 0; j < 100; j++ {
				c.Observe(from, p)
				c.Get(from, p)
				c.Refresh()
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 8 {
		t.Fatalf("tracked segments = %d, want 8", c.Len())
	}
}

func TestDefaultSampleDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	a := DefaultSample("k", now)
	b := DefaultSample("k", now)
	if a != b {
		t.Fatalf("default sample not deterministic: %v vs %v", a, b)
	}
	if a.DelayFactor < 0.8 || a.DelayFactor > 1.7 {
		t.Fatalf("delay factor %v out of expected range", a.DelayFactor)
	}
}

func TestLiveSamplesOnFirstGet(t *testing.T) {
	c := NewCache(time.Minute, func(key string, now time.Time) domain.TrafficCondition {
		return domain.TrafficCondition{DelayFactor: 1.3, Level: domain.CongestionModerate}
	})
	live := Live{C: c}

	from := domain.Coordinates{Lat: 43.65, Lon: -79.38}
	to := domain.Coordinates{Lat: 43.66, Lon: -79.39}

	if _, ok := c.Get(from, to); ok {
		t.Fatal("segment should start untracked")
	}
	cond, ok := live.Get(from, to)
	if !ok || cond.DelayFactor != 1.3 {
		t.Fatalf("live get = %v %v", cond, ok)
	}
	if _, ok := c.Get(from, to); !ok {
		t.Fatal("segment should be tracked after a live read")
	}
}
