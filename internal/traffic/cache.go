// Package traffic holds the process-local cache of segment delay factors
// read by the travel-time estimator.
package traffic

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
)

// SampleFunc produces the current condition for a segment key. The default
// implementation is a deterministic stand-in for a live traffic feed.
type SampleFunc func(key string, now time.Time) domain.TrafficCondition

// Cache is an interval-refreshed table of traffic conditions keyed by
// origin-destination pair. There is no per-entry TTL: the whole table is
// considered stale once the refresh interval elapses and is resampled as a
// unit. Safe for concurrent use; last writer wins per key.
type Cache struct {
	mu          sync.RWMutex
	conditions  map[string]domain.TrafficCondition
	refreshedAt time.Time
	interval    time.Duration
	sample      SampleFunc
	now         func() time.Time
}

// NewCache builds a cache refreshed every interval. A nil sample uses the
// deterministic default.
func NewCache(interval time.Duration, sample SampleFunc) *Cache {
	if sample == nil {
		sample = DefaultSample
	}
	return &Cache{
		conditions: make(map[string]domain.TrafficCondition),
		interval:   interval,
		sample:     sample,
		now:        time.Now,
	}
}

// Get returns the condition for a segment, if one has been observed.
func (c *Cache) Get(from, to domain.Coordinates) (domain.TrafficCondition, bool) {
	key := domain.SegmentKey(from, to)
	c.mu.RLock()
	cond, ok := c.conditions[key]
	c.mu.RUnlock()
	return cond, ok
}

// Observe samples a segment on first sight and returns its condition.
// Already-tracked segments return the cached value until the next refresh.
func (c *Cache) Observe(from, to domain.Coordinates) domain.TrafficCondition {
	key := domain.SegmentKey(from, to)

	c.mu.RLock()
	cond, ok := c.conditions[key]
	c.mu.RUnlock()
	if ok {
		return cond
	}

	cond = c.sample(key, c.now())
	c.mu.Lock()
	c.conditions[key] = cond
	obs.TrafficSegments.Set(float64(len(c.conditions)))
	c.mu.Unlock()
	return cond
}

// Refresh resamples every tracked segment if the refresh interval has
// elapsed. Returns true when a resample happened.
func (c *Cache) Refresh() bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.refreshedAt.IsZero() && now.Sub(c.refreshedAt) < c.interval {
		return false
	}

	for key := range c.conditions {
		c.conditions[key] = c.sample(key, now)
	}
	c.refreshedAt = now
	return true
}

// Len returns the number of tracked segments.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conditions)
}

// Run periodically refreshes the cache until the context is cancelled.
// Intended to be started once from the composition root.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.Refresh() {
				log.Printf("op=traffic.refresh segments=%d", c.Len())
			}
		}
	}
}

// DefaultSample derives a plausible condition from the segment key and the
// hour of day. It keeps factors in [0.8, 1.6] with rush hours skewed slower.
func DefaultSample(key string, now time.Time) domain.TrafficCondition {
	h := fnv.New32a()
	h.Write([]byte(key))
	jitter := float64(h.Sum32()%40) / 100 // 0.00..0.39

	factor := 0.9 + jitter
	switch hr := now.Hour(); {
	case (hr >= 7 && hr < 9) || (hr >= 16 && hr < 18):
		factor += 0.3
	case hr >= 22 || hr < 6:
		factor -= 0.1
	}
	if factor < 0.8 {
		factor = 0.8
	}

	return domain.TrafficCondition{
		DelayFactor: factor,
		Level:       domain.LevelForFactor(factor),
	}
}

// Live is a view of the cache that samples unseen segments on first contact.
// The engine reads through this so every routed segment enters the refresh
// cycle.
type Live struct {
	C *Cache
}

func (l Live) Get(from, to domain.Coordinates) (domain.TrafficCondition, bool) {
	return l.C.Observe(from, to), true
}
