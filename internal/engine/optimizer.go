// Package engine plans delivery stop orders. It runs a fixed set of
// heuristic strategies concurrently over a validated delivery list, selects
// the best-scoring result, and applies an optional 2-opt improvement pass.
//
// Optimize never returns an error and never panics past its boundary: every
// failure mode degrades to a structured result whose IsValid flag and
// warning list communicate reduced confidence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geo"
	"route-optimizer-service/internal/platform/obs"
)

const fallbackAlgorithm = "sequential-fallback"

// Config carries the engine tunables. The zero value is unusable; use
// DefaultConfig and override fields as needed.
type Config struct {
	// MaxDeliveries is the hard cap per optimization call.
	MaxDeliveries int
	// CapacityTolerance is the soft multiplier applied to vehicle capacity
	// during feasibility filtering.
	CapacityTolerance float64
	// WorkingHoursBuffer pads the vehicle's working window before a
	// delivery is considered unreachable.
	WorkingHoursBuffer time.Duration
	// ClusterSizeLimit bounds the delivery count for the quadratic hybrid
	// strategy.
	ClusterSizeLimit int
	// Timeout is the aggregate wall-clock budget for one Optimize call.
	Timeout time.Duration
	// TwoOptMaxPasses bounds the local-improvement scan count.
	TwoOptMaxPasses int
	// FallbackStopTime is the coarse per-stop estimate used by the
	// sequential fallback.
	FallbackStopTime time.Duration
	// LocalImprovement toggles the 2-opt pass on valid results.
	LocalImprovement bool
}

func DefaultConfig() Config {
	return Config{
		MaxDeliveries:      100,
		CapacityTolerance:  1.2,
		WorkingHoursBuffer: 2 * time.Hour,
		ClusterSizeLimit:   8,
		Timeout:            5 * time.Second,
		TwoOptMaxPasses:    10,
		FallbackStopTime:   30 * time.Minute,
		LocalImprovement:   true,
	}
}

// Optimizer plans stop orders against a traffic source. Safe for concurrent
// use; it holds no per-call state.
type Optimizer struct {
	cfg     Config
	traffic geo.TrafficSource
}

// New builds an Optimizer. traffic may be nil, in which case time-of-day
// multipliers apply everywhere.
func New(traffic geo.TrafficSource, cfg Config) *Optimizer {
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 100
	}
	if cfg.CapacityTolerance <= 0 {
		cfg.CapacityTolerance = 1.2
	}
	if cfg.ClusterSizeLimit <= 0 {
		cfg.ClusterSizeLimit = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FallbackStopTime <= 0 {
		cfg.FallbackStopTime = 30 * time.Minute
	}
	return &Optimizer{cfg: cfg, traffic: traffic}
}

// Optimize plans a stop order for the deliveries. The returned route holds
// indices into the caller's slice; input stops are never mutated.
func (o *Optimizer) Optimize(
	ctx context.Context,
	driver domain.Coordinates,
	deliveries []domain.DeliveryStop,
	vc domain.VehicleConstraints,
	now time.Time,
) domain.OptimizationResult {
	start := time.Now()
	defer func() {
		obs.OptimizeDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	res := domain.OptimizationResult{Route: []int{}}

	// Input validation: surfaced immediately, no partial work performed.
	if !driver.Valid() {
		res.AddError(fmt.Sprintf("driver location out of range: %.4f,%.4f", driver.Lat, driver.Lon))
		return res
	}
	if len(deliveries) > o.cfg.MaxDeliveries {
		res.AddError(fmt.Sprintf("delivery list of %d exceeds maximum of %d", len(deliveries), o.cfg.MaxDeliveries))
		return res
	}
	if err := vc.Validate(); err != nil {
		res.AddError(err.Error())
		return res
	}

	// Stops without usable coordinates are filtered, not fatal.
	considered := make([]int, 0, len(deliveries))
	for i, d := range deliveries {
		if d.HasValidCoords() {
			considered = append(considered, i)
			continue
		}
		res.AddWarning(fmt.Sprintf("delivery %s skipped: no valid coordinates", d.ID))
	}

	if len(considered) == 0 {
		res.IsValid = true
		res.Algorithm = "none"
		return res
	}

	feasible := o.filterFeasible(driver, deliveries, considered, vc, now, &res)
	if len(feasible) == 0 {
		// Filtering everything out would strand the caller; optimize the
		// full set instead.
		feasible = considered
		res.AddWarning("feasibility filter excluded all deliveries; optimizing unfiltered set")
	}

	rc := &runContext{
		driver:  driver,
		stops:   deliveries,
		indices: feasible,
		vc:      vc,
		now:     now,
		traffic: o.traffic,
	}

	strategies := []strategy{nearestNeighbor{}, timeWindowPriority{}}
	if len(feasible) <= o.cfg.ClusterSizeLimit {
		strategies = append(strategies, hybridScore{})
	}
	for _, s := range strategies {
		res.AlgorithmsTried = append(res.AlgorithmsTried, s.Name())
	}

	tctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	outcomes := runAll(tctx, strategies, rc)

	var best *settled
	for i := range outcomes {
		s := &outcomes[i]
		if s.err != nil {
			if !errors.Is(s.err, context.DeadlineExceeded) && !errors.Is(s.err, context.Canceled) {
				res.AddWarning(fmt.Sprintf("strategy %s failed: %v", s.name, s.err))
			}
			continue
		}
		if best == nil || s.outcome.distanceKm < best.outcome.distanceKm {
			best = s
		}
	}

	if best == nil {
		if tctx.Err() != nil {
			res.AddWarning("optimization timed out; returning sequential fallback route")
		} else {
			res.AddWarning("all strategies failed; returning sequential fallback route")
		}
		o.sequentialFallback(rc, &res)
		res.ClampNonNegative()
		obs.StrategyWins.WithLabelValues(res.Algorithm).Inc()
		return res
	}

	res.Route = best.outcome.route
	res.TotalDistanceKm = best.outcome.distanceKm
	res.Algorithm = best.name
	res.Iterations = best.outcome.iterations

	// Post-hoc integrity check: violations are flagged and clamped, the
	// result is still returned.
	if errs := validateRoute(res.Route, feasible); len(errs) > 0 {
		for _, e := range errs {
			res.AddError(e)
		}
		res.IsValid = false
	} else {
		res.IsValid = true
	}

	if res.IsValid && o.cfg.LocalImprovement && len(res.Route) >= 3 {
		improved, dist, _ := twoOpt(driver, deliveries, res.Route, o.cfg.TwoOptMaxPasses)
		if dist < res.TotalDistanceKm-twoOptEps {
			res.Route = improved
			res.TotalDistanceKm = dist
		}
	}

	// Annotation runs on the final stop order so ETAs and traffic factors
	// always describe the route that is returned.
	o.annotate(rc, &res)
	res.ClampNonNegative()

	obs.StrategyWins.WithLabelValues(res.Algorithm).Inc()
	return res
}

// annotate computes per-stop ETAs, per-leg traffic factors and the total
// time for the selected route.
func (o *Optimizer) annotate(rc *runContext, res *domain.OptimizationResult) {
	res.ETAs = make([]time.Time, 0, len(res.Route))
	res.TrafficFactors = make([]float64, 0, len(res.Route))

	cur := rc.driver
	t := rc.now
	for _, idx := range res.Route {
		next := rc.coords(idx)
		leg, factor := geo.DynamicTravelTime(cur, next, t, rc.traffic)
		t = t.Add(leg)
		res.ETAs = append(res.ETAs, t)
		res.TrafficFactors = append(res.TrafficFactors, factor)
		t = t.Add(rc.stops[idx].ServiceTime)
		cur = next
	}
	res.TotalTime = t.Sub(rc.now)
}

// sequentialFallback routes deliveries in input order with coarse per-stop
// time estimates. Used when every strategy failed or the call timed out.
func (o *Optimizer) sequentialFallback(rc *runContext, res *domain.OptimizationResult) {
	res.Algorithm = fallbackAlgorithm
	res.IsValid = false
	res.Route = make([]int, len(rc.indices))
	copy(res.Route, rc.indices)

	res.ETAs = make([]time.Time, 0, len(res.Route))
	res.TrafficFactors = make([]float64, 0, len(res.Route))

	cur := rc.driver
	t := rc.now
	total := 0.0
	for _, idx := range res.Route {
		next := rc.coords(idx)
		total += geo.Distance(cur, next)
		t = t.Add(o.cfg.FallbackStopTime)
		res.ETAs = append(res.ETAs, t)
		res.TrafficFactors = append(res.TrafficFactors, 1.0)
		cur = next
	}

	res.TotalDistanceKm = total
	res.TotalTime = time.Duration(len(res.Route)) * o.cfg.FallbackStopTime
	res.Iterations = len(res.Route)
}
