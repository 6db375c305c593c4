package engine

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geo"
)

// runContext is the read-only input shared by every strategy in one
// optimization call. Strategies never mutate stops; they only produce index
// orderings.
type runContext struct {
	driver  domain.Coordinates
	stops   []domain.DeliveryStop
	indices []int // deliveries under consideration, in input order
	vc      domain.VehicleConstraints
	now     time.Time
	traffic geo.TrafficSource
}

func (rc *runContext) coords(i int) domain.Coordinates { return *rc.stops[i].Coords }

// strategyOutcome is one strategy's proposed ordering.
type strategyOutcome struct {
	route      []int
	distanceKm float64
	duration   time.Duration
	iterations int
}

// strategy is one member of the fixed set of routing heuristics. Each Run is
// independent, CPU-only, and must honor context cancellation between
// iterations.
type strategy interface {
	Name() string
	Run(ctx context.Context, rc *runContext) (strategyOutcome, error)
}

// nearestNeighbor picks the globally closest delivery to the driver first,
// then repeatedly the closest unvisited one. Ties break to the first
// delivery in input order.
type nearestNeighbor struct{}

func (nearestNeighbor) Name() string { return "nearest-neighbor" }

func (nearestNeighbor) Run(ctx context.Context, rc *runContext) (strategyOutcome, error) {
	var out strategyOutcome
	visited := make(map[int]bool, len(rc.indices))

	cur := rc.driver
	currentTime := rc.now

	for len(out.route) < len(rc.indices) {
		if err := ctx.Err(); err != nil {
			return strategyOutcome{}, err
		}

		best := -1
		bestDist := math.MaxFloat64
		// Strict less-than keeps the first minimum encountered, so equal
		// distances resolve to input order.
		for _, idx := range rc.indices {
			if visited[idx] {
				continue
			}
			if d := geo.Distance(cur, rc.coords(idx)); d < bestDist {
				bestDist = d
				best = idx
			}
		}

		stop := rc.stops[best]
		leg, _ := geo.DynamicTravelTime(cur, rc.coords(best), currentTime, rc.traffic)

		visited[best] = true
		out.route = append(out.route, best)
		out.distanceKm += bestDist
		currentTime = currentTime.Add(leg + stop.ServiceTime)
		out.duration += leg + stop.ServiceTime
		out.iterations++

		cur = rc.coords(best)
	}

	return out, nil
}

// timeWindowPriority sequences deliveries by descending urgency: the fixed
// priority weight plus escalating bonuses as a time-window deadline
// approaches. It does not re-optimize geographically.
type timeWindowPriority struct{}

func (timeWindowPriority) Name() string { return "time-window-priority" }

func (timeWindowPriority) Run(ctx context.Context, rc *runContext) (strategyOutcome, error) {
	if err := ctx.Err(); err != nil {
		return strategyOutcome{}, err
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(rc.indices))
	for _, idx := range rc.indices {
		stop := rc.stops[idx]
		s := stop.Priority.Weight()
		if stop.Window != nil {
			switch until := stop.Window.End.Sub(rc.now); {
			case until <= time.Hour:
				s += 30
			case until <= 2*time.Hour:
				s += 20
			case until <= 4*time.Hour:
				s += 10
			}
		}
		ranked = append(ranked, scored{idx: idx, score: s})
	}

	// Stable sort keeps input order among equal urgencies.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var out strategyOutcome
	cur := rc.driver
	currentTime := rc.now
	for _, r := range ranked {
		leg, _ := geo.DynamicTravelTime(cur, rc.coords(r.idx), currentTime, rc.traffic)
		out.route = append(out.route, r.idx)
		out.distanceKm += geo.Distance(cur, rc.coords(r.idx))
		currentTime = currentTime.Add(leg + rc.stops[r.idx].ServiceTime)
		out.duration += leg + rc.stops[r.idx].ServiceTime
		out.iterations++
		cur = rc.coords(r.idx)
	}

	return out, nil
}

// hybridScore greedily maximizes a composite of distance, travel time,
// priority, time-window fit and capacity efficiency at each step. Only used
// for small clusters; the scoring loop is quadratic.
type hybridScore struct{}

func (hybridScore) Name() string { return "hybrid-score" }

func (hybridScore) Run(ctx context.Context, rc *runContext) (strategyOutcome, error) {
	var out strategyOutcome
	visited := make(map[int]bool, len(rc.indices))

	cur := rc.driver
	currentTime := rc.now
	load := rc.vc.CurrentLoadKg

	for len(out.route) < len(rc.indices) {
		if err := ctx.Err(); err != nil {
			return strategyOutcome{}, err
		}

		best := -1
		bestScore := math.Inf(-1)
		bestDist := 0.0
		var bestLeg time.Duration

		for _, idx := range rc.indices {
			if visited[idx] {
				continue
			}
			stop := rc.stops[idx]
			d := geo.Distance(cur, rc.coords(idx))
			leg, _ := geo.DynamicTravelTime(cur, rc.coords(idx), currentTime, rc.traffic)

			score := 100 - 2*d - 0.5*leg.Minutes() + 10*stop.Priority.Weight()

			if stop.Window != nil {
				arrival := currentTime.Add(leg)
				if !arrival.After(stop.Window.End) {
					score += 20
				} else {
					score -= 50
				}
			}

			if load+stop.WeightKg <= rc.vc.MaxCapacityKg {
				// Capacity-efficiency bonus favors stops while the truck
				// still has headroom.
				score += 5 * (1 - load/rc.vc.MaxCapacityKg)
			} else {
				score -= 100
			}

			// Strict greater-than keeps input order on ties.
			if score > bestScore {
				bestScore = score
				best = idx
				bestDist = d
				bestLeg = leg
			}
		}

		stop := rc.stops[best]
		visited[best] = true
		out.route = append(out.route, best)
		out.distanceKm += bestDist
		currentTime = currentTime.Add(bestLeg + stop.ServiceTime)
		out.duration += bestLeg + stop.ServiceTime
		out.iterations++
		load += stop.WeightKg
		cur = rc.coords(best)
	}

	return out, nil
}

// settled is one strategy's terminal state after the all-settled join.
type settled struct {
	name    string
	outcome strategyOutcome
	err     error
}

// runAll executes every strategy concurrently and waits for all of them.
// A strategy failure never cancels its siblings; the caller filters errors.
func runAll(ctx context.Context, strategies []strategy, rc *runContext) []settled {
	results := make([]settled, len(strategies))

	var wg sync.WaitGroup
	for i, s := range strategies {
		wg.Add(1)
		go func(i int, s strategy) {
			defer wg.Done()
			out, err := s.Run(ctx, rc)
			results[i] = settled{name: s.Name(), outcome: out, err: err}
		}(i, s)
	}
	wg.Wait()

	return results
}
