package engine

import (
	"fmt"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geo"
)

// filterFeasible drops deliveries that cannot plausibly be served on this
// run. Every exclusion uses a soft tolerance buffer rather than a hard
// cutoff, and each one is reported as a warning.
func (o *Optimizer) filterFeasible(
	driver domain.Coordinates,
	stops []domain.DeliveryStop,
	considered []int,
	vc domain.VehicleConstraints,
	now time.Time,
	res *domain.OptimizationResult,
) []int {
	feasible := make([]int, 0, len(considered))
	load := vc.CurrentLoadKg

	outsideHours := false
	if !vc.WorkStart.IsZero() && !vc.WorkEnd.IsZero() {
		buf := o.cfg.WorkingHoursBuffer
		outsideHours = now.Before(vc.WorkStart.Add(-buf)) || now.After(vc.WorkEnd.Add(buf))
	}

	for _, idx := range considered {
		stop := stops[idx]

		// A MaxDeliveries of zero means no per-run cap.
		if vc.MaxDeliveries > 0 && len(feasible) == vc.MaxDeliveries {
			res.AddWarning(fmt.Sprintf("delivery %s excluded: vehicle delivery limit of %d reached", stop.ID, vc.MaxDeliveries))
			continue
		}

		if projected := load + stop.WeightKg; projected > vc.MaxCapacityKg*o.cfg.CapacityTolerance {
			res.AddWarning(fmt.Sprintf("delivery %s excluded: projected load %.1fkg exceeds tolerated capacity", stop.ID, projected))
			continue
		}

		if outsideHours {
			res.AddWarning(fmt.Sprintf("delivery %s excluded: current time is outside working hours", stop.ID))
			continue
		}

		if stop.Window != nil && !windowReachable(driver, stop, now) {
			res.AddWarning(fmt.Sprintf("delivery %s excluded: time window cannot be met", stop.ID))
			continue
		}

		feasible = append(feasible, idx)
		load += stop.WeightKg
	}

	return feasible
}

// windowReachable estimates whether driving straight to the stop could still
// make its window. A generous direct-leg estimate avoids excluding stops the
// strategies might serve early.
func windowReachable(driver domain.Coordinates, stop domain.DeliveryStop, now time.Time) bool {
	if stop.Window.End.Before(now) {
		return false
	}
	direct := geo.TravelTime(geo.Distance(driver, *stop.Coords))
	return !now.Add(direct).After(stop.Window.End)
}
