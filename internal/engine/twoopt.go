package engine

import (
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geo"
)

const twoOptEps = 1e-9

// routeDistance totals the haversine legs of an open route starting at the
// driver's position.
func routeDistance(driver domain.Coordinates, stops []domain.DeliveryStop, route []int) float64 {
	total := 0.0
	cur := driver
	for _, idx := range route {
		next := *stops[idx].Coords
		total += geo.Distance(cur, next)
		cur = next
	}
	return total
}

// twoOpt runs first-improvement 2-opt on an open route: it reverses a
// segment only when that strictly shortens the total distance, and is
// bounded to maxPasses full scans so it always terminates.
func twoOpt(driver domain.Coordinates, stops []domain.DeliveryStop, route []int, maxPasses int) ([]int, float64, int) {
	n := len(route)
	best := make([]int, n)
	copy(best, route)

	if n < 3 || maxPasses <= 0 {
		return best, routeDistance(driver, stops, best), 0
	}

	pos := func(i int) domain.Coordinates { return *stops[best[i]].Coords }
	total := routeDistance(driver, stops, best)

	passes := 0
	for passes < maxPasses {
		passes++
		improved := false

		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				// Reversing best[i..k] only changes the edge into i and the
				// edge out of k; interior legs are symmetric.
				prev := driver
				if i > 0 {
					prev = pos(i - 1)
				}

				oldIn := geo.Distance(prev, pos(i))
				newIn := geo.Distance(prev, pos(k))

				oldOut, newOut := 0.0, 0.0
				if k < n-1 {
					oldOut = geo.Distance(pos(k), pos(k+1))
					newOut = geo.Distance(pos(i), pos(k+1))
				}

				delta := (newIn + newOut) - (oldIn + oldOut)
				if delta < -twoOptEps {
					reverse(best[i : k+1])
					total += delta
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return best, total, passes
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
