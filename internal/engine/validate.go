package engine

import "fmt"

// validateRoute checks that the route references every expected delivery
// index exactly once. Violations are reported, never panicked on; the
// caller returns the result regardless.
func validateRoute(route, expected []int) []string {
	var errs []string

	want := make(map[int]bool, len(expected))
	for _, idx := range expected {
		want[idx] = true
	}

	seen := make(map[int]bool, len(route))
	for _, idx := range route {
		if !want[idx] {
			errs = append(errs, fmt.Sprintf("route references out-of-range delivery index %d", idx))
			continue
		}
		if seen[idx] {
			errs = append(errs, fmt.Sprintf("route references delivery index %d more than once", idx))
			continue
		}
		seen[idx] = true
	}

	for _, idx := range expected {
		if !seen[idx] {
			errs = append(errs, fmt.Sprintf("route omits delivery index %d", idx))
		}
	}

	return errs
}
