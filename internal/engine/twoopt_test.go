package engine

import (
	"testing"

	"route-optimizer-service/internal/domain"
)

func TestTwoOptUncrossesRoute(t *testing.T) {
	driver := domain.Coordinates{Lat: 43.6500, Lon: -79.4000}
	// Four stops on a line heading north. Visiting them out of order forces
	// the route to double back twice.
	list := []domain.DeliveryStop{
		{ID: "a", Coords: coords(43.66, -79.40)},
		{ID: "b", Coords: coords(43.67, -79.40)},
		{ID: "c", Coords: coords(43.68, -79.40)},
		{ID: "d", Coords: coords(43.69, -79.40)},
	}
	crossed := []int{0, 2, 1, 3}

	improved, dist, passes := twoOpt(driver, list, crossed, 10)

	want := []int{0, 1, 2, 3}
	for i := range want {
		if improved[i] != want[i] {
			t.Fatalf("route = %v, want %v", improved, want)
		}
	}
	if before := routeDistance(driver, list, crossed); dist >= before {
		t.Fatalf("distance %.4f not improved over %.4f", dist, before)
	}
	if passes == 0 {
		t.Fatal("expected at least one improvement pass")
	}
}

func TestTwoOptLeavesOptimalRouteAlone(t *testing.T) {
	driver := domain.Coordinates{Lat: 43.6500, Lon: -79.4000}
	list := []domain.DeliveryStop{
		{ID: "a", Coords: coords(43.66, -79.40)},
		{ID: "b", Coords: coords(43.67, -79.40)},
		{ID: "c", Coords: coords(43.68, -79.40)},
	}
	route := []int{0, 1, 2}

	improved, dist, _ := twoOpt(driver, list, route, 10)

	for i := range route {
		if improved[i] != route[i] {
			t.Fatalf("route changed to %v", improved)
		}
	}
	if want := routeDistance(driver, list, route); dist != want {
		t.Fatalf("distance = %.4f, want %.4f", dist, want)
	}
}

func TestTwoOptShortInputs(t *testing.T) {
	driver := domain.Coordinates{Lat: 43.65, Lon: -79.40}
	list := []domain.DeliveryStop{
		{ID: "a", Coords: coords(43.66, -79.40)},
		{ID: "b", Coords: coords(43.67, -79.40)},
	}

	improved, _, passes := twoOpt(driver, list, []int{1, 0}, 10)
	if passes != 0 {
		t.Fatalf("two-stop route should not be scanned, passes = %d", passes)
	}
	if improved[0] != 1 || improved[1] != 0 {
		t.Fatalf("route = %v, want unchanged", improved)
	}

	improved, _, _ = twoOpt(driver, list, nil, 10)
	if len(improved) != 0 {
		t.Fatalf("empty route should stay empty, got %v", improved)
	}
}

func TestValidateRoute(t *testing.T) {
	expected := []int{0, 1, 2}

	if errs := validateRoute([]int{2, 0, 1}, expected); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if errs := validateRoute([]int{0, 0, 1}, expected); len(errs) == 0 {
		t.Fatal("expected duplicate and omission errors")
	}
	if errs := validateRoute([]int{0, 1, 5}, expected); len(errs) == 0 {
		t.Fatal("expected out-of-range error")
	}
}
