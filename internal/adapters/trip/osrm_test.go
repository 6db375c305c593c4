package trip

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

func torontoWaypoints(n int) []domain.Coordinates {
	out := make([]domain.Coordinates, n)
	for i := range out {
		out[i] = domain.Coordinates{Lat: 43.65 + 0.01*float64(i), Lon: -79.38}
	}
	return out
}

func TestNewOSRMRequiresBaseURL(t *testing.T) {
	_, err := NewOSRM("  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestOptimizeTripRejectsBadInputBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	o, err := NewOSRM(srv.URL)
	require.NoError(t, err)

	cases := []ports.TripRequest{
		{Waypoints: torontoWaypoints(1)},
		{Waypoints: torontoWaypoints(13)},
		{Waypoints: []domain.Coordinates{{Lat: 95, Lon: 0}, {Lat: 43.65, Lon: -79.38}}},
		{Waypoints: torontoWaypoints(3), Profile: "flying"},
	}
	for _, req := range cases {
		_, err := o.OptimizeTrip(context.Background(), req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrBadWaypoints), "got %v", err)
	}
	assert.Equal(t, int64(0), hits.Load(), "validation failures must not reach the server")
}

func TestOptimizeTripParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/trip/v1/driving/"))
		assert.Equal(t, "first", r.URL.Query().Get("source"))
		assert.Equal(t, "false", r.URL.Query().Get("roundtrip"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"trips": [{
				"distance": 8250.5,
				"duration": 1130.2,
				"geometry": "abc123",
				"legs": [
					{"distance": 4000, "duration": 560, "steps": [{}, {}]},
					{"distance": 4250.5, "duration": 570.2, "steps": [{}]}
				]
			}],
			"waypoints": [
				{"waypoint_index": 0, "location": [-79.38, 43.65]},
				{"waypoint_index": 2, "location": [-79.38, 43.66]},
				{"waypoint_index": 1, "location": [-79.38, 43.67]}
			]
		}`))
	}))
	defer srv.Close()

	o, err := NewOSRM(srv.URL)
	require.NoError(t, err)

	res, err := o.OptimizeTrip(context.Background(), ports.TripRequest{
		Waypoints:  torontoWaypoints(3),
		FixedStart: true,
	})
	require.NoError(t, err)

	// Input 1 got waypoint_index 2 and input 2 got index 1, so the visit
	// order is 0, 2, 1.
	assert.Equal(t, []int{0, 2, 1}, res.Order)
	assert.InDelta(t, 8250.5, res.DistanceMeters, 1e-9)
	assert.InDelta(t, 1130.2, res.DurationSeconds, 1e-9)
	assert.Equal(t, "abc123", res.Geometry)
	require.Len(t, res.Legs, 2)
	assert.Equal(t, 2, res.Legs[0].Steps)
	assert.InDelta(t, 43.67, res.Waypoints[1].Lat, 1e-9)
}

func TestOptimizeTripUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": "NoTrips", "message": "no route between points"}`))
	}))
	defer srv.Close()

	o, err := NewOSRM(srv.URL)
	require.NoError(t, err)

	_, err = o.OptimizeTrip(context.Background(), ports.TripRequest{Waypoints: torontoWaypoints(2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "NoTrips")
}

func TestOptimizeTripRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"trips": [{"distance": 100, "duration": 60, "legs": []}],
			"waypoints": [
				{"waypoint_index": 0, "location": [-79.38, 43.65]},
				{"waypoint_index": 1, "location": [-79.38, 43.66]}
			]
		}`))
	}))
	defer srv.Close()

	o, err := NewOSRM(srv.URL)
	require.NoError(t, err)

	res, err := o.OptimizeTrip(context.Background(), ports.TripRequest{Waypoints: torontoWaypoints(2)})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Order)
	assert.Equal(t, int64(2), hits.Load())
}
