package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"route-optimizer-service/internal/adapters/geoprovider"
	"route-optimizer-service/internal/adapters/geostore"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/geocode"
	"route-optimizer-service/internal/ports"
)

func testRouter(t *testing.T, trips ports.TripOptimizer) http.Handler {
	t.Helper()

	provider := geoprovider.NewMock("mock", map[string]domain.GeocodeResult{
		"100 queen street west, toronto, on, canada": {
			Coords:     &domain.Coordinates{Lat: 43.6525, Lon: -79.3839},
			Accuracy:   domain.AccuracyHigh,
			Confidence: 0.95,
		},
	})

	cfg := geocode.DefaultConfig()
	cfg.MinRequestInterval = 0
	cfg.SubBatchDelay = 0
	resolver := geocode.New(geostore.NewMemory(), provider, nil, cfg)

	eng := engine.New(nil, engine.DefaultConfig())
	return NewRouter(eng, resolver, trips)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, testRouter(t, nil), http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request ID header")
	}
}

func TestOptimizeEndpoint(t *testing.T) {
	body := `{
		"driver": {"lat": 43.6532, "lon": -79.3832},
		"deliveries": [
			{"id": "a", "coords": {"lat": 43.66, "lon": -79.38}, "priority": "normal"},
			{"id": "b", "coords": {"lat": 43.70, "lon": -79.40}, "priority": "urgent"}
		]
	}`
	rec := doRequest(t, testRouter(t, nil), http.MethodPost, "/optimize", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.OptimizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected valid result: %+v", res)
	}
	if len(res.Route) != 2 || res.Route[0] != 0 {
		t.Fatalf("route = %v, want near stop first", res.Route)
	}
	if len(res.AlgorithmsTried) < 2 {
		t.Fatalf("algorithms tried = %v", res.AlgorithmsTried)
	}
}

func TestOptimizeEndpointGeocodesAddresses(t *testing.T) {
	body := `{
		"driver": {"lat": 43.6532, "lon": -79.3832},
		"deliveries": [
			{"id": "a", "address": "100 Queen St W"}
		]
	}`
	rec := doRequest(t, testRouter(t, nil), http.MethodPost, "/optimize", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.OptimizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.IsValid || len(res.Route) != 1 {
		t.Fatalf("expected one routed stop, got %+v", res)
	}
}

func TestOptimizeEndpointRejectsBadBody(t *testing.T) {
	h := testRouter(t, nil)

	rec := doRequest(t, h, http.MethodPost, "/optimize", `{"bogus": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/optimize", `{"driver": {"lat": 43.65, "lon": -79.38}, "deliveries": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty deliveries: status = %d, want 400", rec.Code)
	}
}

func TestGeocodeEndpoint(t *testing.T) {
	h := testRouter(t, nil)

	rec := doRequest(t, h, http.MethodPost, "/geocode", `{"address": "100 Queen St W"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.GeocodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].Coords == nil {
		t.Fatalf("results = %+v", res.Results)
	}
	if res.Results[0].Accuracy != "high" {
		t.Fatalf("accuracy = %q, want high", res.Results[0].Accuracy)
	}

	rec = doRequest(t, h, http.MethodPost, "/geocode", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing address: status = %d, want 400", rec.Code)
	}
}

func TestGeocodeStatsEndpoint(t *testing.T) {
	h := testRouter(t, nil)

	doRequest(t, h, http.MethodPost, "/geocode", `{"address": "100 Queen St W"}`)
	doRequest(t, h, http.MethodPost, "/geocode", `{"address": "100 Queen St W"}`)

	rec := doRequest(t, h, http.MethodGet, "/geocode/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var res dto.GeocodeStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Hits != 1 || res.Misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1 and 1", res.Hits, res.Misses)
	}
	if res.Entries != 1 {
		t.Fatalf("entries = %d, want 1", res.Entries)
	}
}

func TestTripEndpointUnconfigured(t *testing.T) {
	body := `{"waypoints": [{"lat": 43.65, "lon": -79.38}, {"lat": 43.66, "lon": -79.38}]}`
	rec := doRequest(t, testRouter(t, nil), http.MethodPost, "/trip", body)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestTripEndpoint(t *testing.T) {
	fake := &fakeTrips{result: &ports.TripResult{
		Order:           []int{0, 1},
		Waypoints:       []domain.Coordinates{{Lat: 43.65, Lon: -79.38}, {Lat: 43.66, Lon: -79.38}},
		DistanceMeters:  1200,
		DurationSeconds: 180,
	}}
	body := `{"waypoints": [{"lat": 43.65, "lon": -79.38}, {"lat": 43.66, "lon": -79.38}], "fixed_start": true}`

	rec := doRequest(t, testRouter(t, fake), http.MethodPost, "/trip", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !fake.got.FixedStart || len(fake.got.Waypoints) != 2 {
		t.Fatalf("forwarded request = %+v", fake.got)
	}

	var res dto.TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.DistanceMeters != 1200 || len(res.Order) != 2 {
		t.Fatalf("response = %+v", res)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := doRequest(t, testRouter(t, nil), http.MethodGet, "/optimize", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

type fakeTrips struct {
	got    ports.TripRequest
	result *ports.TripResult
	err    error
}

func (f *fakeTrips) OptimizeTrip(_ context.Context, req ports.TripRequest) (*ports.TripResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
