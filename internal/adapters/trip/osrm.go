// Package trip adapts the hosted OSRM trip endpoint to the TripOptimizer
// port. Requests are validated locally before any network call so malformed
// input never consumes upstream quota.
package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

var (
	// ErrBadWaypoints marks caller mistakes: wrong count or invalid
	// coordinates. No network call was made.
	ErrBadWaypoints = errors.New("trip: bad waypoints")
	// ErrUpstream marks OSRM-side failures after retries were exhausted.
	ErrUpstream = errors.New("trip: upstream failure")
	// ErrConfig marks adapter misconfiguration.
	ErrConfig = errors.New("trip: config")
)

const (
	minWaypoints = 2
	maxWaypoints = 12

	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
)

var profiles = map[string]bool{
	"driving": true,
	"walking": true,
	"cycling": true,
}

// OSRM calls the public (or self-hosted) OSRM trip service.
type OSRM struct {
	client  *http.Client
	baseURL string
}

func NewOSRM(baseURL string) (*OSRM, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrConfig)
	}
	return &OSRM{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type osrmTrip struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry string  `json:"geometry"`
	Legs     []struct {
		Distance float64    `json:"distance"`
		Duration float64    `json:"duration"`
		Steps    []struct{} `json:"steps"`
	} `json:"legs"`
}

type osrmResponse struct {
	Code      string     `json:"code"`
	Message   string     `json:"message"`
	Trips     []osrmTrip `json:"trips"`
	Waypoints []struct {
		WaypointIndex int       `json:"waypoint_index"`
		Location      []float64 `json:"location"`
	} `json:"waypoints"`
}

func (o *OSRM) OptimizeTrip(ctx context.Context, req ports.TripRequest) (*ports.TripResult, error) {
	var err error
	defer obs.Time(ctx, "trip.optimize")(&err)

	if err = validateRequest(req); err != nil {
		return nil, err
	}

	obs.TripRequestsTotal.Inc()

	endpoint := o.endpoint(req)
	resp, err := doWithRetry(ctx, o.client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	var or osrmResponse
	if err = json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if or.Code != "Ok" {
		err = fmt.Errorf("%w: %s: %s", ErrUpstream, or.Code, or.Message)
		return nil, err
	}
	if len(or.Trips) == 0 {
		err = fmt.Errorf("%w: no trip in response", ErrUpstream)
		return nil, err
	}

	t := or.Trips[0]
	result := &ports.TripResult{
		Order:           make([]int, len(or.Waypoints)),
		Waypoints:       make([]domain.Coordinates, len(or.Waypoints)),
		DistanceMeters:  t.Distance,
		DurationSeconds: t.Duration,
		Geometry:        t.Geometry,
		Legs:            make([]ports.TripLeg, 0, len(t.Legs)),
	}

	// OSRM reports waypoint_index per input waypoint: input i is visited at
	// position waypoint_index. Invert that into visit order.
	for i, wp := range or.Waypoints {
		if wp.WaypointIndex < 0 || wp.WaypointIndex >= len(or.Waypoints) {
			err = fmt.Errorf("%w: waypoint index %d out of range", ErrUpstream, wp.WaypointIndex)
			return nil, err
		}
		result.Order[wp.WaypointIndex] = i
		if len(wp.Location) == 2 {
			result.Waypoints[wp.WaypointIndex] = domain.Coordinates{Lat: wp.Location[1], Lon: wp.Location[0]}
		}
	}

	for _, leg := range t.Legs {
		result.Legs = append(result.Legs, ports.TripLeg{
			DistanceMeters:  leg.Distance,
			DurationSeconds: leg.Duration,
			Steps:           len(leg.Steps),
		})
	}

	return result, nil
}

func validateRequest(req ports.TripRequest) error {
	if n := len(req.Waypoints); n < minWaypoints || n > maxWaypoints {
		return fmt.Errorf("%w: got %d waypoints, want %d to %d", ErrBadWaypoints, n, minWaypoints, maxWaypoints)
	}
	for i, c := range req.Waypoints {
		if !c.Valid() {
			return fmt.Errorf("%w: waypoint %d out of range: %.4f,%.4f", ErrBadWaypoints, i, c.Lat, c.Lon)
		}
	}
	if req.Profile != "" && !profiles[req.Profile] {
		return fmt.Errorf("%w: unknown profile %q", ErrBadWaypoints, req.Profile)
	}
	return nil
}

func (o *OSRM) endpoint(req ports.TripRequest) string {
	profile := req.Profile
	if profile == "" {
		profile = "driving"
	}

	pairs := make([]string, 0, len(req.Waypoints))
	for _, c := range req.Waypoints {
		pairs = append(pairs, fmt.Sprintf("%f,%f", c.Lon, c.Lat))
	}

	q := url.Values{}
	if req.FixedStart {
		q.Set("source", "first")
	}
	if req.FixedEnd {
		q.Set("destination", "last")
	}
	if req.RoundTrip {
		q.Set("roundtrip", "true")
	} else {
		q.Set("roundtrip", "false")
	}
	if req.Geometry != "" {
		q.Set("geometries", req.Geometry)
	}
	q.Set("overview", "full")

	return fmt.Sprintf("%s/trip/v1/%s/%s?%s", o.baseURL, profile, strings.Join(pairs, ";"), q.Encode())
}

// doWithRetry retries 429/5xx and network errors with exponential backoff,
// rebuilding the request each attempt.
func doWithRetry(ctx context.Context, client *http.Client, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := initialBackoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 400 {
			return resp, nil
		}

		retry := false
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
			switch resp.StatusCode {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		} else {
			lastErr = err
			var netErr net.Error
			if errors.As(err, &netErr) {
				retry = true
			}
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
