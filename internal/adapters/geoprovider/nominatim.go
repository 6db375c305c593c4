package geoprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

const nominatimUserAgent = "route-optimizer-service/1.0"

// Nominatim is the open-data fallback geocoder, bounded to the service's
// operating region via a viewbox.
type Nominatim struct {
	client  *http.Client
	baseURL string
	viewbox domain.BoundingBox
}

func NewNominatim(viewbox domain.BoundingBox) *Nominatim {
	return &Nominatim{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://nominatim.openstreetmap.org",
		viewbox: viewbox,
	}
}

func (n *Nominatim) Name() string { return "nominatim" }

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (_ *domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.nominatim")(&err)
	obs.GeocodeProviderRequests.WithLabelValues(n.Name()).Inc()

	endpoint := n.baseURL + "/search"

	resp, err := doWithRetry(ctx, n.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("q", address)
		q.Set("format", "json")
		q.Set("limit", "1")
		// viewbox is lon1,lat1,lon2,lat2 (left,top,right,bottom).
		q.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
			n.viewbox.MinLon, n.viewbox.MaxLat, n.viewbox.MaxLon, n.viewbox.MinLat))
		q.Set("bounded", "1")
		req.URL.RawQuery = q.Encode()
		req.Header.Set("User-Agent", nominatimUserAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		obs.GeocodeProviderFailures.WithLabelValues(n.Name()).Inc()
		return nil, fmt.Errorf("nominatim geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		obs.GeocodeProviderFailures.WithLabelValues(n.Name()).Inc()
		return nil, fmt.Errorf("nominatim geocode %q: decode response: %w", address, err)
	}

	if len(results) == 0 {
		obs.GeocodeProviderFailures.WithLabelValues(n.Name()).Inc()
		return nil, ports.ErrNoResult
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim geocode %q: invalid latitude %q", address, r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim geocode %q: invalid longitude %q", address, r.Lon)
	}

	confidence := r.Importance
	if confidence <= 0 {
		confidence = 0.5
	}

	return &domain.GeocodeResult{
		Coords:           &domain.Coordinates{Lat: lat, Lon: lon},
		Accuracy:         domain.AccuracyMedium,
		Confidence:       confidence,
		FormattedAddress: r.DisplayName,
	}, nil
}
