package geoprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

// Mapbox is the precise primary geocoder. Queries are proximity-biased
// toward the service's operating center and restricted to one country.
type Mapbox struct {
	client    *http.Client
	baseURL   string
	token     string
	proximity domain.Coordinates
	country   string
}

func NewMapbox(token string, proximity domain.Coordinates, country string) (*Mapbox, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("mapbox geocoder: access token is empty")
	}
	if country == "" {
		country = "ca"
	}
	return &Mapbox{
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   "https://api.mapbox.com",
		token:     token,
		proximity: proximity,
		country:   country,
	}, nil
}

func (m *Mapbox) Name() string { return "mapbox" }

type mapboxResponse struct {
	Features []struct {
		Center    []float64 `json:"center"`
		Relevance float64   `json:"relevance"`
		PlaceName string    `json:"place_name"`
		PlaceType []string  `json:"place_type"`
		Context   []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"context"`
	} `json:"features"`
}

func (m *Mapbox) Geocode(ctx context.Context, address string) (_ *domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.mapbox")(&err)
	obs.GeocodeProviderRequests.WithLabelValues(m.Name()).Inc()

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", m.baseURL, url.PathEscape(address))

	resp, err := doWithRetry(ctx, m.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("access_token", m.token)
		q.Set("proximity", fmt.Sprintf("%f,%f", m.proximity.Lon, m.proximity.Lat))
		q.Set("country", m.country)
		q.Set("limit", "1")
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		obs.GeocodeProviderFailures.WithLabelValues(m.Name()).Inc()
		return nil, fmt.Errorf("mapbox geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	var decoded mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		obs.GeocodeProviderFailures.WithLabelValues(m.Name()).Inc()
		return nil, fmt.Errorf("mapbox geocode %q: decode response: %w", address, err)
	}

	if len(decoded.Features) == 0 {
		obs.GeocodeProviderFailures.WithLabelValues(m.Name()).Inc()
		return nil, ports.ErrNoResult
	}

	f := decoded.Features[0]
	if len(f.Center) != 2 {
		obs.GeocodeProviderFailures.WithLabelValues(m.Name()).Inc()
		return nil, fmt.Errorf("mapbox geocode %q: invalid center format", address)
	}

	var city, country string
	for _, c := range f.Context {
		switch {
		case strings.HasPrefix(c.ID, "place."):
			city = c.Text
		case strings.HasPrefix(c.ID, "country."):
			country = c.Text
		}
	}

	return &domain.GeocodeResult{
		Coords:           &domain.Coordinates{Lat: f.Center[1], Lon: f.Center[0]},
		Accuracy:         accuracyForRelevance(f.Relevance),
		Confidence:       f.Relevance,
		City:             city,
		Country:          country,
		FormattedAddress: f.PlaceName,
	}, nil
}

func accuracyForRelevance(relevance float64) domain.Accuracy {
	switch {
	case relevance >= 0.8:
		return domain.AccuracyHigh
	case relevance >= 0.5:
		return domain.AccuracyMedium
	default:
		return domain.AccuracyLow
	}
}
