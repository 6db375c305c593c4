package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GeocodeCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_geocode_cache_hits_total",
		Help: "Total geocode cache hits",
	})
	GeocodeCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_geocode_cache_misses_total",
		Help: "Total geocode cache misses",
	})
	GeocodeProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_geocode_provider_requests_total",
		Help: "Total geocoding provider requests",
	}, []string{"provider"})
	GeocodeProviderFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_geocode_provider_failures_total",
		Help: "Total geocoding provider failures (no result or error)",
	}, []string{"provider"})
	OptimizeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeopt_optimize_duration_ms",
		Help:    "Optimization call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	StrategyWins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_strategy_wins_total",
		Help: "Times each strategy produced the selected route",
	}, []string{"algorithm"})
	TrafficSegments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "routeopt_traffic_segments",
		Help: "Road segments with an observed traffic condition",
	})
	TripRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_trip_requests_total",
		Help: "Total hosted trip-optimization requests",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_http_requests_total",
		Help: "Total HTTP requests by path and status",
	}, []string{"path", "status"})
)

func init() {
	prometheus.MustRegister(GeocodeCacheHits)
	prometheus.MustRegister(GeocodeCacheMisses)
	prometheus.MustRegister(GeocodeProviderRequests)
	prometheus.MustRegister(GeocodeProviderFailures)
	prometheus.MustRegister(OptimizeDurationMs)
	prometheus.MustRegister(StrategyWins)
	prometheus.MustRegister(TrafficSegments)
	prometheus.MustRegister(TripRequestsTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
}
