package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"route-optimizer-service/internal/api/handlers"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/geocode"
	"route-optimizer-service/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root; handlers stay unaware of
// concrete adapters. trips may be nil when no trip backend is configured.
func NewRouter(eng *engine.Optimizer, resolver *geocode.Resolver, trips ports.TripOptimizer) http.Handler {
	r := mux.NewRouter()

	optimizeHandler := &handlers.OptimizeHandler{Engine: eng, Resolver: resolver}
	geocodeHandler := &handlers.GeocodeHandler{Resolver: resolver}
	tripHandler := &handlers.TripHandler{Optimizer: trips}

	r.HandleFunc("/optimize", optimizeHandler.Optimize).Methods(http.MethodPost)
	r.HandleFunc("/geocode", geocodeHandler.Geocode).Methods(http.MethodPost)
	r.HandleFunc("/geocode/stats", geocodeHandler.Stats).Methods(http.MethodGet)
	r.HandleFunc("/trip", tripHandler.Trip).Methods(http.MethodPost)
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return loggingMiddleware(r)
}
