package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"route-optimizer-service/internal/adapters/geoprovider"
	"route-optimizer-service/internal/adapters/geostore"
	"route-optimizer-service/internal/adapters/trip"
	"route-optimizer-service/internal/api"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/geocode"
	"route-optimizer-service/internal/platform/db"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/traffic"
)

// main is the application composition root.
// It wires concrete adapters (geocode store, providers, trip backend) behind
// ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	if strings.TrimSpace(mapboxToken) == "" {
		log.Fatal("MAPBOX_TOKEN is required")
	}

	store, cleanup, err := openGeocodeStore()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	region := domain.GreaterToronto
	depot := domain.Coordinates{
		Lat: (region.MinLat + region.MaxLat) / 2,
		Lon: (region.MinLon + region.MaxLon) / 2,
	}

	primary, err := geoprovider.NewMapbox(mapboxToken, depot, config.Get("GEOCODE_COUNTRY", "ca"))
	if err != nil {
		log.Fatal(err)
	}
	fallback := geoprovider.NewNominatim(region)

	resolverCfg := geocode.DefaultConfig()
	resolverCfg.Region = region
	resolverCfg.TTL = config.GetDuration("GEOCODE_TTL", resolverCfg.TTL)
	resolver := geocode.New(store, primary, fallback, resolverCfg)

	// Traffic conditions are sampled per segment and refreshed in the
	// background for the life of the process.
	trafficCache := traffic.NewCache(config.GetDuration("TRAFFIC_REFRESH_INTERVAL", 15*time.Minute), traffic.DefaultSample)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go trafficCache.Run(ctx)

	engineCfg := engine.DefaultConfig()
	engineCfg.Timeout = config.GetDuration("OPTIMIZE_TIMEOUT", engineCfg.Timeout)
	eng := engine.New(traffic.Live{C: trafficCache}, engineCfg)

	var trips ports.TripOptimizer
	if base := config.Get("OSRM_BASE_URL", "https://router.project-osrm.org"); base != "" {
		trips, err = trip.NewOSRM(base)
		if err != nil {
			log.Fatal(err)
		}
	}

	router := api.NewRouter(eng, resolver, trips)

	// Timeouts are tuned for cold-cache geocoding (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openGeocodeStore selects the cache backend from GEOCODE_STORE: memory
// (default), sqlite, postgres or redis.
func openGeocodeStore() (ports.GeocodeStore, func(), error) {
	noop := func() {}

	switch backend := config.Get("GEOCODE_STORE", "memory"); backend {
	case "memory":
		return geostore.NewMemory(), noop, nil

	case "sqlite":
		path := config.Get("GEOCODE_DB_PATH", "data/geocode.db")
		sdb, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite database %q: %w", path, err)
		}
		if err := geostore.InitSqliteSchema(sdb); err != nil {
			sdb.Close()
			return nil, noop, err
		}
		return geostore.NewSqlite(sdb), func() { sdb.Close() }, nil

	case "postgres":
		url := os.Getenv("DATABASE_URL")
		if strings.TrimSpace(url) == "" {
			return nil, noop, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		pdb, err := db.Open(url)
		if err != nil {
			return nil, noop, err
		}
		if err := geostore.InitPostgresSchema(pdb); err != nil {
			pdb.Close()
			return nil, noop, err
		}
		return geostore.NewPostgres(pdb), func() { pdb.Close() }, nil

	case "redis":
		client := geostore.OpenRedis(
			config.Get("REDIS_ADDR", "localhost:6379"),
			os.Getenv("REDIS_PASSWORD"),
			config.GetInt("REDIS_DB", 0),
		)
		return geostore.NewRedis(client), func() { client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown GEOCODE_STORE %q", backend)
	}
}
