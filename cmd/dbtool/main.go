package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"route-optimizer-service/internal/adapters/geostore"
	"route-optimizer-service/internal/platform/db"
)

// dbtool initializes the postgres geocode cache schema and purges expired
// entries. Intended for deploy hooks and cron.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pdb, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pdb.Close()

	log.Println("Initializing geocode cache schema...")
	if err := geostore.InitPostgresSchema(pdb); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := geostore.NewPostgres(pdb)
	n, err := store.Purge(ctx, time.Now())
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}
	log.Printf("Purged %d expired geocode entries.", n)
}
