// Package db opens the shared postgres handle used by the geocode cache.
package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Open connects via the pgx stdlib driver and verifies the connection.
// Pool limits are sized for the geocode cache's short point queries.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}
