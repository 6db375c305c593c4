package geostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
)

// Postgres backed store. Expiry is filtered in SQL so an expired row is
// never served, and Purge drops it for good.
type Postgres struct {
	DB *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// InitPostgresSchema creates the cache table. Used by dbtool.
func InitPostgresSchema(db *sql.DB) error {
	const q = `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address    TEXT PRIMARY KEY,
		lat        DOUBLE PRECISION NOT NULL,
		lon        DOUBLE PRECISION NOT NULL,
		accuracy   TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		city       TEXT NOT NULL DEFAULT '',
		country    TEXT NOT NULL DEFAULT '',
		formatted  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS geocode_cache_expires_idx ON geocode_cache (expires_at);`
	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("init postgres geocode schema: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, address string) (_ *domain.GeocodeCacheEntry, err error) {
	defer obs.Time(ctx, "geostore.pg.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode store: db is nil")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	const q = `
	SELECT address, lat, lon, accuracy, confidence, city, country, formatted, created_at, expires_at
	FROM geocode_cache
	WHERE address = $1 AND expires_at > NOW();`

	var (
		e        domain.GeocodeCacheEntry
		lat, lon float64
		accuracy string
	)
	row := s.DB.QueryRowContext(ctx, q, address)
	scanErr := row.Scan(&e.Address, &lat, &lon, &accuracy, &e.Result.Confidence,
		&e.Result.City, &e.Result.Country, &e.Result.FormattedAddress, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return nil, nil
	}
	if scanErr != nil {
		return nil, fmt.Errorf("get geocode store: scan row: %w", scanErr)
	}

	e.Result.Coords = &domain.Coordinates{Lat: lat, Lon: lon}
	e.Result.Accuracy = domain.Accuracy(accuracy)
	return &e, nil
}

func (s *Postgres) Put(ctx context.Context, entry domain.GeocodeCacheEntry) error {
	if s.DB == nil {
		return errors.New("geocode store: db is nil")
	}
	if strings.TrimSpace(entry.Address) == "" {
		return errors.New("insert geocode store: empty address key")
	}
	if entry.Result.Coords == nil {
		return errors.New("insert geocode store: entry has no coordinates")
	}

	const q = `
	INSERT INTO geocode_cache (
		address, lat, lon, accuracy, confidence, city, country, formatted, created_at, expires_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (address) DO UPDATE
	SET lat        = EXCLUDED.lat,
		lon        = EXCLUDED.lon,
		accuracy   = EXCLUDED.accuracy,
		confidence = EXCLUDED.confidence,
		city       = EXCLUDED.city,
		country    = EXCLUDED.country,
		formatted  = EXCLUDED.formatted,
		created_at = EXCLUDED.created_at,
		expires_at = EXCLUDED.expires_at;`

	_, err := s.DB.ExecContext(ctx, q,
		entry.Address,
		entry.Result.Coords.Lat,
		entry.Result.Coords.Lon,
		string(entry.Result.Accuracy),
		entry.Result.Confidence,
		entry.Result.City,
		entry.Result.Country,
		entry.Result.FormattedAddress,
		entry.CreatedAt,
		entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert geocode store %q: %w", entry.Address, err)
	}
	return nil
}

func (s *Postgres) Purge(ctx context.Context, now time.Time) (int, error) {
	if s.DB == nil {
		return 0, errors.New("geocode store: db is nil")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE expires_at <= $1;`, now)
	if err != nil {
		return 0, fmt.Errorf("purge geocode store: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge geocode store: rows affected: %w", err)
	}
	return int(n), nil
}

func (s *Postgres) Len(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, errors.New("geocode store: db is nil")
	}
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM geocode_cache;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count geocode store: %w", err)
	}
	return n, nil
}
