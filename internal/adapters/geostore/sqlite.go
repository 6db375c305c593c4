package geostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"route-optimizer-service/internal/domain"
)

// SQLite backed store mapping normalized address strings to geocode results.
// Address keys are expected to be normalized by the caller.
type Sqlite struct {
	DB *sql.DB
}

func NewSqlite(db *sql.DB) *Sqlite {
	return &Sqlite{DB: db}
}

// InitSqliteSchema creates the cache table for local runs.
func InitSqliteSchema(db *sql.DB) error {
	const q = `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address    TEXT PRIMARY KEY,
		lat        REAL NOT NULL,
		lon        REAL NOT NULL,
		accuracy   TEXT NOT NULL,
		confidence REAL NOT NULL,
		city       TEXT NOT NULL DEFAULT '',
		country    TEXT NOT NULL DEFAULT '',
		formatted  TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("init sqlite geocode schema: %w", err)
	}
	return nil
}

func (s *Sqlite) Get(ctx context.Context, address string) (*domain.GeocodeCacheEntry, error) {
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
	WHERE address = ?;`

	var (
		e                domain.GeocodeCacheEntry
		lat, lon         float64
		accuracy         string
		created, expires int64
	)
	row := s.DB.QueryRowContext(ctx, q, address)
	err := row.Scan(&e.Address, &lat, &lon, &accuracy, &e.Result.Confidence,
		&e.Result.City, &e.Result.Country, &e.Result.FormattedAddress, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocode store: scan row: %w", err)
	}

	e.Result.Coords = &domain.Coordinates{Lat: lat, Lon: lon}
	e.Result.Accuracy = domain.Accuracy(accuracy)
	e.CreatedAt = time.Unix(created, 0).UTC()
	e.ExpiresAt = time.Unix(expires, 0).UTC()

	// Lazy purge: an expired row is dropped on read, not served.
	if e.Expired(time.Now()) {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE address = ?;`, address); err != nil {
			return nil, fmt.Errorf("purge expired geocode entry %q: %w", address, err)
		}
		return nil, nil
	}

	return &e, nil
}

func (s *Sqlite) Put(ctx context.Context, entry domain.GeocodeCacheEntry) error {
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
	INSERT OR REPLACE INTO geocode_cache (
		address, lat, lon, accuracy, confidence, city, country, formatted, created_at, expires_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := s.DB.ExecContext(ctx, q,
		entry.Address,
		entry.Result.Coords.Lat,
		entry.Result.Coords.Lon,
		string(entry.Result.Accuracy),
		entry.Result.Confidence,
		entry.Result.City,
		entry.Result.Country,
		entry.Result.FormattedAddress,
		entry.CreatedAt.Unix(),
		entry.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert geocode store %q: %w", entry.Address, err)
	}
	return nil
}

func (s *Sqlite) Purge(ctx context.Context, now time.Time) (int, error) {
	if s.DB == nil {
		return 0, errors.New("geocode store: db is nil")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE expires_at <= ?;`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge geocode store: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge geocode store: rows affected: %w", err)
	}
	return int(n), nil
}

func (s *Sqlite) Len(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, errors.New("geocode store: db is nil")
	}
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM geocode_cache;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count geocode store: %w", err)
	}
	return n, nil
}
