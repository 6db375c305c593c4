package geostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"route-optimizer-service/internal/domain"
)

const redisKeyPrefix = "geocode:"

// Redis backed store. The 30-day entry TTL maps directly onto per-key
// expiry, so Redis handles purging itself.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// OpenRedis builds a client from an address and optional password.
func OpenRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

type redisEntry struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Accuracy   string    `json:"accuracy"`
	Confidence float64   `json:"confidence"`
	City       string    `json:"city,omitempty"`
	Country    string    `json:"country,omitempty"`
	Formatted  string    `json:"formatted,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *Redis) Get(ctx context.Context, address string) (*domain.GeocodeCacheEntry, error) {
	if s.Client == nil {
		return nil, errors.New("geocode store: redis client is nil")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	raw, err := s.Client.Get(ctx, redisKeyPrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocode store: redis get %q: %w", address, err)
	}

	var re redisEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return nil, fmt.Errorf("get geocode store: decode entry %q: %w", address, err)
	}

	e := domain.GeocodeCacheEntry{
		Address: address,
		Result: domain.GeocodeResult{
			Coords:           &domain.Coordinates{Lat: re.Lat, Lon: re.Lon},
			Accuracy:         domain.Accuracy(re.Accuracy),
			Confidence:       re.Confidence,
			City:             re.City,
			Country:          re.Country,
			FormattedAddress: re.Formatted,
		},
		CreatedAt: re.CreatedAt,
		ExpiresAt: re.ExpiresAt,
	}

	// Redis TTL should have dropped it already; guard against clock skew.
	if e.Expired(time.Now()) {
		_ = s.Client.Del(ctx, redisKeyPrefix+address).Err()
		return nil, nil
	}

	return &e, nil
}

func (s *Redis) Put(ctx context.Context, entry domain.GeocodeCacheEntry) error {
	if s.Client == nil {
		return errors.New("geocode store: redis client is nil")
	}
	if strings.TrimSpace(entry.Address) == "" {
		return errors.New("insert geocode store: empty address key")
	}
	if entry.Result.Coords == nil {
		return errors.New("insert geocode store: entry has no coordinates")
	}

	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("insert geocode store %q: entry already expired", entry.Address)
	}

	raw, err := json.Marshal(redisEntry{
		Lat:        entry.Result.Coords.Lat,
		Lon:        entry.Result.Coords.Lon,
		Accuracy:   string(entry.Result.Accuracy),
		Confidence: entry.Result.Confidence,
		City:       entry.Result.City,
		Country:    entry.Result.Country,
		Formatted:  entry.Result.FormattedAddress,
		CreatedAt:  entry.CreatedAt,
		ExpiresAt:  entry.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("insert geocode store %q: encode: %w", entry.Address, err)
	}

	if err := s.Client.Set(ctx, redisKeyPrefix+entry.Address, raw, ttl).Err(); err != nil {
		return fmt.Errorf("insert geocode store %q: redis set: %w", entry.Address, err)
	}
	return nil
}

// Purge is a no-op for Redis: key TTLs already evict expired entries.
func (s *Redis) Purge(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (s *Redis) Len(ctx context.Context) (int, error) {
	if s.Client == nil {
		return 0, errors.New("geocode store: redis client is nil")
	}

	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.Client.Scan(ctx, cursor, redisKeyPrefix+"*", 256).Result()
		if err != nil {
			return 0, fmt.Errorf("count geocode store: redis scan: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count, nil
}
