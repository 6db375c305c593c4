// Package geostore provides GeocodeStore implementations: an in-memory map
// for tests and single-process runs, plus SQLite, Postgres and Redis backed
// stores for durable caching.
package geostore

import (
	"context"
	"sync"
	"time"

	"route-optimizer-service/internal/domain"
)

// Memory is a mutex-guarded map store. Expired entries are purged lazily on
// read and overwritten on write.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]domain.GeocodeCacheEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]domain.GeocodeCacheEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, address string) (*domain.GeocodeCacheEntry, error) {
	m.mu.RLock()
	e, ok := m.entries[address]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if e.Expired(m.now()) {
		m.mu.Lock()
		delete(m.entries, address)
		m.mu.Unlock()
		return nil, nil
	}

	return &e, nil
}

func (m *Memory) Put(_ context.Context, entry domain.GeocodeCacheEntry) error {
	m.mu.Lock()
	m.entries[entry.Address] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Purge(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for addr, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, addr)
			dropped++
		}
	}
	return dropped, nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
