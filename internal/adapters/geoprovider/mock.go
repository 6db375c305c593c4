package geoprovider

import (
	"context"
	"sync/atomic"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// Mock is a canned in-memory provider for tests. Calls counts network
// attempts so tests can assert on de-duplication and cache behavior.
type Mock struct {
	Results map[string]domain.GeocodeResult
	Err     error
	Calls   atomic.Int64
	name    string
}

func NewMock(name string, results map[string]domain.GeocodeResult) *Mock {
	return &Mock{Results: results, name: name}
}

func (m *Mock) Name() string { return m.name }

func (m *Mock) Geocode(_ context.Context, address string) (*domain.GeocodeResult, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Results[address]
	if !ok {
		return nil, ports.ErrNoResult
	}
	out := r
	return &out, nil
}
