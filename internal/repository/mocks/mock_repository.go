// Package mocks provides test doubles for the repository layer.
package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"biorempp-backend/internal/domain/dataset"
	apperrors "biorempp-backend/internal/errors"
	"biorempp-backend/internal/repository"
)

// MockRepository is an in-memory repository for tests. Tables are registered
// per database id; loads count invocations so tests can assert single-flight
// behavior.
type MockRepository struct {
	mu     sync.Mutex
	tables map[string]*dataset.Table
	errs   map[string]error

	loadCount atomic.Int64

	// LoadHook, when set, runs inside every Load before returning. Tests use
	// it to hold concurrent loads open.
	LoadHook func(databaseID string)
}

// NewMockRepository creates an empty mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		tables: make(map[string]*dataset.Table),
		errs:   make(map[string]error),
	}
}

// SetTable registers the table served for a database id.
func (m *MockRepository) SetTable(databaseID string, table *dataset.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[databaseID] = table
}

// SetError makes loads for a database id fail with the given error.
func (m *MockRepository) SetError(databaseID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[databaseID] = err
}

// LoadCount returns how many loads have been executed.
func (m *MockRepository) LoadCount() int64 {
	return m.loadCount.Load()
}

// Load implements repository.Repository.
func (m *MockRepository) Load(ctx context.Context, databaseID string, params repository.QueryParams) (*dataset.Table, error) {
	m.loadCount.Add(1)

	if m.LoadHook != nil {
		m.LoadHook(databaseID)
	}

	m.mu.Lock()
	err := m.errs[databaseID]
	table := m.tables[databaseID]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperrors.NotFound("DATABASE_NOT_FOUND",
			"reference database source is absent").
			WithResource(databaseID).
			Build()
	}
	return table, nil
}
