// Package repository defines the data-access contract for the reference
// databases and the decorators layered around concrete implementations
// (retry, circuit breaking). The cache manager only depends on the Repository
// interface; which decorators wrap the CSV source is decided at wiring time.
package repository

import (
	"context"

	"biorempp-backend/internal/domain/dataset"
)

// QueryParams restricts a load to matching rows, keyed by canonical column
// name. An empty or nil map loads the full table. Value lists are
// order-irrelevant; implementations must treat permutations identically.
type QueryParams map[string][]string

// Repository supplies raw reference tables on cache miss. Load fails with a
// NOT_FOUND error when the backing source is absent and a PARSE error when it
// is malformed.
type Repository interface {
	Load(ctx context.Context, databaseID string, params QueryParams) (*dataset.Table, error)
}
