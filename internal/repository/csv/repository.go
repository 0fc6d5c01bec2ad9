// Package csv implements the reference-database repository over CSV files.
// Each database id maps to one <id>.csv file inside the configured data
// directory.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"biorempp-backend/internal/domain/dataset"
	apperrors "biorempp-backend/internal/errors"
	"biorempp-backend/internal/repository"
)

// Repository loads reference tables from a directory of CSV files.
type Repository struct {
	dir    string
	logger *zap.Logger
}

// NewRepository creates a CSV repository rooted at dir.
func NewRepository(dir string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{dir: dir, logger: logger}
}

// Load reads the CSV source for a database and returns the rows matching the
// query parameters. Column aliases are resolved by the table constructor.
func (r *Repository) Load(ctx context.Context, databaseID string, params repository.QueryParams) (*dataset.Table, error) {
	path := filepath.Join(r.dir, databaseID+".csv")

	start := time.Now()
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("DATABASE_NOT_FOUND",
				"reference database source is absent").
				WithResource(databaseID).
				WithDetails(path).
				Build()
		}
		return nil, apperrors.Unavailable("DATABASE_OPEN_FAILED",
			"failed to open reference database source").
			WithResource(databaseID).
			WithCause(err).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // validated against the header below

	header, err := reader.Read()
	if err != nil {
		return nil, parseError(databaseID, path, err)
	}

	var rows [][]string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(databaseID, path, err)
		}
		if len(record) != len(header) {
			return nil, apperrors.Parse("DATABASE_MALFORMED",
				"row width does not match header").
				WithResource(databaseID).
				WithDetails(fmt.Sprintf("%s: expected %d fields, got %d", path, len(header), len(record))).
				Build()
		}
		rows = append(rows, record)
	}

	table := dataset.NewTable(header, rows)
	table = filterByParams(table, params)

	r.logger.Debug("Loaded reference database",
		zap.String("database", databaseID),
		zap.Int("rows", table.Len()),
		zap.Duration("duration", time.Since(start)),
	)

	return table, nil
}

// filterByParams keeps rows whose values fall inside the selected sets.
// Parameter order never matters because membership tests use sets.
func filterByParams(table *dataset.Table, params repository.QueryParams) *dataset.Table {
	if len(params) == 0 {
		return table
	}

	type restriction struct {
		column string
		values map[string]struct{}
	}

	var active []restriction
	for column, selected := range params {
		if len(selected) == 0 || !table.HasColumn(column) {
			continue
		}
		set := make(map[string]struct{}, len(selected))
		for _, v := range selected {
			set[v] = struct{}{}
		}
		active = append(active, restriction{column: column, values: set})
	}
	if len(active) == 0 {
		return table
	}

	return table.Filter(func(row []string) bool {
		for _, f := range active {
			if _, ok := f.values[table.Value(row, f.column)]; !ok {
				return false
			}
		}
		return true
	})
}

func parseError(databaseID, path string, cause error) error {
	return apperrors.Parse("DATABASE_MALFORMED",
		"reference database source is malformed").
		WithResource(databaseID).
		WithDetails(path).
		WithCause(cause).
		Build()
}
