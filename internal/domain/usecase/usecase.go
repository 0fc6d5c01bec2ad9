// Package usecase holds the static registry mapping analysis use cases to
// their data requirements, aggregation specification and chart kind. The
// registry is resolved once at startup and is read-only afterwards.
package usecase

import (
	"sort"

	"biorempp-backend/internal/charts"
	apperrors "biorempp-backend/internal/errors"
)

// Filters carries the user-selected filter dimensions for one visualization
// request, e.g. {"compoundclass": ["Aromatic"], "sample": ["S1", "S2"]}.
type Filters map[string][]string

// Normalized returns the filters with every value list sorted and deduplicated
// so that semantically identical selections hash identically.
func (f Filters) Normalized() Filters {
	out := make(Filters, len(f))
	for dim, values := range f {
		seen := make(map[string]struct{}, len(values))
		uniq := make([]string, 0, len(values))
		for _, v := range values {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			uniq = append(uniq, v)
		}
		sort.Strings(uniq)
		out[dim] = uniq
	}
	return out
}

// AggregationKind selects the aggregation operation for a use case.
type AggregationKind string

const (
	// AggUniqueCount counts distinct values of Distinct per GroupBy key.
	AggUniqueCount AggregationKind = "unique_count"
	// AggMultiLevelCount produces hierarchical counts over several group
	// levels, for treemaps and sunbursts.
	AggMultiLevelCount AggregationKind = "multilevel_count"
	// AggPivot reshapes unique counts into a row x column matrix.
	AggPivot AggregationKind = "pivot"
	// AggIntersection computes pairwise set-intersection sizes of Distinct
	// values across the listed databases.
	AggIntersection AggregationKind = "intersection"
)

// AggregationSpec describes the deterministic transform a use case needs.
type AggregationSpec struct {
	Kind     AggregationKind
	GroupBy  []string
	Distinct string

	// Pivot layout (Kind == AggPivot)
	PivotRow    string
	PivotColumn string
}

// Spec is the full static description of one analysis use case.
type Spec struct {
	ID          string
	Title       string
	Description string

	// Databases are the raw sources this use case consumes, in join order.
	Databases []string

	// Params are the static query parameters handed to the repository per
	// database load.
	Params map[string][]string

	// FilterDimensions lists the filter columns this use case honors.
	FilterDimensions []string

	Aggregation AggregationSpec
	Chart       charts.Kind
}

// Registry resolves use-case ids to their specs.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry builds a registry from the given specs, rejecting duplicates.
func NewRegistry(specs []Spec) (*Registry, error) {
	byID := make(map[string]Spec, len(specs))
	for _, spec := range specs {
		if _, dup := byID[spec.ID]; dup {
			return nil, apperrors.Configuration("DUPLICATE_USE_CASE",
				"use case registered twice").WithResource(spec.ID).Build()
		}
		byID[spec.ID] = spec
	}
	return &Registry{specs: byID}, nil
}

// Resolve returns the spec for a use-case id.
func (r *Registry) Resolve(id string) (Spec, error) {
	spec, ok := r.specs[id]
	if !ok {
		return Spec{}, apperrors.NotFound("UNKNOWN_USE_CASE",
			"no such analysis use case").WithResource(id).Build()
	}
	return spec, nil
}

// IDs returns all registered use-case ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UsesDatabase reports whether the use case reads from the given database.
func (s Spec) UsesDatabase(databaseID string) bool {
	for _, db := range s.Databases {
		if db == databaseID {
			return true
		}
	}
	return false
}
