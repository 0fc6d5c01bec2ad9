// Package analysis implements the merge/aggregation engine: deterministic,
// pure transformations from raw reference tables into the aggregated shape a
// chart builder expects. The engine holds no state and needs no
// synchronization; identical inputs always produce identical output,
// including row ordering, which is what makes the results cacheable and the
// test fixtures reproducible.
package analysis

import (
	"sort"
	"strings"

	"biorempp-backend/internal/domain/dataset"
	"biorempp-backend/internal/domain/usecase"
	apperrors "biorempp-backend/internal/errors"
)

// keySeparator joins multi-column group keys. The unit separator control
// character cannot occur in CSV cell values.
const keySeparator = "\x1f"

// Engine runs the aggregation specification of a use case over its raw
// tables.
type Engine struct{}

// NewEngine creates an aggregation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Aggregate produces the AggregatedResult for one use case. Tables are keyed
// by database id, exactly as the use case's Databases list names them.
func (e *Engine) Aggregate(tables map[string]*dataset.Table, spec usecase.Spec, filters usecase.Filters) (*dataset.AggregatedResult, error) {
	if spec.Aggregation.Kind == usecase.AggIntersection {
		return e.intersection(tables, spec)
	}

	table, err := e.mergedTable(tables, spec)
	if err != nil {
		return nil, err
	}

	table = applyFilters(table, filters, spec.FilterDimensions)

	switch spec.Aggregation.Kind {
	case usecase.AggUniqueCount:
		return e.uniqueCount(table, spec.Aggregation)
	case usecase.AggMultiLevelCount:
		return e.multiLevelCount(table, spec.Aggregation)
	case usecase.AggPivot:
		return e.pivot(table, spec.Aggregation)
	default:
		return nil, apperrors.Internal("UNKNOWN_AGGREGATION",
			"unhandled aggregation kind").
			WithDetails(string(spec.Aggregation.Kind)).
			WithResource(spec.ID).
			Build()
	}
}

// mergedTable returns the single input table for the use case, inner-joining
// on KO when the use case reads several databases.
func (e *Engine) mergedTable(tables map[string]*dataset.Table, spec usecase.Spec) (*dataset.Table, error) {
	if len(spec.Databases) == 0 {
		return nil, apperrors.Configuration("NO_DATABASES",
			"use case declares no databases").WithResource(spec.ID).Build()
	}

	merged, ok := tables[spec.Databases[0]]
	if !ok {
		return nil, apperrors.Internal("MISSING_TABLE",
			"table not supplied for database").
			WithDetails(spec.Databases[0]).
			WithResource(spec.Databases[0]).Build()
	}

	for _, db := range spec.Databases[1:] {
		right, ok := tables[db]
		if !ok {
			return nil, apperrors.Internal("MISSING_TABLE",
				"table not supplied for database").
				WithDetails(db).WithResource(db).Build()
		}
		joined, err := JoinOnKO(merged, right)
		if err != nil {
			return nil, err
		}
		merged = joined
	}

	return merged, nil
}

// JoinOnKO inner-joins two tables on the canonical KO column. Columns of the
// right table are appended after the left table's columns, skipping the join
// key; on duplicate column names the left value wins and the right column is
// dropped.
func JoinOnKO(left, right *dataset.Table) (*dataset.Table, error) {
	if err := left.RequireColumns("ko"); err != nil {
		return nil, err
	}
	if err := right.RequireColumns("ko"); err != nil {
		return nil, err
	}

	leftCols := make(map[string]struct{}, len(left.Columns))
	for _, col := range left.Columns {
		leftCols[col] = struct{}{}
	}

	// Right-side columns carried into the join, in original order.
	var rightKeep []int
	columns := append([]string(nil), left.Columns...)
	for i, col := range right.Columns {
		if col == "ko" {
			continue
		}
		if _, dup := leftCols[col]; dup {
			continue
		}
		rightKeep = append(rightKeep, i)
		columns = append(columns, col)
	}

	// Bucket right rows by KO, preserving input order for determinism.
	rightIdx := right.ColumnIndex("ko")
	byKO := make(map[string][][]string)
	for _, row := range right.Rows {
		if rightIdx >= len(row) {
			continue
		}
		ko := row[rightIdx]
		byKO[ko] = append(byKO[ko], row)
	}

	leftIdx := left.ColumnIndex("ko")
	rows := make([][]string, 0, len(left.Rows))
	for _, lrow := range left.Rows {
		if leftIdx >= len(lrow) {
			continue
		}
		for _, rrow := range byKO[lrow[leftIdx]] {
			out := make([]string, 0, len(columns))
			out = append(out, lrow...)
			for _, i := range rightKeep {
				if i < len(rrow) {
					out = append(out, rrow[i])
				} else {
					out = append(out, "")
				}
			}
			rows = append(rows, out)
		}
	}

	return dataset.NewTable(columns, rows), nil
}

// applyFilters keeps only the rows whose values fall inside the selected
// filter sets. Filter dimensions absent from the table are ignored; an empty
// selection for a dimension means "no restriction".
func applyFilters(table *dataset.Table, filters usecase.Filters, dimensions []string) *dataset.Table {
	if len(filters) == 0 || len(dimensions) == 0 {
		return table
	}

	type activeFilter struct {
		column string
		values map[string]struct{}
	}

	var active []activeFilter
	for _, dim := range dimensions {
		selected, ok := filters[dim]
		if !ok || len(selected) == 0 || !table.HasColumn(dim) {
			continue
		}
		set := make(map[string]struct{}, len(selected))
		for _, v := range selected {
			set[v] = struct{}{}
		}
		active = append(active, activeFilter{column: dim, values: set})
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

// uniqueCount counts distinct values of the Distinct column per group key.
// Duplicate values within a group count once.
func (e *Engine) uniqueCount(table *dataset.Table, agg usecase.AggregationSpec) (*dataset.AggregatedResult, error) {
	required := append(append([]string(nil), agg.GroupBy...), agg.Distinct)
	if err := table.RequireColumns(required...); err != nil {
		return nil, err
	}

	groups := make(map[string]map[string]struct{})
	for _, row := range table.Rows {
		key := groupKey(table, row, agg.GroupBy)
		value := table.Value(row, agg.Distinct)
		if value == "" {
			continue
		}
		set, ok := groups[key]
		if !ok {
			set = make(map[string]struct{})
			groups[key] = set
		}
		set[value] = struct{}{}
	}

	result := &dataset.AggregatedResult{
		GroupColumns:  append([]string(nil), agg.GroupBy...),
		MetricColumns: []string{"unique_" + agg.Distinct},
		Uniqueness:    "distinct " + agg.Distinct + " per " + strings.Join(agg.GroupBy, ","),
		Rows:          make([]dataset.AggregatedRow, 0, len(groups)),
	}

	for _, key := range sortedKeys(groups) {
		result.Rows = append(result.Rows, dataset.AggregatedRow{
			Keys:   strings.Split(key, keySeparator),
			Values: []float64{float64(len(groups[key]))},
		})
	}

	return result, nil
}

// multiLevelCount is uniqueCount over a multi-level group key, retained as a
// separate kind because hierarchical charts need every level present in the
// key even when empty.
func (e *Engine) multiLevelCount(table *dataset.Table, agg usecase.AggregationSpec) (*dataset.AggregatedResult, error) {
	result, err := e.uniqueCount(table, agg)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pivot reshapes distinct counts into a PivotRow x PivotColumn matrix with
// sorted row and column orders.
func (e *Engine) pivot(table *dataset.Table, agg usecase.AggregationSpec) (*dataset.AggregatedResult, error) {
	if err := table.RequireColumns(agg.PivotRow, agg.PivotColumn, agg.Distinct); err != nil {
		return nil, err
	}

	cells := make(map[string]map[string]map[string]struct{}) // row -> col -> distinct set
	colSet := make(map[string]struct{})
	for _, row := range table.Rows {
		r := table.Value(row, agg.PivotRow)
		c := table.Value(row, agg.PivotColumn)
		v := table.Value(row, agg.Distinct)
		if r == "" || c == "" || v == "" {
			continue
		}
		colSet[c] = struct{}{}
		byCol, ok := cells[r]
		if !ok {
			byCol = make(map[string]map[string]struct{})
			cells[r] = byCol
		}
		set, ok := byCol[c]
		if !ok {
			set = make(map[string]struct{})
			byCol[c] = set
		}
		set[v] = struct{}{}
	}

	columns := sortedKeys(colSet)
	result := &dataset.AggregatedResult{
		GroupColumns:  []string{agg.PivotRow},
		MetricColumns: columns,
		Uniqueness:    "distinct " + agg.Distinct + " per " + agg.PivotRow + " x " + agg.PivotColumn,
		Rows:          make([]dataset.AggregatedRow, 0, len(cells)),
	}

	for _, rowKey := range sortedKeys(cells) {
		values := make([]float64, len(columns))
		for i, col := range columns {
			values[i] = float64(len(cells[rowKey][col]))
		}
		result.Rows = append(result.Rows, dataset.AggregatedRow{
			Keys:   []string{rowKey},
			Values: values,
		})
	}

	return result, nil
}

// intersection computes pairwise shared-identifier counts across databases.
// Output rows are ordered by (source, target) with source < target.
func (e *Engine) intersection(tables map[string]*dataset.Table, spec usecase.Spec) (*dataset.AggregatedResult, error) {
	distinct := spec.Aggregation.Distinct

	sets := make(map[string]map[string]struct{}, len(spec.Databases))
	for _, db := range spec.Databases {
		table, ok := tables[db]
		if !ok {
			return nil, apperrors.Internal("MISSING_TABLE",
				"table not supplied for database").
				WithDetails(db).WithResource(db).Build()
		}
		if err := table.RequireColumns(distinct); err != nil {
			return nil, err
		}
		set := make(map[string]struct{})
		for _, row := range table.Rows {
			if v := table.Value(row, distinct); v != "" {
				set[v] = struct{}{}
			}
		}
		sets[db] = set
	}

	databases := append([]string(nil), spec.Databases...)
	sort.Strings(databases)

	result := &dataset.AggregatedResult{
		GroupColumns:  []string{"source", "target"},
		MetricColumns: []string{"shared_" + distinct},
		Uniqueness:    "distinct " + distinct + " shared between sources",
	}

	for i := 0; i < len(databases); i++ {
		for j := i + 1; j < len(databases); j++ {
			shared := 0
			a, b := sets[databases[i]], sets[databases[j]]
			// Iterate the smaller set
			if len(b) < len(a) {
				a, b = b, a
			}
			for v := range a {
				if _, ok := b[v]; ok {
					shared++
				}
			}
			result.Rows = append(result.Rows, dataset.AggregatedRow{
				Keys:   []string{databases[i], databases[j]},
				Values: []float64{float64(shared)},
			})
		}
	}

	return result, nil
}

// groupKey builds the composite group key for a row.
func groupKey(table *dataset.Table, row []string, groupBy []string) string {
	parts := make([]string, len(groupBy))
	for i, col := range groupBy {
		parts[i] = table.Value(row, col)
	}
	return strings.Join(parts, keySeparator)
}

// sortedKeys returns the map's keys in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
