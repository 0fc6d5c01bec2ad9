package dataset

// AggregatedRow is one output row of the aggregation engine: the grouping key
// values and the metric values in column order.
type AggregatedRow struct {
	Keys   []string  `json:"keys"`
	Values []float64 `json:"values"`
}

// AggregatedResult is the immutable output of the merge/aggregation engine.
// Rows are sorted by grouping key so repeated runs over identical inputs are
// byte-identical when serialized.
type AggregatedResult struct {
	// GroupColumns names the grouping key columns, in key order.
	GroupColumns []string `json:"group_columns"`

	// MetricColumns names the metric columns, in value order.
	MetricColumns []string `json:"metric_columns"`

	// Uniqueness documents which uniqueness definition was applied, e.g.
	// "distinct ko per sample". Empty for plain counts.
	Uniqueness string `json:"uniqueness,omitempty"`

	Rows []AggregatedRow `json:"rows"`
}

// Empty reports whether the result holds no rows. An empty result is a valid
// outcome (a filter selecting zero rows); charts render an explicit "no data"
// state for it.
func (r *AggregatedResult) Empty() bool {
	return len(r.Rows) == 0
}
