// Package charts turns aggregated results into data-level chart definitions.
// Each chart kind supplies only its render step; validation and aggregation
// happen upstream, so every builder is a pure function of its inputs.
package charts

// Kind identifies a chart type. Chart dispatch is a tagged enum resolved at
// configuration-load time, not runtime inheritance.
type Kind string

const (
	KindBar        Kind = "bar"
	KindGroupedBar Kind = "grouped_bar"
	KindHeatmap    Kind = "heatmap"
	KindTreemap    Kind = "treemap"
	KindSankey     Kind = "sankey"
	KindScatter    Kind = "scatter"
	KindChord      Kind = "chord"
	KindLine       Kind = "line"
)

// Trace is a single data series within a chart.
type Trace struct {
	Name   string      `json:"name,omitempty"`
	Type   string      `json:"type"`
	X      []string    `json:"x,omitempty"`
	Y      []float64   `json:"y,omitempty"`
	Z      [][]float64 `json:"z,omitempty"`
	Labels []string    `json:"labels,omitempty"`
	Values []float64   `json:"values,omitempty"`
	// Parents holds treemap hierarchy parents, index-aligned with Labels.
	Parents []string `json:"parents,omitempty"`
	// Source/Target/Weight describe sankey and chord link lists.
	Source []string  `json:"source,omitempty"`
	Target []string  `json:"target,omitempty"`
	Weight []float64 `json:"weight,omitempty"`
}

// Definition is the serializable chart payload handed to the UI layer.
// It is immutable once cached; callers must treat it as read-only.
type Definition struct {
	Kind   Kind    `json:"kind"`
	Title  string  `json:"title"`
	XLabel string  `json:"x_label,omitempty"`
	YLabel string  `json:"y_label,omitempty"`
	Traces []Trace `json:"traces"`

	// NoData marks an explicit empty state: the source data was valid but the
	// active filters selected zero rows.
	NoData bool `json:"no_data,omitempty"`
}
