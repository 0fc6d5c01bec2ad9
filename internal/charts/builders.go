package charts

import (
	"strings"

	"biorempp-backend/internal/domain/dataset"
	apperrors "biorempp-backend/internal/errors"
)

// Builder renders an aggregated result into a chart definition. Builders are
// pure and side-effect free; they receive already-validated, already-filtered
// data and supply only the render step.
type Builder func(result *dataset.AggregatedResult, filters map[string][]string) (*Definition, error)

// builders maps every chart kind to its render function.
var builders = map[Kind]Builder{
	KindBar:        buildBar,
	KindGroupedBar: buildGroupedBar,
	KindScatter:    buildScatter,
	KindLine:       buildLine,
	KindHeatmap:    buildHeatmap,
	KindTreemap:    buildTreemap,
	KindSankey:     buildSankey,
	KindChord:      buildChord,
}

// Build runs the fixed pipeline for one chart: validate the inputs, then
// render with the kind's builder. An empty result yields an explicit NoData
// definition rather than an error.
func Build(kind Kind, title string, result *dataset.AggregatedResult, filters map[string][]string) (*Definition, error) {
	if result == nil {
		return nil, apperrors.Internal("NIL_RESULT", "chart build requires an aggregated result").Build()
	}

	builder, ok := builders[kind]
	if !ok {
		return nil, apperrors.Configuration("UNKNOWN_CHART_KIND",
			"no builder registered for chart kind").WithDetails(string(kind)).Build()
	}

	if result.Empty() {
		return &Definition{Kind: kind, Title: title, NoData: true, Traces: []Trace{}}, nil
	}

	def, err := builder(result, filters)
	if err != nil {
		return nil, err
	}
	def.Kind = kind
	def.Title = title
	return def, nil
}

// buildBar renders one bar per group with the first metric as height.
func buildBar(result *dataset.AggregatedResult, _ map[string][]string) (*Definition, error) {
	x := make([]string, len(result.Rows))
	y := make([]float64, len(result.Rows))
	for i, row := range result.Rows {
		x[i] = strings.Join(row.Keys, " / ")
		y[i] = firstValue(row)
	}
	return &Definition{
		XLabel: strings.Join(result.GroupColumns, " / "),
		YLabel: firstMetric(result),
		Traces: []Trace{{Type: "bar", X: x, Y: y}},
	}, nil
}

// buildGroupedBar renders one trace per metric column.
func buildGroupedBar(result *dataset.AggregatedResult, _ map[string][]string) (*Definition, error) {
	x := make([]string, len(result.Rows))
	for i, row := range result.Rows {
		x[i] = strings.Join(row.Keys, " / ")
	}

	traces := make([]Trace, len(result.MetricColumns))
	for m, metric := range result.MetricColumns {
		y := make([]float64, len(result.Rows))
		for i, row := range result.Rows {
			if m < len(row.Values) {
				y[i] = row.Values[m]
			}
		}
		traces[m] = Trace{Name: metric, Type: "bar", X: x, Y: y}
	}

	return &Definition{
		XLabel: strings.Join(result.GroupColumns, " / "),
		Traces: traces,
	}, nil
}

func buildScatter(result *dataset.AggregatedResult, filters map[string][]string) (*Definition, error) {
	def, err := buildBar(result, filters)
	if err != nil {
		return nil, err
	}
	for i := range def.Traces {
		def.Traces[i].Type = "scatter"
	}
	return def, nil
}

func buildLine(result *dataset.AggregatedResult, filters map[string][]string) (*Definition, error) {
	def, err := buildBar(result, filters)
	if err != nil {
		return nil, err
	}
	for i := range def.Traces {
		def.Traces[i].Type = "line"
	}
	return def, nil
}

// buildHeatmap renders a pivoted result as a matrix: group keys on the y
// axis, metric columns on the x axis.
func buildHeatmap(result *dataset.AggregatedResult, _ map[string][]string) (*Definition, error) {
	labels := make([]string, len(result.Rows))
	z := make([][]float64, len(result.Rows))
	for i, row := range result.Rows {
		labels[i] = strings.Join(row.Keys, " / ")
		z[i] = append([]float64(nil), row.Values...)
	}
	return &Definition{
		XLabel: "metric",
		YLabel: strings.Join(result.GroupColumns, " / "),
		Traces: []Trace{{
			Type:   "heatmap",
			X:      result.MetricColumns,
			Labels: labels,
			Z:      z,
		}},
	}, nil
}

// buildTreemap renders a multi-level count as a label/parent hierarchy. Inner
// node values are the sums of their children.
func buildTreemap(result *dataset.AggregatedResult, _ map[string][]string) (*Definition, error) {
	if len(result.GroupColumns) < 2 {
		return nil, apperrors.Data("TREEMAP_LEVELS",
			"treemap requires at least two grouping levels").Build()
	}

	type node struct {
		label  string
		parent string
	}
	order := make([]node, 0, len(result.Rows)*2)
	totals := make(map[node]float64)

	for _, row := range result.Rows {
		value := firstValue(row)
		parent := ""
		for level, key := range row.Keys {
			n := node{label: key, parent: parent}
			if _, seen := totals[n]; !seen {
				order = append(order, n)
			}
			totals[n] += value
			if level < len(row.Keys)-1 {
				parent = key
			}
		}
	}

	trace := Trace{Type: "treemap"}
	for _, n := range order {
		trace.Labels = append(trace.Labels, n.label)
		trace.Parents = append(trace.Parents, n.parent)
		trace.Values = append(trace.Values, totals[n])
	}

	return &Definition{Traces: []Trace{trace}}, nil
}

// buildSankey renders two-level counts as source -> target flows.
func buildSankey(result *dataset.AggregatedResult, _ map[string][]string) (*Definition, error) {
	if len(result.GroupColumns) < 2 {
		return nil, apperrors.Data("SANKEY_LEVELS",
			"sankey requires source and target grouping levels").Build()
	}

	trace := Trace{Type: "sankey"}
	for _, row := range result.Rows {
		trace.Source = append(trace.Source, row.Keys[0])
		trace.Target = append(trace.Target, row.Keys[len(row.Keys)-1])
		trace.Weight = append(trace.Weight, firstValue(row))
	}

	return &Definition{Traces: []Trace{trace}}, nil
}

// buildChord renders pairwise intersection sizes as a weighted link list.
func buildChord(result *dataset.AggregatedResult, _ map[string][]string) (*Definition, error) {
	if len(result.GroupColumns) != 2 {
		return nil, apperrors.Data("CHORD_PAIRS",
			"chord requires pairwise (source, target) groups").Build()
	}

	trace := Trace{Type: "chord"}
	for _, row := range result.Rows {
		trace.Source = append(trace.Source, row.Keys[0])
		trace.Target = append(trace.Target, row.Keys[1])
		trace.Weight = append(trace.Weight, firstValue(row))
	}

	return &Definition{Traces: []Trace{trace}}, nil
}

func firstValue(row dataset.AggregatedRow) float64 {
	if len(row.Values) > 0 {
		return row.Values[0]
	}
	return 0
}

func firstMetric(result *dataset.AggregatedResult) string {
	if len(result.MetricColumns) > 0 {
		return result.MetricColumns[0]
	}
	return ""
}
