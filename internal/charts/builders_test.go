package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biorempp-backend/internal/domain/dataset"
	apperrors "biorempp-backend/internal/errors"
)

func countResult() *dataset.AggregatedResult {
	return &dataset.AggregatedResult{
		GroupColumns:  []string{"sample"},
		MetricColumns: []string{"unique_ko"},
		Rows: []dataset.AggregatedRow{
			{Keys: []string{"S1"}, Values: []float64{2}},
			{Keys: []string{"S2"}, Values: []float64{1}},
		},
	}
}

func TestBuild_NilResult(t *testing.T) {
	_, err := Build(KindBar, "t", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

func TestBuild_UnknownKind(t *testing.T) {
	_, err := Build(Kind("gauge"), "t", countResult(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestBuild_EmptyResultYieldsNoData(t *testing.T) {
	def, err := Build(KindBar, "Empty", &dataset.AggregatedResult{}, nil)
	require.NoError(t, err)

	assert.True(t, def.NoData)
	assert.Empty(t, def.Traces)
	assert.Equal(t, KindBar, def.Kind)
	assert.Equal(t, "Empty", def.Title)
}

func TestBuild_Bar(t *testing.T) {
	def, err := Build(KindBar, "Counts", countResult(), nil)
	require.NoError(t, err)

	assert.Equal(t, KindBar, def.Kind)
	assert.Equal(t, "Counts", def.Title)
	assert.Equal(t, "sample", def.XLabel)
	assert.Equal(t, "unique_ko", def.YLabel)
	require.Len(t, def.Traces, 1)
	assert.Equal(t, "bar", def.Traces[0].Type)
	assert.Equal(t, []string{"S1", "S2"}, def.Traces[0].X)
	assert.Equal(t, []float64{2, 1}, def.Traces[0].Y)
}

func TestBuild_ScatterAndLineReuseBarLayout(t *testing.T) {
	scatter, err := Build(KindScatter, "t", countResult(), nil)
	require.NoError(t, err)
	assert.Equal(t, "scatter", scatter.Traces[0].Type)

	line, err := Build(KindLine, "t", countResult(), nil)
	require.NoError(t, err)
	assert.Equal(t, "line", line.Traces[0].Type)
}

func TestBuild_GroupedBar(t *testing.T) {
	result := &dataset.AggregatedResult{
		GroupColumns:  []string{"compoundname"},
		MetricColumns: []string{"S1", "S2"},
		Rows: []dataset.AggregatedRow{
			{Keys: []string{"Phenol"}, Values: []float64{2, 0}},
			{Keys: []string{"Toluene"}, Values: []float64{1, 1}},
		},
	}

	def, err := Build(KindGroupedBar, "t", result, nil)
	require.NoError(t, err)

	require.Len(t, def.Traces, 2)
	assert.Equal(t, "S1", def.Traces[0].Name)
	assert.Equal(t, []float64{2, 1}, def.Traces[0].Y)
	assert.Equal(t, "S2", def.Traces[1].Name)
	assert.Equal(t, []float64{0, 1}, def.Traces[1].Y)
}

func TestBuild_Heatmap(t *testing.T) {
	result := &dataset.AggregatedResult{
		GroupColumns:  []string{"compoundname"},
		MetricColumns: []string{"S1", "S2"},
		Rows: []dataset.AggregatedRow{
			{Keys: []string{"Phenol"}, Values: []float64{2, 0}},
			{Keys: []string{"Toluene"}, Values: []float64{1, 1}},
		},
	}

	def, err := Build(KindHeatmap, "t", result, nil)
	require.NoError(t, err)

	require.Len(t, def.Traces, 1)
	trace := def.Traces[0]
	assert.Equal(t, []string{"S1", "S2"}, trace.X)
	assert.Equal(t, []string{"Phenol", "Toluene"}, trace.Labels)
	assert.Equal(t, [][]float64{{2, 0}, {1, 1}}, trace.Z)
}

func TestBuild_TreemapHierarchy(t *testing.T) {
	result := &dataset.AggregatedResult{
		GroupColumns:  []string{"compoundclass", "compoundname"},
		MetricColumns: []string{"unique_ko"},
		Rows: []dataset.AggregatedRow{
			{Keys: []string{"Aromatic", "Phenol"}, Values: []float64{2}},
			{Keys: []string{"Aromatic", "Toluene"}, Values: []float64{1}},
			{Keys: []string{"Aliphatic", "Hexane"}, Values: []float64{3}},
		},
	}

	def, err := Build(KindTreemap, "t", result, nil)
	require.NoError(t, err)

	require.Len(t, def.Traces, 1)
	trace := def.Traces[0]
	require.Equal(t, len(trace.Labels), len(trace.Parents))
	require.Equal(t, len(trace.Labels), len(trace.Values))

	byLabel := make(map[string]float64)
	parents := make(map[string]string)
	for i, label := range trace.Labels {
		byLabel[label] = trace.Values[i]
		parents[label] = trace.Parents[i]
	}

	assert.Equal(t, float64(3), byLabel["Aromatic"], "inner node sums its children")
	assert.Equal(t, "", parents["Aromatic"])
	assert.Equal(t, "Aromatic", parents["Phenol"])
	assert.Equal(t, float64(2), byLabel["Phenol"])
	assert.Equal(t, "Aliphatic", parents["Hexane"])
}

func TestBuild_TreemapRequiresTwoLevels(t *testing.T) {
	_, err := Build(KindTreemap, "t", countResult(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsData(err))
}

func TestBuild_Sankey(t *testing.T) {
	result := &dataset.AggregatedResult{
		GroupColumns:  []string{"pathway", "sample"},
		MetricColumns: []string{"unique_ko"},
		Rows: []dataset.AggregatedRow{
			{Keys: []string{"map00362", "S1"}, Values: []float64{4}},
			{Keys: []string{"map00623", "S2"}, Values: []float64{2}},
		},
	}

	def, err := Build(KindSankey, "t", result, nil)
	require.NoError(t, err)

	trace := def.Traces[0]
	assert.Equal(t, []string{"map00362", "map00623"}, trace.Source)
	assert.Equal(t, []string{"S1", "S2"}, trace.Target)
	assert.Equal(t, []float64{4, 2}, trace.Weight)
}

func TestBuild_Chord(t *testing.T) {
	result := &dataset.AggregatedResult{
		GroupColumns:  []string{"source", "target"},
		MetricColumns: []string{"shared_ko"},
		Rows: []dataset.AggregatedRow{
			{Keys: []string{"biorempp", "kegg"}, Values: []float64{7}},
		},
	}

	def, err := Build(KindChord, "t", result, nil)
	require.NoError(t, err)

	trace := def.Traces[0]
	assert.Equal(t, []string{"biorempp"}, trace.Source)
	assert.Equal(t, []string{"kegg"}, trace.Target)
	assert.Equal(t, []float64{7}, trace.Weight)
}
