package usecase

import "biorempp-backend/internal/charts"

// Reference database identifiers. Each maps to one CSV source in the data
// directory; all of them join against sample annotations on the KO column.
const (
	DatabaseBioRemPP = "biorempp"
	DatabaseKEGG     = "kegg"
	DatabaseHAdeg    = "hadeg"
	DatabaseToxCSM   = "toxcsm"
)

// DefaultSpecs returns the built-in analysis catalog. Ids follow the
// module.chart numbering of the analysis suite (UC-<module>.<chart>).
func DefaultSpecs() []Spec {
	return []Spec{
		{
			ID:               "UC-1.1",
			Title:            "Unique gene count per sample",
			Description:      "Distinct KO identifiers annotated in each sample.",
			Databases:        []string{DatabaseBioRemPP},
			FilterDimensions: []string{"compoundclass"},
			Aggregation: AggregationSpec{
				Kind:     AggUniqueCount,
				GroupBy:  []string{"sample"},
				Distinct: "ko",
			},
			Chart: charts.KindBar,
		},
		{
			ID:          "UC-1.2",
			Title:       "Shared KO identifiers across databases",
			Description: "Pairwise overlap of KO sets between reference databases.",
			Databases:   []string{DatabaseBioRemPP, DatabaseKEGG, DatabaseHAdeg},
			Aggregation: AggregationSpec{
				Kind:     AggIntersection,
				Distinct: "ko",
			},
			Chart: charts.KindChord,
		},
		{
			ID:               "UC-2.1",
			Title:            "Pathway activity heatmap",
			Description:      "Distinct KO count per sample and KEGG pathway.",
			Databases:        []string{DatabaseKEGG},
			FilterDimensions: []string{"sample"},
			Aggregation: AggregationSpec{
				Kind:        AggPivot,
				Distinct:    "ko",
				PivotRow:    "pathname",
				PivotColumn: "sample",
			},
			Chart: charts.KindHeatmap,
		},
		{
			ID:               "UC-2.2",
			Title:            "Pathway gene counts",
			Description:      "Distinct KO identifiers per KEGG pathway.",
			Databases:        []string{DatabaseKEGG},
			FilterDimensions: []string{"sample"},
			Aggregation: AggregationSpec{
				Kind:     AggUniqueCount,
				GroupBy:  []string{"pathname"},
				Distinct: "ko",
			},
			Chart: charts.KindBar,
		},
		{
			ID:               "UC-3.1",
			Title:            "Compound class distribution",
			Description:      "Hierarchy of compound classes and their compounds.",
			Databases:        []string{DatabaseBioRemPP},
			FilterDimensions: []string{"compoundclass"},
			Aggregation: AggregationSpec{
				Kind:     AggMultiLevelCount,
				GroupBy:  []string{"compoundclass", "compoundname"},
				Distinct: "ko",
			},
			Chart: charts.KindTreemap,
		},
		{
			ID:               "UC-3.2",
			Title:            "Compounds per sample",
			Description:      "Distinct compounds each sample can act on.",
			Databases:        []string{DatabaseBioRemPP},
			FilterDimensions: []string{"compoundclass", "sample"},
			Aggregation: AggregationSpec{
				Kind:     AggUniqueCount,
				GroupBy:  []string{"sample"},
				Distinct: "compoundname",
			},
			Chart: charts.KindBar,
		},
		{
			ID:               "UC-4.1",
			Title:            "Hydrocarbon degradation pathways",
			Description:      "Distinct KO identifiers per HAdeg degradation pathway.",
			Databases:        []string{DatabaseHAdeg},
			FilterDimensions: []string{"sample"},
			Aggregation: AggregationSpec{
				Kind:     AggUniqueCount,
				GroupBy:  []string{"pathway"},
				Distinct: "ko",
			},
			Chart: charts.KindGroupedBar,
		},
		{
			ID:               "UC-5.1",
			Title:            "Toxicity profile heatmap",
			Description:      "Compound toxicity scores by super-category and endpoint.",
			Databases:        []string{DatabaseToxCSM},
			FilterDimensions: []string{"super_category", "endpoint"},
			Aggregation: AggregationSpec{
				Kind:        AggPivot,
				Distinct:    "compoundname",
				PivotRow:    "super_category",
				PivotColumn: "endpoint",
			},
			Chart: charts.KindHeatmap,
		},
		{
			ID:               "UC-6.1",
			Title:            "Sample to compound class flows",
			Description:      "How samples distribute over compound classes.",
			Databases:        []string{DatabaseBioRemPP},
			FilterDimensions: []string{"compoundclass"},
			Aggregation: AggregationSpec{
				Kind:     AggMultiLevelCount,
				GroupBy:  []string{"sample", "compoundclass"},
				Distinct: "ko",
			},
			Chart: charts.KindSankey,
		},
		{
			ID:          "UC-7.1",
			Title:       "Gene rank scatter",
			Description: "Samples ranked by annotated gene count.",
			Databases:   []string{DatabaseBioRemPP},
			Aggregation: AggregationSpec{
				Kind:     AggUniqueCount,
				GroupBy:  []string{"sample"},
				Distinct: "ko",
			},
			Chart: charts.KindScatter,
		},
	}
}

// DefaultRegistry builds the registry over the built-in catalog.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultSpecs())
}
