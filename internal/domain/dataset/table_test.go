package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "biorempp-backend/internal/errors"
)

func TestNewTable_ResolvesAliases(t *testing.T) {
	table := NewTable(
		[]string{"Sample", "Gene", "Compound"},
		[][]string{{"S1", "K00001", "Phenol"}},
	)

	assert.Equal(t, []string{"sample", "ko", "compoundname"}, table.Columns)
	assert.True(t, table.HasColumn("ko"))
	assert.True(t, table.HasColumn("KEGG"), "lookup resolves aliases too")
	assert.Equal(t, "K00001", table.Value(table.Rows[0], "gene"))
}

func TestTable_RequireColumns(t *testing.T) {
	table := NewTable([]string{"sample", "ko"}, nil)

	require.NoError(t, table.RequireColumns("sample", "ko"))

	err := table.RequireColumns("compoundname", "pathway")
	require.Error(t, err)
	assert.True(t, apperrors.IsData(err))
	assert.Contains(t, err.Error(), "compoundname")
	assert.Contains(t, err.Error(), "pathway")
}

func TestTable_ValueOutOfRange(t *testing.T) {
	table := NewTable([]string{"sample", "ko"}, [][]string{{"S1"}})

	assert.Equal(t, "", table.Value(table.Rows[0], "ko"), "short row yields empty value")
	assert.Equal(t, "", table.Value(table.Rows[0], "absent"))
}

func TestTable_Filter(t *testing.T) {
	table := NewTable(
		[]string{"sample", "ko"},
		[][]string{{"S1", "K1"}, {"S2", "K2"}, {"S1", "K3"}},
	)

	filtered := table.Filter(func(row []string) bool {
		return table.Value(row, "sample") == "S1"
	})

	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, 3, table.Len(), "source table is untouched")
	assert.Equal(t, table.Columns, filtered.Columns)
}

func TestTable_DuplicateHeaderFirstWins(t *testing.T) {
	table := NewTable(
		[]string{"ko", "ko"},
		[][]string{{"K1", "K2"}},
	)

	assert.Equal(t, "K1", table.Value(table.Rows[0], "ko"))
}
