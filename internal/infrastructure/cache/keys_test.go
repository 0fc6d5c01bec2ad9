package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"biorempp-backend/internal/repository"
)

func TestDataFrameKey_Deterministic(t *testing.T) {
	params := repository.QueryParams{"ko": {"K00001", "K00002"}}

	first := DataFrameKey("biorempp", params)
	second := DataFrameKey("biorempp", params)
	assert.Equal(t, first, second)
}

func TestDataFrameKey_ValueOrderIrrelevant(t *testing.T) {
	a := DataFrameKey("biorempp", repository.QueryParams{"ko": {"K00001", "K00002"}})
	b := DataFrameKey("biorempp", repository.QueryParams{"ko": {"K00002", "K00001"}})
	assert.Equal(t, a, b, "permuted value lists must derive the same key")
}

func TestDataFrameKey_ParamOrderIrrelevant(t *testing.T) {
	a := DataFrameKey("kegg", repository.QueryParams{"ko": {"K1"}, "sample": {"S1"}})
	b := DataFrameKey("kegg", repository.QueryParams{"sample": {"S1"}, "ko": {"K1"}})
	assert.Equal(t, a, b)
}

func TestDataFrameKey_DiscriminatesInputs(t *testing.T) {
	base := DataFrameKey("biorempp", repository.QueryParams{"ko": {"K1"}})

	assert.NotEqual(t, base, DataFrameKey("kegg", repository.QueryParams{"ko": {"K1"}}))
	assert.NotEqual(t, base, DataFrameKey("biorempp", repository.QueryParams{"ko": {"K2"}}))
	assert.NotEqual(t, base, DataFrameKey("biorempp", nil))
}

func TestDataFrameKey_CarriesDatabasePrefix(t *testing.T) {
	key := DataFrameKey("hadeg", nil)
	assert.Contains(t, key, "df:hadeg:")
}

func TestFiltersHash_NormalizationInvariant(t *testing.T) {
	a := FiltersHash(map[string][]string{"sample": {"S1", "S2"}, "class": {"Aromatic"}})
	b := FiltersHash(map[string][]string{"class": {"Aromatic"}, "sample": {"S2", "S1"}})
	assert.Equal(t, a, b)

	c := FiltersHash(map[string][]string{"sample": {"S1"}})
	assert.NotEqual(t, a, c)
}

func TestFiltersHash_EmptyIsStable(t *testing.T) {
	assert.Equal(t, FiltersHash(nil), FiltersHash(map[string][]string{}))
}

func TestDataHash_KeyOrderIrrelevant(t *testing.T) {
	a := DataHash([]string{"df:biorempp:abc", "df:kegg:def"})
	b := DataHash([]string{"df:kegg:def", "df:biorempp:abc"})
	assert.Equal(t, a, b)
}

func TestGraphKey_Composition(t *testing.T) {
	key := GraphKey("uc-1.1", "datahash", "filterhash")
	assert.Contains(t, key, "graph:uc-1.1:")

	assert.NotEqual(t, key, GraphKey("uc-1.2", "datahash", "filterhash"))
	assert.NotEqual(t, key, GraphKey("uc-1.1", "other", "filterhash"))
	assert.NotEqual(t, key, GraphKey("uc-1.1", "datahash", "other"))
}
