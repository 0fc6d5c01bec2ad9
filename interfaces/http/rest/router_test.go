package rest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biorempp-backend/interfaces/http/rest"
	"biorempp-backend/internal/analysis"
	"biorempp-backend/internal/charts"
	"biorempp-backend/internal/domain/dataset"
	"biorempp-backend/internal/domain/usecase"
	"biorempp-backend/internal/infrastructure/cache"
	"biorempp-backend/internal/infrastructure/observability"
	"biorempp-backend/internal/repository/mocks"
)

func newTestServer(t *testing.T) (http.Handler, *mocks.MockRepository) {
	t.Helper()

	registry, err := usecase.NewRegistry([]usecase.Spec{{
		ID:               "uc-ko-per-sample",
		Title:            "Gene counts per sample",
		Databases:        []string{"biorempp"},
		FilterDimensions: []string{"sample"},
		Aggregation: usecase.AggregationSpec{
			Kind:     usecase.AggUniqueCount,
			GroupBy:  []string{"sample"},
			Distinct: "ko",
		},
		Chart: charts.KindBar,
	}})
	require.NoError(t, err)

	repo := mocks.NewMockRepository()
	repo.SetTable("biorempp", dataset.NewTable(
		[]string{"sample", "ko"},
		[][]string{
			{"S1", "K00001"},
			{"S1", "K00002"},
			{"S2", "K00001"},
		},
	))

	logger := zap.NewNop()
	dataFrames, err := cache.NewDataFrameCache(10, time.Hour, nil, logger)
	require.NoError(t, err)
	graphs, err := cache.NewGraphCache(10, 30*time.Minute, nil, logger)
	require.NoError(t, err)

	metrics := observability.NewCollector("test")
	manager := cache.NewManager(registry, repo, analysis.NewEngine(),
		dataFrames, graphs, metrics, logger)

	return rest.NewRouter(manager, registry, metrics, logger).Setup(), repo
}

func doRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_Health(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ListUseCases(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/use-cases")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UseCases []struct {
			ID    string `json:"id"`
			Chart string `json:"chart"`
		} `json:"use_cases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.UseCases, 1)
	assert.Equal(t, "uc-ko-per-sample", body.UseCases[0].ID)
	assert.Equal(t, "bar", body.UseCases[0].Chart)
}

func TestRouter_GetChart(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/use-cases/uc-ko-per-sample/chart")
	require.Equal(t, http.StatusOK, rec.Code)

	var def charts.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &def))
	assert.Equal(t, charts.KindBar, def.Kind)
	require.Len(t, def.Traces, 1)
	assert.Equal(t, []string{"S1", "S2"}, def.Traces[0].X)
	assert.Equal(t, []float64{2, 1}, def.Traces[0].Y)
}

func TestRouter_GetChart_Filtered(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet,
		"/api/v1/use-cases/uc-ko-per-sample/chart?sample=S1")
	require.Equal(t, http.StatusOK, rec.Code)

	var def charts.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &def))
	assert.Equal(t, []string{"S1"}, def.Traces[0].X)
}

func TestRouter_GetChart_UnknownUseCase(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/use-cases/uc-nope/chart")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["type"])
	assert.Equal(t, "UNKNOWN_USE_CASE", body["code"])
}

func TestRouter_GetChart_UnknownFilterDimension(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet,
		"/api/v1/use-cases/uc-ko-per-sample/chart?pathway=map00362")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UNKNOWN_FILTER", body["code"])
}

func TestRouter_CacheStatsAndInvalidation(t *testing.T) {
	handler, repo := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/use-cases/uc-ko-per-sample/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), repo.LoadCount())

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats cache.TierStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.DataFrames.Items)
	assert.Equal(t, 1, stats.Graphs.Items)

	rec = doRequest(t, handler, http.MethodPost,
		"/api/v1/cache/databases/biorempp/invalidate")
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, float64(1), result["dataframes_removed"])
	assert.Equal(t, float64(1), result["graphs_removed"])

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/use-cases/uc-ko-per-sample/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), repo.LoadCount(), "invalidation forces a reload")
}

func TestRouter_CacheClear(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/cache/clear")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"cleared"}`, rec.Body.String())
}
