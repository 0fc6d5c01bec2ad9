package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"biorempp-backend/internal/analysis"
	"biorempp-backend/internal/charts"
	"biorempp-backend/internal/domain/dataset"
	"biorempp-backend/internal/domain/usecase"
	"biorempp-backend/internal/infrastructure/observability"
	"biorempp-backend/internal/repository"
)

const (
	tierDataFrame = "dataframe"
	tierGraph     = "graph"
)

// Manager orchestrates the two cache tiers in front of the repository and the
// aggregation engine. It is the only component that writes to either tier, so
// it can maintain reverse indices for cascading invalidation: dataframe key to
// dependent graph keys, use-case id to graph keys, and database id to
// dataframe keys.
//
// Concurrent requests for the same key are collapsed with singleflight so a
// cold cache triggers at most one repository load per dataframe key and one
// aggregation per graph key; distinct dataframe keys load in parallel.
type Manager struct {
	registry   *usecase.Registry
	repo       repository.Repository
	engine     *analysis.Engine
	dataFrames *DataFrameCache
	graphs     *GraphCache
	metrics    *observability.Collector
	logger     *zap.Logger
	tracer     trace.Tracer

	graphGroup     singleflight.Group
	dataFrameGroup singleflight.Group

	// Last eviction totals published to the metrics collector, per tier.
	dataFrameEvictionsSeen atomic.Int64
	graphEvictionsSeen     atomic.Int64

	// Reverse indices, guarded by indexMu. Entries may outlive the cached
	// value they point at (eviction happens inside MemoryCache); invalidating
	// an already-evicted key is a no-op, so stale index entries are harmless
	// and are dropped the next time their owner is invalidated.
	indexMu              sync.Mutex
	graphsByDataFrame    map[string]map[string]struct{}
	graphsByUseCase      map[string]map[string]struct{}
	dataFramesByDatabase map[string]map[string]struct{}
}

// NewManager wires the cache tiers, repository and engine together.
func NewManager(
	registry *usecase.Registry,
	repo repository.Repository,
	engine *analysis.Engine,
	dataFrames *DataFrameCache,
	graphs *GraphCache,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		registry:             registry,
		repo:                 repo,
		engine:               engine,
		dataFrames:           dataFrames,
		graphs:               graphs,
		metrics:              metrics,
		logger:               logger,
		tracer:               otel.Tracer("biorempp-backend/cache"),
		graphsByDataFrame:    make(map[string]map[string]struct{}),
		graphsByUseCase:      make(map[string]map[string]struct{}),
		dataFramesByDatabase: make(map[string]map[string]struct{}),
	}
}

// GetOrBuild returns the chart definition for a use case and filter selection,
// building and caching every missing intermediate along the way. The returned
// definition is shared with the cache and must be treated as read-only.
func (m *Manager) GetOrBuild(ctx context.Context, useCaseID string, filters usecase.Filters) (*charts.Definition, error) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "cache.GetOrBuild",
		trace.WithAttributes(attribute.String("use_case", useCaseID)))
	defer span.End()

	spec, err := m.registry.Resolve(useCaseID)
	if err != nil {
		m.metrics.ChartBuilds.WithLabelValues(useCaseID, "error").Inc()
		return nil, err
	}

	normalized := filters.Normalized()

	// Every key is derivable before any load happens, so the whole build can
	// be collapsed under the graph key.
	dataFrameKeys := make([]string, len(spec.Databases))
	for i, db := range spec.Databases {
		dataFrameKeys[i] = m.dataFrames.Key(db, repository.QueryParams(spec.Params))
	}
	dataHash := DataHash(dataFrameKeys)
	filtersHash := FiltersHash(normalized)
	graphKey := m.graphs.Key(useCaseID, dataHash, filtersHash)

	// The build runs on behalf of every coalesced waiter, so it must not die
	// with the first caller's context; the result stays cached either way.
	buildCtx := context.WithoutCancel(ctx)
	value, err, shared := m.graphGroup.Do(graphKey, func() (interface{}, error) {
		return m.buildGraph(buildCtx, spec, normalized, dataHash, filtersHash, graphKey)
	})
	if err != nil {
		m.metrics.ChartBuilds.WithLabelValues(useCaseID, "error").Inc()
		span.RecordError(err)
		return nil, err
	}

	m.metrics.ChartBuilds.WithLabelValues(useCaseID, "ok").Inc()
	m.metrics.BuildDuration.WithLabelValues(useCaseID).Observe(time.Since(start).Seconds())
	if shared {
		m.logger.Debug("request coalesced", zap.String("graph_key", graphKey))
	}
	return value.(*charts.Definition), nil
}

// buildGraph runs under the graph-key singleflight: graph lookup, dataframe
// resolution, aggregation and chart construction.
func (m *Manager) buildGraph(
	ctx context.Context,
	spec usecase.Spec,
	filters usecase.Filters,
	dataHash, filtersHash, graphKey string,
) (*charts.Definition, error) {
	if figure, ok := m.graphs.GetGraph(spec.ID, dataHash, filtersHash); ok {
		m.metrics.CacheHits.WithLabelValues(tierGraph).Inc()
		return figure, nil
	}
	m.metrics.CacheMisses.WithLabelValues(tierGraph).Inc()

	tables, dataFrameKeys, err := m.resolveDataFrames(ctx, spec)
	if err != nil {
		return nil, err
	}

	_, aggSpan := m.tracer.Start(ctx, "analysis.Aggregate",
		trace.WithAttributes(attribute.String("use_case", spec.ID)))
	result, err := m.engine.Aggregate(tables, spec, filters)
	aggSpan.End()
	if err != nil {
		return nil, err
	}
	m.metrics.AggregationRuns.Inc()

	figure, err := charts.Build(spec.Chart, spec.Title, result, filters)
	if err != nil {
		return nil, err
	}

	m.graphs.PutGraph(spec.ID, dataHash, filtersHash, figure)
	m.metrics.CacheSize.WithLabelValues(tierGraph).Set(float64(m.graphs.Size()))
	m.syncEvictions(tierGraph, m.graphs.GetStats().Evictions, &m.graphEvictionsSeen)
	m.recordGraph(spec.ID, graphKey, dataFrameKeys)

	m.logger.Debug("graph built",
		zap.String("use_case", spec.ID),
		zap.String("graph_key", graphKey),
		zap.Int("rows", len(result.Rows)))
	return figure, nil
}

// resolveDataFrames returns the raw table for every database the use case
// reads, loading misses in parallel. Loads for the same dataframe key are
// collapsed across requests.
func (m *Manager) resolveDataFrames(ctx context.Context, spec usecase.Spec) (map[string]*dataset.Table, []string, error) {
	params := repository.QueryParams(spec.Params)

	tables := make(map[string]*dataset.Table, len(spec.Databases))
	keys := make([]string, len(spec.Databases))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, db := range spec.Databases {
		i, db := i, db
		keys[i] = m.dataFrames.Key(db, params)
		g.Go(func() error {
			table, err := m.loadDataFrame(gctx, db, params, keys[i])
			if err != nil {
				return err
			}
			mu.Lock()
			tables[db] = table
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tables, keys, nil
}

// loadDataFrame fetches one table through the dataframe tier, hitting the
// repository at most once per key regardless of concurrent callers.
func (m *Manager) loadDataFrame(ctx context.Context, databaseID string, params repository.QueryParams, key string) (*dataset.Table, error) {
	if table, ok := m.dataFrames.GetDataFrame(databaseID, params); ok {
		m.metrics.CacheHits.WithLabelValues(tierDataFrame).Inc()
		return table, nil
	}
	m.metrics.CacheMisses.WithLabelValues(tierDataFrame).Inc()

	value, err, _ := m.dataFrameGroup.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have stored the
		// table between our miss and this closure running.
		if table, ok := m.dataFrames.GetDataFrame(databaseID, params); ok {
			return table, nil
		}

		ctx, span := m.tracer.Start(ctx, "repository.Load",
			trace.WithAttributes(attribute.String("database", databaseID)))
		defer span.End()

		start := time.Now()
		table, err := m.repo.Load(ctx, databaseID, params)
		m.metrics.RepositoryDuration.WithLabelValues(databaseID).Observe(time.Since(start).Seconds())
		if err != nil {
			m.metrics.RepositoryLoads.WithLabelValues(databaseID, "error").Inc()
			span.RecordError(err)
			return nil, err
		}
		m.metrics.RepositoryLoads.WithLabelValues(databaseID, "ok").Inc()

		m.dataFrames.PutDataFrame(databaseID, params, table)
		m.metrics.CacheSize.WithLabelValues(tierDataFrame).Set(float64(m.dataFrames.Size()))
		m.syncEvictions(tierDataFrame, m.dataFrames.GetStats().Evictions, &m.dataFrameEvictionsSeen)
		m.recordDataFrame(databaseID, key)
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*dataset.Table), nil
}

// syncEvictions publishes the tier's monotonic eviction total as counter
// increments. The CAS loop keeps the exported total exact when concurrent
// writers race on stale snapshots.
func (m *Manager) syncEvictions(tier string, total int64, seen *atomic.Int64) {
	for {
		prev := seen.Load()
		if total <= prev {
			return
		}
		if seen.CompareAndSwap(prev, total) {
			m.metrics.CacheEvictions.WithLabelValues(tier).Add(float64(total - prev))
			return
		}
	}
}

// recordGraph registers a freshly cached graph in the reverse indices.
func (m *Manager) recordGraph(useCaseID, graphKey string, dataFrameKeys []string) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	set, ok := m.graphsByUseCase[useCaseID]
	if !ok {
		set = make(map[string]struct{})
		m.graphsByUseCase[useCaseID] = set
	}
	set[graphKey] = struct{}{}

	for _, dfKey := range dataFrameKeys {
		set, ok := m.graphsByDataFrame[dfKey]
		if !ok {
			set = make(map[string]struct{})
			m.graphsByDataFrame[dfKey] = set
		}
		set[graphKey] = struct{}{}
	}
}

// recordDataFrame registers a freshly cached dataframe in the reverse index.
func (m *Manager) recordDataFrame(databaseID, key string) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	set, ok := m.dataFramesByDatabase[databaseID]
	if !ok {
		set = make(map[string]struct{})
		m.dataFramesByDatabase[databaseID] = set
	}
	set[key] = struct{}{}
}

// InvalidateUseCase removes every cached graph belonging to the use case and
// returns the number of entries removed. Dataframes stay cached; they are
// shared across use cases.
func (m *Manager) InvalidateUseCase(useCaseID string) int {
	m.indexMu.Lock()
	graphKeys := m.graphsByUseCase[useCaseID]
	delete(m.graphsByUseCase, useCaseID)
	for _, set := range m.graphsByDataFrame {
		for key := range graphKeys {
			delete(set, key)
		}
	}
	m.indexMu.Unlock()

	removed := 0
	for key := range graphKeys {
		if m.graphs.Invalidate(key) {
			removed++
		}
	}

	m.metrics.CacheSize.WithLabelValues(tierGraph).Set(float64(m.graphs.Size()))
	m.logger.Info("use case invalidated",
		zap.String("use_case", useCaseID),
		zap.Int("graphs_removed", removed))
	return removed
}

// InvalidateDatabase removes every cached dataframe loaded from the database
// and cascades to every graph built from those dataframes. It returns the
// numbers of dataframe and graph entries removed.
func (m *Manager) InvalidateDatabase(databaseID string) (dataFramesRemoved, graphsRemoved int) {
	m.indexMu.Lock()
	dfKeys := m.dataFramesByDatabase[databaseID]
	delete(m.dataFramesByDatabase, databaseID)

	graphKeys := make(map[string]struct{})
	for dfKey := range dfKeys {
		for graphKey := range m.graphsByDataFrame[dfKey] {
			graphKeys[graphKey] = struct{}{}
		}
		delete(m.graphsByDataFrame, dfKey)
	}
	for _, set := range m.graphsByUseCase {
		for key := range graphKeys {
			delete(set, key)
		}
	}
	m.indexMu.Unlock()

	for key := range dfKeys {
		if m.dataFrames.Invalidate(key) {
			dataFramesRemoved++
		}
	}
	for key := range graphKeys {
		if m.graphs.Invalidate(key) {
			graphsRemoved++
		}
	}

	m.metrics.CacheSize.WithLabelValues(tierDataFrame).Set(float64(m.dataFrames.Size()))
	m.metrics.CacheSize.WithLabelValues(tierGraph).Set(float64(m.graphs.Size()))
	m.logger.Info("database invalidated",
		zap.String("database", databaseID),
		zap.Int("dataframes_removed", dataFramesRemoved),
		zap.Int("graphs_removed", graphsRemoved))
	return dataFramesRemoved, graphsRemoved
}

// ClearAll empties both tiers and the reverse indices.
func (m *Manager) ClearAll() {
	m.indexMu.Lock()
	m.graphsByDataFrame = make(map[string]map[string]struct{})
	m.graphsByUseCase = make(map[string]map[string]struct{})
	m.dataFramesByDatabase = make(map[string]map[string]struct{})
	m.indexMu.Unlock()

	m.dataFrames.Clear()
	m.graphs.Clear()
	m.metrics.CacheSize.WithLabelValues(tierDataFrame).Set(0)
	m.metrics.CacheSize.WithLabelValues(tierGraph).Set(0)
	m.logger.Info("all caches cleared")
}

// Shutdown drops all cached state at process teardown.
func (m *Manager) Shutdown() {
	m.ClearAll()
}

// TierStats bundles the counters of both cache tiers.
type TierStats struct {
	DataFrames Stats `json:"dataframes"`
	Graphs     Stats `json:"graphs"`
}

// Stats returns both tiers' counters.
func (m *Manager) Stats() TierStats {
	return TierStats{
		DataFrames: m.dataFrames.GetStats(),
		Graphs:     m.graphs.GetStats(),
	}
}

// SetTTLs applies new default TTLs to both tiers (hot-reload support).
func (m *Manager) SetTTLs(dataFrameTTL, graphTTL time.Duration) {
	m.dataFrames.SetTTL(dataFrameTTL)
	m.graphs.SetTTL(graphTTL)
}
