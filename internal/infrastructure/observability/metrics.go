// Package observability provides Prometheus metrics and zap logger
// construction for the BioRemPP backend.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application. Each collector
// owns its registry, so tests can create collectors freely without duplicate
// registration panics.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics, labeled by tier ("dataframe" / "graph")
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	CacheSize      *prometheus.GaugeVec

	// Pipeline metrics
	RepositoryLoads    *prometheus.CounterVec
	RepositoryDuration *prometheus.HistogramVec
	AggregationRuns    prometheus.Counter
	ChartBuilds        *prometheus.CounterVec
	BuildDuration      *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"tier"},
	)

	cacheMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"tier"},
	)

	cacheEvictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of cache evictions",
		},
		[]string{"tier"},
	)

	cacheSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Current number of live cache entries",
		},
		[]string{"tier"},
	)

	repositoryLoads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_loads_total",
			Help:      "Total number of reference database loads",
		},
		[]string{"database", "status"},
	)

	repositoryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_load_duration_seconds",
			Help:      "Reference database load duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database"},
	)

	aggregationRuns := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_runs_total",
			Help:      "Total number of merge/aggregation executions",
		},
	)

	chartBuilds := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_builds_total",
			Help:      "Total number of chart definitions built",
		},
		[]string{"use_case", "status"},
	)

	buildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_build_duration_seconds",
			Help:      "End-to-end get-or-build duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"use_case"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		cacheHits,
		cacheMisses,
		cacheEvictions,
		cacheSize,
		repositoryLoads,
		repositoryDuration,
		aggregationRuns,
		chartBuilds,
		buildDuration,
	)

	return &Collector{
		registry:           registry,
		HTTPRequests:       httpRequests,
		HTTPDuration:       httpDuration,
		CacheHits:          cacheHits,
		CacheMisses:        cacheMisses,
		CacheEvictions:     cacheEvictions,
		CacheSize:          cacheSize,
		RepositoryLoads:    repositoryLoads,
		RepositoryDuration: repositoryDuration,
		AggregationRuns:    aggregationRuns,
		ChartBuilds:        chartBuilds,
		BuildDuration:      buildDuration,
	}
}

// GetRegistry returns the Prometheus registry for this collector.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
