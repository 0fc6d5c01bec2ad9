// Package di provides the dependency injection container that assembles the
// application. Construction is explicit and ordered; every component receives
// its dependencies through its constructor.
package di

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"biorempp-backend/interfaces/http/rest"
	"biorempp-backend/internal/analysis"
	"biorempp-backend/internal/config"
	"biorempp-backend/internal/domain/usecase"
	"biorempp-backend/internal/infrastructure/cache"
	"biorempp-backend/internal/infrastructure/observability"
	"biorempp-backend/internal/infrastructure/tracing"
	"biorempp-backend/internal/repository"
	csvrepo "biorempp-backend/internal/repository/csv"
)

// Container holds every initialized component of the application.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Collector
	Tracing  *tracing.Provider
	Registry *usecase.Registry
	Repo     repository.Repository
	Engine   *analysis.Engine
	Manager  *cache.Manager
	Handler  http.Handler

	shutdownFunctions []func(context.Context) error
}

// NewContainer creates and initializes a container from the given
// configuration.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	c.Logger = logger
	c.addShutdown(func(context.Context) error {
		_ = logger.Sync()
		return nil
	})

	c.Metrics = observability.NewCollector(cfg.Metrics.Namespace)

	if cfg.Tracing.Enabled {
		provider, err := tracing.NewProvider(ctx, tracing.Config{
			ServiceName:  cfg.Tracing.ServiceName,
			Environment:  string(cfg.Environment),
			OTLPEndpoint: cfg.Tracing.Endpoint,
			SampleRate:   cfg.Tracing.SampleRate,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		c.Tracing = provider
		c.addShutdown(provider.Shutdown)
	}

	registry, err := usecase.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("building use-case registry: %w", err)
	}
	c.Registry = registry

	c.Repo = buildRepository(cfg, logger)
	c.Engine = analysis.NewEngine()

	manager, err := buildManager(cfg, registry, c.Repo, c.Engine, c.Metrics, logger)
	if err != nil {
		return nil, err
	}
	c.Manager = manager

	c.Handler = rest.NewRouter(manager, registry, c.Metrics, logger).Setup()

	logger.Info("container initialized",
		zap.String("environment", string(cfg.Environment)),
		zap.String("data_dir", cfg.Data.Dir),
		zap.Int("use_cases", len(registry.IDs())))
	return c, nil
}

// buildRepository layers the decorators around the CSV source: the retry
// decorator sits closest to the source, the circuit breaker outermost so an
// exhausted retry budget counts as a single failure.
func buildRepository(cfg *config.Config, logger *zap.Logger) repository.Repository {
	var repo repository.Repository = csvrepo.NewRepository(cfg.Data.Dir, logger)

	repo = repository.NewRetryingRepository(repo, repository.RetryConfig{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		JitterFactor:  cfg.Retry.JitterFactor,
	}, logger)

	if cfg.Breaker.Enabled {
		repo = repository.NewBreakerRepository(repo, repository.BreakerConfig{
			Name:             "reference-databases",
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
			MinRequests:      cfg.Breaker.MinRequests,
		}, logger)
	}

	return repo
}

// buildManager constructs both cache tiers and the manager on top of them.
func buildManager(
	cfg *config.Config,
	registry *usecase.Registry,
	repo repository.Repository,
	engine *analysis.Engine,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*cache.Manager, error) {
	clock := cache.SystemClock()

	dataFrames, err := cache.NewDataFrameCache(
		cfg.Cache.DataFrameCapacity, cfg.Cache.DataFrameTTLSeconds, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing dataframe cache: %w", err)
	}

	graphs, err := cache.NewGraphCache(
		cfg.Cache.GraphCapacity, cfg.Cache.GraphTTLSeconds, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing graph cache: %w", err)
	}

	return cache.NewManager(registry, repo, engine, dataFrames, graphs, metrics, logger), nil
}

// ApplyConfig propagates a reloaded configuration to the running components.
// Only hot-reloadable settings are applied; everything else needs a restart.
func (c *Container) ApplyConfig(cfg *config.Config) {
	c.Manager.SetTTLs(cfg.Cache.DataFrameTTLSeconds, cfg.Cache.GraphTTLSeconds)
	c.Logger.Info("configuration applied",
		zap.Duration("dataframe_ttl", cfg.Cache.DataFrameTTLSeconds),
		zap.Duration("graph_ttl", cfg.Cache.GraphTTLSeconds))
}

// addShutdown registers a shutdown function, run in reverse order.
func (c *Container) addShutdown(fn func(context.Context) error) {
	c.shutdownFunctions = append(c.shutdownFunctions, fn)
}

// Shutdown releases container resources in reverse initialization order.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	for i := len(c.shutdownFunctions) - 1; i >= 0; i-- {
		if err := c.shutdownFunctions[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
