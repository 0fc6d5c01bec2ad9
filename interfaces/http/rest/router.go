// Package rest assembles the HTTP router for the visualization API.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"biorempp-backend/interfaces/http/rest/handlers"
	"biorempp-backend/interfaces/http/rest/middleware"
	"biorempp-backend/internal/domain/usecase"
	"biorempp-backend/internal/infrastructure/cache"
	"biorempp-backend/internal/infrastructure/observability"
)

// Router creates and configures the HTTP router.
type Router struct {
	manager  *cache.Manager
	registry *usecase.Registry
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(
	manager *cache.Manager,
	registry *usecase.Registry,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		manager:  manager,
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(30 * time.Second))
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "https://*.biorempp.org"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health and metrics
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.GetRegistry(), promhttp.HandlerOpts{}))

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		useCaseHandler := handlers.NewUseCaseHandler(rt.registry, rt.logger)
		chartHandler := handlers.NewChartHandler(rt.manager, rt.registry, rt.logger)
		cacheHandler := handlers.NewCacheHandler(rt.manager, rt.logger)

		r.Route("/use-cases", func(r chi.Router) {
			r.Get("/", useCaseHandler.ListUseCases)
			r.Get("/{useCaseID}", useCaseHandler.GetUseCase)
			r.Get("/{useCaseID}/chart", chartHandler.GetChart)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", cacheHandler.GetStats)
			r.Post("/clear", cacheHandler.Clear)
			r.Post("/use-cases/{useCaseID}/invalidate", cacheHandler.InvalidateUseCase)
			r.Post("/databases/{databaseID}/invalidate", cacheHandler.InvalidateDatabase)
		})
	})

	return router
}

// healthCheck handles health check requests.
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests. The service is ready once
// the registry resolved; reference tables load lazily on first request.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
