package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"biorempp-backend/internal/infrastructure/cache"
)

// CacheHandler exposes cache statistics and invalidation operations.
type CacheHandler struct {
	manager *cache.Manager
	logger  *zap.Logger
}

// NewCacheHandler creates a cache handler.
func NewCacheHandler(manager *cache.Manager, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{manager: manager, logger: logger}
}

// GetStats handles GET /api/v1/cache/stats.
func (h *CacheHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Stats())
}

// InvalidateUseCase handles POST /api/v1/cache/use-cases/{useCaseID}/invalidate.
// Invalidating an id with no cached graphs is a successful no-op.
func (h *CacheHandler) InvalidateUseCase(w http.ResponseWriter, r *http.Request) {
	useCaseID := chi.URLParam(r, "useCaseID")
	removed := h.manager.InvalidateUseCase(useCaseID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"use_case":       useCaseID,
		"graphs_removed": removed,
	})
}

// InvalidateDatabase handles POST /api/v1/cache/databases/{databaseID}/invalidate.
// Every dataframe loaded from the database and every graph built from those
// dataframes is removed.
func (h *CacheHandler) InvalidateDatabase(w http.ResponseWriter, r *http.Request) {
	databaseID := chi.URLParam(r, "databaseID")
	dataFrames, graphs := h.manager.InvalidateDatabase(databaseID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"database":           databaseID,
		"dataframes_removed": dataFrames,
		"graphs_removed":     graphs,
	})
}

// Clear handles POST /api/v1/cache/clear.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.manager.ClearAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
