package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"biorempp-backend/internal/domain/usecase"
	apperrors "biorempp-backend/internal/errors"
	"biorempp-backend/internal/infrastructure/cache"
)

// ChartHandler serves rendered chart definitions.
type ChartHandler struct {
	manager  *cache.Manager
	registry *usecase.Registry
	logger   *zap.Logger
}

// NewChartHandler creates a chart handler.
func NewChartHandler(manager *cache.Manager, registry *usecase.Registry, logger *zap.Logger) *ChartHandler {
	return &ChartHandler{manager: manager, registry: registry, logger: logger}
}

// GetChart handles GET /api/v1/use-cases/{useCaseID}/chart. Filter selections
// arrive as query parameters named after the use case's filter dimensions;
// values may be repeated or comma-separated.
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	useCaseID := chi.URLParam(r, "useCaseID")

	spec, err := h.registry.Resolve(useCaseID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filters, err := parseFilters(r, spec.FilterDimensions)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	figure, err := h.manager.GetOrBuild(r.Context(), useCaseID, filters)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, figure)
}

// parseFilters reads the filter selection from the query string, rejecting
// dimensions the use case does not declare.
func parseFilters(r *http.Request, dimensions []string) (usecase.Filters, error) {
	allowed := make(map[string]struct{}, len(dimensions))
	for _, dim := range dimensions {
		allowed[dim] = struct{}{}
	}

	filters := make(usecase.Filters)
	for name, raw := range r.URL.Query() {
		if _, ok := allowed[name]; !ok {
			return nil, apperrors.Validation("UNKNOWN_FILTER",
				"filter dimension not supported by this use case").
				WithDetails(name).Build()
		}
		var values []string
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					values = append(values, part)
				}
			}
		}
		if len(values) > 0 {
			filters[name] = values
		}
	}
	return filters, nil
}
