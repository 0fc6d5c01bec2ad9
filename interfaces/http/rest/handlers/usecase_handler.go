package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"biorempp-backend/internal/domain/usecase"
)

// UseCaseHandler serves the static use-case catalogue.
type UseCaseHandler struct {
	registry *usecase.Registry
	logger   *zap.Logger
}

// NewUseCaseHandler creates a use-case handler.
func NewUseCaseHandler(registry *usecase.Registry, logger *zap.Logger) *UseCaseHandler {
	return &UseCaseHandler{registry: registry, logger: logger}
}

// useCaseSummary is the list-item projection of a use-case spec.
type useCaseSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Chart       string `json:"chart"`
}

// useCaseDetail is the full projection of a use-case spec.
type useCaseDetail struct {
	useCaseSummary
	Databases        []string `json:"databases"`
	FilterDimensions []string `json:"filter_dimensions,omitempty"`
}

// ListUseCases handles GET /api/v1/use-cases.
func (h *UseCaseHandler) ListUseCases(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.IDs()
	summaries := make([]useCaseSummary, 0, len(ids))
	for _, id := range ids {
		spec, err := h.registry.Resolve(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, useCaseSummary{
			ID:          spec.ID,
			Title:       spec.Title,
			Description: spec.Description,
			Chart:       string(spec.Chart),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"use_cases": summaries})
}

// GetUseCase handles GET /api/v1/use-cases/{useCaseID}.
func (h *UseCaseHandler) GetUseCase(w http.ResponseWriter, r *http.Request) {
	spec, err := h.registry.Resolve(chi.URLParam(r, "useCaseID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, useCaseDetail{
		useCaseSummary: useCaseSummary{
			ID:          spec.ID,
			Title:       spec.Title,
			Description: spec.Description,
			Chart:       string(spec.Chart),
		},
		Databases:        spec.Databases,
		FilterDimensions: spec.FilterDimensions,
	})
}
