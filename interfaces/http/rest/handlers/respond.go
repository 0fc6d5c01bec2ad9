// Package handlers implements the REST endpoints of the visualization API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	apperrors "biorempp-backend/internal/errors"
)

// errorResponse is the JSON body returned on failure.
type errorResponse struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps an application error to an HTTP status and JSON body.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Error("unclassified error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Type:    string(apperrors.ErrorTypeInternal),
			Code:    "INTERNAL",
			Message: "internal server error",
		})
		return
	}

	status := httpStatus(appErr.Type)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(appErr))
	} else {
		logger.Warn("request rejected",
			zap.String("code", appErr.Code),
			zap.String("type", string(appErr.Type)))
	}

	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(appErr.RetryAfter.Seconds())))
	}
	writeJSON(w, status, errorResponse{
		Type:    string(appErr.Type),
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// httpStatus picks the HTTP status for an error type.
func httpStatus(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeData, apperrors.ErrorTypeParse:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
