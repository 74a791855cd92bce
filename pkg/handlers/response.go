package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
)

// ApiResponse is the uniform success envelope.
type ApiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// statusForKind maps an error kind to its HTTP status code.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindPermission:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindIllegalState:
		return http.StatusConflict
	case apperrors.KindDependency:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError maps a service error to the taxonomy's status code and
// writes it. Errors outside the taxonomy become 500 with the fallback code.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallbackCode string) {
	kind := apperrors.KindOf(err)
	if kind == "" {
		if err := ErrorResponse(w, http.StatusInternalServerError, fallbackCode, err.Error()); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if err := ErrorResponse(w, statusForKind(kind), string(kind), err.Error()); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
