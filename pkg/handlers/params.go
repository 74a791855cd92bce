package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseRequestID extracts and validates the {id} path parameter. Writes the
// error response itself and returns ok=false when the id is malformed.
func ParseRequestID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Debug("Invalid request id in path", zap.String("id", raw))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request_id", "Invalid request id"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// ParseTableName extracts the {name} path parameter (a DB.SCHEMA.TABLE full
// name; shape validation happens in the service).
func ParseTableName(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	name := r.PathValue("name")
	if name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_table_name", "Table name is required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return name, true
}
