package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/services"
)

// DecisionRequest is the body for approve/deny decisions. The comment is
// optional for both.
type DecisionRequest struct {
	Comment *string `json:"comment,omitempty"`
}

// ReturnRequest is the body for returning a request for more information.
// The comment is mandatory.
type ReturnRequest struct {
	Comment string `json:"comment"`
}

// ChangeRequestHandler handles change-request HTTP requests.
type ChangeRequestHandler struct {
	changeService services.ChangeRequestService
	logger        *zap.Logger
}

// NewChangeRequestHandler creates a new change-request handler.
func NewChangeRequestHandler(changeService services.ChangeRequestService, logger *zap.Logger) *ChangeRequestHandler {
	return &ChangeRequestHandler{
		changeService: changeService,
		logger:        logger,
	}
}

// RegisterRoutes registers the change-request routes on the given mux.
func (h *ChangeRequestHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scoped ScopeMiddleware) {
	base := "/api/change-requests"

	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(scoped(h.Create)))
	mux.HandleFunc("GET "+base+"/pending", authMiddleware.RequireAuth(scoped(h.ListPending)))
	mux.HandleFunc("GET "+base+"/my-requests", authMiddleware.RequireAuth(scoped(h.ListMine)))
	mux.HandleFunc("GET "+base+"/all-attributes", authMiddleware.RequireAuth(scoped(h.ListAttributeFamily)))
	mux.HandleFunc("PUT "+base+"/{id}/approve", authMiddleware.RequireAuth(scoped(h.Approve)))
	mux.HandleFunc("PUT "+base+"/{id}/deny", authMiddleware.RequireAuth(scoped(h.Deny)))
	mux.HandleFunc("PUT "+base+"/{id}/return", authMiddleware.RequireAuth(scoped(h.Return)))
	mux.HandleFunc("PUT "+base+"/{id}/update", authMiddleware.RequireAuth(scoped(h.Resubmit)))
}

// Create handles POST /api/change-requests
func (h *ChangeRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateChangeRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.changeService.Create(r.Context(), &input)
	if err != nil {
		h.logger.Error("Failed to create change request",
			zap.String("type", input.RequestType),
			zap.String("target", input.TargetObject),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_change_request_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: req}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Approve handles PUT /api/change-requests/{id}/approve
func (h *ChangeRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRequestID(w, r, h.logger)
	if !ok {
		return
	}

	var body DecisionRequest
	// io.EOF means no body was sent; the comment is optional.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.changeService.Approve(r.Context(), id, body.Comment)
	if err != nil {
		h.logger.Error("Failed to approve change request",
			zap.String("id", id.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "approve_change_request_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: req}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Deny handles PUT /api/change-requests/{id}/deny
func (h *ChangeRequestHandler) Deny(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRequestID(w, r, h.logger)
	if !ok {
		return
	}

	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.changeService.Deny(r.Context(), id, body.Comment)
	if err != nil {
		h.logger.Error("Failed to deny change request",
			zap.String("id", id.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "deny_change_request_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: req}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Return handles PUT /api/change-requests/{id}/return
func (h *ChangeRequestHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRequestID(w, r, h.logger)
	if !ok {
		return
	}

	var body ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.changeService.ReturnForInfo(r.Context(), id, body.Comment)
	if err != nil {
		h.logger.Error("Failed to return change request",
			zap.String("id", id.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "return_change_request_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: req}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Resubmit handles PUT /api/change-requests/{id}/update
func (h *ChangeRequestHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRequestID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.ResubmitChangeRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.changeService.Resubmit(r.Context(), id, &input)
	if err != nil {
		h.logger.Error("Failed to resubmit change request",
			zap.String("id", id.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "resubmit_change_request_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: req}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListPending handles GET /api/change-requests/pending
func (h *ChangeRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.changeService.ListPending(r.Context())
	if err != nil {
		h.logger.Error("Failed to list pending change requests", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_change_requests_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: requests}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListMine handles GET /api/change-requests/my-requests
func (h *ChangeRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.changeService.ListMine(r.Context())
	if err != nil {
		h.logger.Error("Failed to list own change requests", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_change_requests_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: requests}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListAttributeFamily handles GET /api/change-requests/all-attributes
func (h *ChangeRequestHandler) ListAttributeFamily(w http.ResponseWriter, r *http.Request) {
	requests, err := h.changeService.ListAttributeFamily(r.Context())
	if err != nil {
		h.logger.Error("Failed to list attribute change requests", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_change_requests_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: requests}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
