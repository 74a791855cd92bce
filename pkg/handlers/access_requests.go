package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/services"
)

// AccessRequestHandler handles data-access request HTTP requests.
type AccessRequestHandler struct {
	accessService services.AccessRequestService
	logger        *zap.Logger
}

// NewAccessRequestHandler creates a new access-request handler.
func NewAccessRequestHandler(accessService services.AccessRequestService, logger *zap.Logger) *AccessRequestHandler {
	return &AccessRequestHandler{
		accessService: accessService,
		logger:        logger,
	}
}

// RegisterRoutes registers the access-request routes on the given mux.
func (h *AccessRequestHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scoped ScopeMiddleware) {
	base := "/api/access-requests"

	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(scoped(h.Create)))
	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(scoped(h.ListPending)))
	mux.HandleFunc("GET "+base+"/my-requests", authMiddleware.RequireAuth(scoped(h.ListMine)))
	mux.HandleFunc("PUT "+base+"/{id}/approve", authMiddleware.RequireAuth(scoped(h.Approve)))
	mux.HandleFunc("PUT "+base+"/{id}/deny", authMiddleware.RequireAuth(scoped(h.Deny)))
}

// Create handles POST /api/access-requests
func (h *AccessRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateAccessRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.accessService.Create(r.Context(), &input)
	if err != nil {
		h.logger.Error("Failed to create access request",
			zap.String("table", input.TableFullName),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_access_request_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: req}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Approve handles PUT /api/access-requests/{id}/approve
func (h *AccessRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.accessService.Approve, "approve_access_request_failed")
}

// Deny handles PUT /api/access-requests/{id}/deny
func (h *AccessRequestHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.accessService.Deny, "deny_access_request_failed")
}

func (h *AccessRequestHandler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID, comment *string) (*models.AccessRequest, error), fallbackCode string) {
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

	req, err := fn(r.Context(), id, body.Comment)
	if err != nil {
		h.logger.Error("Failed to decide access request",
			zap.String("id", id.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, fallbackCode)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: req}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListPending handles GET /api/access-requests
func (h *AccessRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.accessService.ListPending(r.Context())
	if err != nil {
		h.logger.Error("Failed to list pending access requests", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_access_requests_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: requests}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListMine handles GET /api/access-requests/my-requests
func (h *AccessRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.accessService.ListMine(r.Context())
	if err != nil {
		h.logger.Error("Failed to list own access requests", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_access_requests_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: requests}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
