package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/services"
)

// UpsertRoleRequest for PUT /api/roles/{role}
type UpsertRoleRequest struct {
	models.CapabilitySet
}

// RoleHandler handles role-capability administration.
type RoleHandler struct {
	perms  services.PermissionService
	logger *zap.Logger
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(perms services.PermissionService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{perms: perms, logger: logger}
}

// RegisterRoutes registers the role administration routes on the given mux.
func (h *RoleHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scoped ScopeMiddleware) {
	mux.HandleFunc("GET /api/roles", authMiddleware.RequireAuth(scoped(h.List)))
	mux.HandleFunc("PUT /api/roles/{role}", authMiddleware.RequireAuth(scoped(h.Upsert)))
}

func (h *RoleHandler) callerCaps(r *http.Request) (*models.CapabilitySet, error) {
	return h.perms.CapabilitiesFor(r.Context(), auth.GetRoleFromContext(r.Context()))
}

// List handles GET /api/roles
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	caps, err := h.callerCaps(r)
	if err != nil {
		h.logger.Error("Failed to resolve caller capabilities", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_roles_failed")
		return
	}

	roles, err := h.perms.ListRoles(r.Context(), caps)
	if err != nil {
		h.logger.Error("Failed to list roles", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_roles_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: roles}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Upsert handles PUT /api/roles/{role}
func (h *RoleHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	role := r.PathValue("role")

	var body UpsertRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	caps, err := h.callerCaps(r)
	if err != nil {
		h.logger.Error("Failed to resolve caller capabilities", zap.Error(err))
		writeServiceError(w, h.logger, err, "upsert_role_failed")
		return
	}

	rc := &models.RoleCapabilities{Role: role, CapabilitySet: body.CapabilitySet}
	if err := h.perms.UpsertRole(r.Context(), caps, rc); err != nil {
		h.logger.Error("Failed to upsert role", zap.String("role", role), zap.Error(err))
		writeServiceError(w, h.logger, err, "upsert_role_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: rc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
