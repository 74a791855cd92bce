package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/services"
)

// AttributeListResponse for GET /api/attributes
type AttributeListResponse struct {
	Attributes []*models.AttributeWithEnumerations `json:"attributes"`
	Total      int                                 `json:"total"`
}

// AttributeHandler handles business-glossary read requests. Attributes are
// only written through approved change requests.
type AttributeHandler struct {
	catalogService services.CatalogService
	logger         *zap.Logger
}

// NewAttributeHandler creates a new attribute handler.
func NewAttributeHandler(catalogService services.CatalogService, logger *zap.Logger) *AttributeHandler {
	return &AttributeHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the attribute routes on the given mux.
func (h *AttributeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scoped ScopeMiddleware) {
	mux.HandleFunc("GET /api/attributes", authMiddleware.RequireAuth(scoped(h.List)))
	mux.HandleFunc("GET /api/attributes/{name}", authMiddleware.RequireAuth(scoped(h.Get)))
}

// List handles GET /api/attributes
func (h *AttributeHandler) List(w http.ResponseWriter, r *http.Request) {
	attributes, err := h.catalogService.ListAttributes(r.Context())
	if err != nil {
		h.logger.Error("Failed to list attributes", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_attributes_failed")
		return
	}

	response := AttributeListResponse{Attributes: attributes, Total: len(attributes)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/attributes/{name}
func (h *AttributeHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	attr, err := h.catalogService.GetAttribute(r.Context(), name)
	if err != nil {
		h.logger.Error("Failed to get attribute", zap.String("attribute", name), zap.Error(err))
		writeServiceError(w, h.logger, err, "get_attribute_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: attr}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
