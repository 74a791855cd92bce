package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/services"
)

// TableListResponse for GET /api/catalog/tables
type TableListResponse struct {
	Tables []*models.TableSummary `json:"tables"`
	Total  int                    `json:"total"`
}

// RateTableRequest for POST /api/catalog/tables/{name}/ratings
type RateTableRequest struct {
	Score int `json:"score"`
}

// CommentRequest for POST /api/catalog/tables/{name}/comments
type CommentRequest struct {
	Text string `json:"text"`
}

// CatalogHandler handles catalog browse and user-content HTTP requests.
type CatalogHandler struct {
	catalogService services.CatalogService
	scanService    services.ScanService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalogService services.CatalogService, scanService services.ScanService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		scanService:    scanService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scoped ScopeMiddleware) {
	base := "/api/catalog/tables"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(scoped(h.ListTables)))
	mux.HandleFunc("GET "+base+"/{name}", authMiddleware.RequireAuth(scoped(h.GetTable)))
	mux.HandleFunc("GET "+base+"/{name}/columns", authMiddleware.RequireAuth(scoped(h.ListColumns)))
	mux.HandleFunc("POST "+base+"/{name}/ratings", authMiddleware.RequireAuth(scoped(h.RateTable)))
	mux.HandleFunc("GET "+base+"/{name}/ratings", authMiddleware.RequireAuth(scoped(h.ListRatings)))
	mux.HandleFunc("POST "+base+"/{name}/comments", authMiddleware.RequireAuth(scoped(h.CommentOnTable)))
	mux.HandleFunc("GET "+base+"/{name}/comments", authMiddleware.RequireAuth(scoped(h.ListComments)))
	mux.HandleFunc("POST /api/catalog/scan", authMiddleware.RequireAuth(scoped(h.Scan)))
}

// ListTables handles GET /api/catalog/tables?search=
func (h *CatalogHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.catalogService.ListTables(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("Failed to list tables", zap.Error(err))
		writeServiceError(w, h.logger, err, "list_tables_failed")
		return
	}

	response := TableListResponse{Tables: tables, Total: len(tables)}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetTable handles GET /api/catalog/tables/{name}
func (h *CatalogHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.catalogService.GetTable(r.Context(), name)
	if err != nil {
		h.logger.Error("Failed to get table", zap.String("table", name), zap.Error(err))
		writeServiceError(w, h.logger, err, "get_table_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListColumns handles GET /api/catalog/tables/{name}/columns
func (h *CatalogHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}

	columns, err := h.catalogService.ListColumns(r.Context(), name)
	if err != nil {
		h.logger.Error("Failed to list columns", zap.String("table", name), zap.Error(err))
		writeServiceError(w, h.logger, err, "list_columns_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: columns}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RateTable handles POST /api/catalog/tables/{name}/ratings
func (h *CatalogHandler) RateTable(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}

	var body RateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	rating, err := h.catalogService.RateTable(r.Context(), name, body.Score)
	if err != nil {
		h.logger.Error("Failed to rate table", zap.String("table", name), zap.Error(err))
		writeServiceError(w, h.logger, err, "rate_table_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: rating}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListRatings handles GET /api/catalog/tables/{name}/ratings
func (h *CatalogHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}

	ratings, err := h.catalogService.ListRatings(r.Context(), name)
	if err != nil {
		h.logger.Error("Failed to list ratings", zap.String("table", name), zap.Error(err))
		writeServiceError(w, h.logger, err, "list_ratings_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: ratings}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CommentOnTable handles POST /api/catalog/tables/{name}/comments
func (h *CatalogHandler) CommentOnTable(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}

	var body CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	comment, err := h.catalogService.CommentOnTable(r.Context(), name, body.Text)
	if err != nil {
		h.logger.Error("Failed to comment on table", zap.String("table", name), zap.Error(err))
		writeServiceError(w, h.logger, err, "comment_on_table_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: comment}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListComments handles GET /api/catalog/tables/{name}/comments
func (h *CatalogHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}

	comments, err := h.catalogService.ListComments(r.Context(), name)
	if err != nil {
		h.logger.Error("Failed to list comments", zap.String("table", name), zap.Error(err))
		writeServiceError(w, h.logger, err, "list_comments_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: comments}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Scan handles POST /api/catalog/scan
func (h *CatalogHandler) Scan(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanService.Scan(r.Context())
	if err != nil {
		h.logger.Error("Failed to run metadata scan", zap.Error(err))
		writeServiceError(w, h.logger, err, "scan_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
