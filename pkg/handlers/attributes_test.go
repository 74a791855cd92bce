package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

func TestAttributeHandler_List(t *testing.T) {
	mockService := &mockCatalogService{
		attributes: []*models.AttributeWithEnumerations{
			{
				Attribute: models.Attribute{Name: "order_status", DisplayName: "Order Status"},
				Enumerations: []*models.Enumeration{
					{ValueCode: "OPEN", SortOrder: 1, IsActive: true},
					{ValueCode: "CLOSED", SortOrder: 2, IsActive: true},
				},
			},
		},
	}
	handler := NewAttributeHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/attributes", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total"])
}

func TestAttributeHandler_Get(t *testing.T) {
	mockService := &mockCatalogService{
		attribute: &models.AttributeWithEnumerations{
			Attribute:    models.Attribute{Name: "order_status", DisplayName: "Order Status"},
			Enumerations: []*models.Enumeration{},
		},
	}
	handler := NewAttributeHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/attributes/order_status", nil)
	req.SetPathValue("name", "order_status")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "order_status", data["name"])
}

func TestAttributeHandler_Get_NotFound(t *testing.T) {
	mockService := &mockCatalogService{err: apperrors.NotFound("attribute %q not found", "nope")}
	handler := NewAttributeHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/attributes/nope", nil)
	req.SetPathValue("name", "nope")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
