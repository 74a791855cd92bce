package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

func requestWithRole(req *http.Request, role string) *http.Request {
	claims := &auth.Claims{Role: role}
	claims.Subject = "user@example.com"
	return req.WithContext(context.WithValue(req.Context(), auth.ClaimsKey, claims))
}

func TestRoleHandler_List(t *testing.T) {
	mockService := &mockPermissionService{
		caps: &models.CapabilitySet{HasAppAccess: true, CanManageRoles: true},
		roles: []*models.RoleCapabilities{
			{Role: "steward", CapabilitySet: models.CapabilitySet{HasAppAccess: true, CanApproveGlossary: true}},
			{Role: "analyst", CapabilitySet: models.CapabilitySet{HasAppAccess: true, CanCreateRequests: true}},
		},
	}
	handler := NewRoleHandler(mockService, zap.NewNop())

	req := requestWithRole(httptest.NewRequest(http.MethodGet, "/api/roles", nil), "admin")
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestRoleHandler_List_PermissionError(t *testing.T) {
	mockService := &mockPermissionService{err: apperrors.Permission("role cannot manage roles")}
	handler := NewRoleHandler(mockService, zap.NewNop())

	req := requestWithRole(httptest.NewRequest(http.MethodGet, "/api/roles", nil), "analyst")
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleHandler_Upsert(t *testing.T) {
	mockService := &mockPermissionService{
		caps: &models.CapabilitySet{HasAppAccess: true, CanManageRoles: true},
	}
	handler := NewRoleHandler(mockService, zap.NewNop())

	body := `{"has_app_access": true, "can_create_requests": true}`
	req := requestWithRole(
		httptest.NewRequest(http.MethodPut, "/api/roles/contributor", bytes.NewBufferString(body)), "admin")
	req.SetPathValue("role", "contributor")
	rec := httptest.NewRecorder()
	handler.Upsert(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, mockService.lastUpsert)
	assert.Equal(t, "contributor", mockService.lastUpsert.Role)
	assert.True(t, mockService.lastUpsert.CanCreateRequests)
	assert.False(t, mockService.lastUpsert.CanManageRoles)
}

func TestRoleHandler_Upsert_InvalidBody(t *testing.T) {
	handler := NewRoleHandler(&mockPermissionService{}, zap.NewNop())

	req := requestWithRole(
		httptest.NewRequest(http.MethodPut, "/api/roles/contributor", bytes.NewBufferString("{")), "admin")
	req.SetPathValue("role", "contributor")
	rec := httptest.NewRecorder()
	handler.Upsert(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
