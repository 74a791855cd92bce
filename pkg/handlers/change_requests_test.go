package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

func TestChangeRequestHandler_Create(t *testing.T) {
	mockService := &mockChangeRequestService{
		request: &models.ChangeRequest{
			ID:           uuid.New(),
			RequestType:  models.RequestTypeDescription,
			TargetObject: "EDW.SALES.ORDERS",
			Status:       models.StatusPending,
		},
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	body := `{
		"request_type": "DESCRIPTION",
		"target_object": "EDW.SALES.ORDERS",
		"justification": "Orders table has no description",
		"proposed_change": {"description": "One row per customer order."}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/change-requests", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	require.NotNil(t, mockService.lastInput)
	assert.Equal(t, models.RequestTypeDescription, mockService.lastInput.RequestType)
	assert.Equal(t, "EDW.SALES.ORDERS", mockService.lastInput.TargetObject)
}

func TestChangeRequestHandler_Create_InvalidBody(t *testing.T) {
	handler := NewChangeRequestHandler(&mockChangeRequestService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/change-requests", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeRequestHandler_Create_ValidationError(t *testing.T) {
	mockService := &mockChangeRequestService{err: apperrors.Validation("unknown request type %q", "BOGUS")}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	body := `{"request_type": "BOGUS", "target_object": "EDW.SALES.ORDERS", "justification": "x", "proposed_change": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/change-requests", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown request type")
}

func TestChangeRequestHandler_Create_PermissionError(t *testing.T) {
	mockService := &mockChangeRequestService{err: apperrors.Permission("role cannot create change requests")}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	body := `{"request_type": "DESCRIPTION", "target_object": "EDW.SALES.ORDERS", "justification": "x", "proposed_change": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/change-requests", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChangeRequestHandler_Approve(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{
		request: &models.ChangeRequest{ID: id, Status: models.StatusApproved},
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	body := `{"comment": "Looks good"}`
	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/approve", bytes.NewBufferString(body))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, mockService.lastID)
	require.NotNil(t, mockService.lastComment)
	assert.Equal(t, "Looks good", *mockService.lastComment)
}

func TestChangeRequestHandler_Approve_NoBody(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{
		request: &models.ChangeRequest{ID: id, Status: models.StatusApproved},
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/approve", nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, mockService.lastComment)
}

func TestChangeRequestHandler_Approve_ChunkedBody(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{
		request: &models.ChangeRequest{ID: id, Status: models.StatusApproved},
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	// io.MultiReader hides the length, as a chunked request would.
	body := io.MultiReader(strings.NewReader(`{"comment": "Verified against OMS"}`))
	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/approve", body)
	req.SetPathValue("id", id.String())
	require.Equal(t, int64(-1), req.ContentLength)
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mockService.lastComment)
	assert.Equal(t, "Verified against OMS", *mockService.lastComment)
}

func TestChangeRequestHandler_Approve_InvalidID(t *testing.T) {
	handler := NewChangeRequestHandler(&mockChangeRequestService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/not-a-uuid/approve", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request_id")
}

func TestChangeRequestHandler_Approve_AlreadyDecided(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{err: apperrors.IllegalState("request already approved")}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/approve", nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChangeRequestHandler_Approve_VanishedTarget(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{
		err: apperrors.Dependency("table EDW.SALES.ORDERS no longer exists", nil),
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/approve", nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChangeRequestHandler_Deny_NotFound(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{err: apperrors.NotFound("change request %s not found", id)}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/deny", nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Deny(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangeRequestHandler_Return(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{
		request: &models.ChangeRequest{ID: id, Status: models.StatusMoreInfoNeeded},
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	body := `{"comment": "Which schema version is this for?"}`
	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/return", bytes.NewBufferString(body))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Return(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mockService.lastComment)
	assert.Equal(t, "Which schema version is this for?", *mockService.lastComment)
}

func TestChangeRequestHandler_Return_MissingComment(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{err: apperrors.Validation("a comment is required when returning a request")}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/return", bytes.NewBufferString(`{}`))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Return(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeRequestHandler_Resubmit(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{
		request: &models.ChangeRequest{ID: id, Status: models.StatusPending},
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	body := `{"justification": "Clarified the scope", "proposed_change": {"description": "One row per order line."}}`
	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/update", bytes.NewBufferString(body))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Resubmit(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mockService.lastResubmit)
	assert.Equal(t, "Clarified the scope", mockService.lastResubmit.Justification)
}

func TestChangeRequestHandler_Resubmit_NotRequester(t *testing.T) {
	id := uuid.New()
	mockService := &mockChangeRequestService{err: apperrors.Permission("only the requester can resubmit")}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	body := `{"justification": "x", "proposed_change": {}}`
	req := httptest.NewRequest(http.MethodPut, "/api/change-requests/"+id.String()+"/update", bytes.NewBufferString(body))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	handler.Resubmit(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChangeRequestHandler_ListPending(t *testing.T) {
	mockService := &mockChangeRequestService{
		requests: []*models.ChangeRequest{
			{ID: uuid.New(), Status: models.StatusPending},
			{ID: uuid.New(), Status: models.StatusMoreInfoNeeded},
		},
	}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/change-requests/pending", nil)
	rec := httptest.NewRecorder()
	handler.ListPending(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestChangeRequestHandler_ListPending_PermissionError(t *testing.T) {
	mockService := &mockChangeRequestService{err: apperrors.Permission("role cannot review change requests")}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/change-requests/pending", nil)
	rec := httptest.NewRecorder()
	handler.ListPending(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChangeRequestHandler_ListMine_Empty(t *testing.T) {
	mockService := &mockChangeRequestService{requests: []*models.ChangeRequest{}}
	handler := NewChangeRequestHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/change-requests/my-requests", nil)
	rec := httptest.NewRecorder()
	handler.ListMine(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}
