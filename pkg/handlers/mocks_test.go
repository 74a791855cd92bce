package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/services"
)

// mockChangeRequestService is a mock for services.ChangeRequestService.
// Each method returns the corresponding field, or err if set.
type mockChangeRequestService struct {
	request  *models.ChangeRequest
	requests []*models.ChangeRequest
	err      error

	lastInput    *services.CreateChangeRequestInput
	lastResubmit *services.ResubmitChangeRequestInput
	lastID       uuid.UUID
	lastComment  *string
}

func (m *mockChangeRequestService) Create(ctx context.Context, input *services.CreateChangeRequestInput) (*models.ChangeRequest, error) {
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockChangeRequestService) Approve(ctx context.Context, id uuid.UUID, comment *string) (*models.ChangeRequest, error) {
	m.lastID = id
	m.lastComment = comment
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockChangeRequestService) Deny(ctx context.Context, id uuid.UUID, comment *string) (*models.ChangeRequest, error) {
	m.lastID = id
	m.lastComment = comment
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockChangeRequestService) ReturnForInfo(ctx context.Context, id uuid.UUID, comment string) (*models.ChangeRequest, error) {
	m.lastID = id
	m.lastComment = &comment
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockChangeRequestService) Resubmit(ctx context.Context, id uuid.UUID, input *services.ResubmitChangeRequestInput) (*models.ChangeRequest, error) {
	m.lastID = id
	m.lastResubmit = input
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockChangeRequestService) ListPending(ctx context.Context) ([]*models.ChangeRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.requests, nil
}

func (m *mockChangeRequestService) ListMine(ctx context.Context) ([]*models.ChangeRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.requests, nil
}

func (m *mockChangeRequestService) ListAttributeFamily(ctx context.Context) ([]*models.ChangeRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.requests, nil
}

// mockAccessRequestService is a mock for services.AccessRequestService.
type mockAccessRequestService struct {
	request  *models.AccessRequest
	requests []*models.AccessRequest
	err      error

	lastInput   *services.CreateAccessRequestInput
	lastID      uuid.UUID
	lastComment *string
}

func (m *mockAccessRequestService) Create(ctx context.Context, input *services.CreateAccessRequestInput) (*models.AccessRequest, error) {
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockAccessRequestService) Approve(ctx context.Context, id uuid.UUID, comment *string) (*models.AccessRequest, error) {
	m.lastID = id
	m.lastComment = comment
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockAccessRequestService) Deny(ctx context.Context, id uuid.UUID, comment *string) (*models.AccessRequest, error) {
	m.lastID = id
	m.lastComment = comment
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockAccessRequestService) ListPending(ctx context.Context) ([]*models.AccessRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.requests, nil
}

func (m *mockAccessRequestService) ListMine(ctx context.Context) ([]*models.AccessRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.requests, nil
}

// mockCatalogService is a mock for services.CatalogService.
type mockCatalogService struct {
	tables     []*models.TableSummary
	table      *models.TableDetail
	columns    []*models.ColumnDetail
	attributes []*models.AttributeWithEnumerations
	attribute  *models.AttributeWithEnumerations
	ratings    []*models.Rating
	rating     *models.Rating
	comments   []*models.Comment
	comment    *models.Comment
	err        error

	lastSearch string
	lastTable  string
	lastScore  int
	lastText   string
}

func (m *mockCatalogService) ListTables(ctx context.Context, search string) ([]*models.TableSummary, error) {
	m.lastSearch = search
	if m.err != nil {
		return nil, m.err
	}
	return m.tables, nil
}

func (m *mockCatalogService) GetTable(ctx context.Context, fullName string) (*models.TableDetail, error) {
	m.lastTable = fullName
	if m.err != nil {
		return nil, m.err
	}
	return m.table, nil
}

func (m *mockCatalogService) ListColumns(ctx context.Context, fullName string) ([]*models.ColumnDetail, error) {
	m.lastTable = fullName
	if m.err != nil {
		return nil, m.err
	}
	return m.columns, nil
}

func (m *mockCatalogService) ListAttributes(ctx context.Context) ([]*models.AttributeWithEnumerations, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attributes, nil
}

func (m *mockCatalogService) GetAttribute(ctx context.Context, name string) (*models.AttributeWithEnumerations, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attribute, nil
}

func (m *mockCatalogService) ListRatings(ctx context.Context, fullName string) ([]*models.Rating, error) {
	m.lastTable = fullName
	if m.err != nil {
		return nil, m.err
	}
	return m.ratings, nil
}

func (m *mockCatalogService) ListComments(ctx context.Context, fullName string) ([]*models.Comment, error) {
	m.lastTable = fullName
	if m.err != nil {
		return nil, m.err
	}
	return m.comments, nil
}

func (m *mockCatalogService) RateTable(ctx context.Context, fullName string, score int) (*models.Rating, error) {
	m.lastTable = fullName
	m.lastScore = score
	if m.err != nil {
		return nil, m.err
	}
	return m.rating, nil
}

func (m *mockCatalogService) CommentOnTable(ctx context.Context, fullName, text string) (*models.Comment, error) {
	m.lastTable = fullName
	m.lastText = text
	if m.err != nil {
		return nil, m.err
	}
	return m.comment, nil
}

// mockScanService is a mock for services.ScanService.
type mockScanService struct {
	result *services.ScanResult
	err    error
	called bool
}

func (m *mockScanService) Scan(ctx context.Context) (*services.ScanResult, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockPermissionService is a mock for services.PermissionService.
type mockPermissionService struct {
	caps  *models.CapabilitySet
	roles []*models.RoleCapabilities
	err   error

	lastUpsert *models.RoleCapabilities
}

func (m *mockPermissionService) CapabilitiesFor(ctx context.Context, role string) (*models.CapabilitySet, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.caps == nil {
		return &models.CapabilitySet{}, nil
	}
	return m.caps, nil
}

func (m *mockPermissionService) ListRoles(ctx context.Context, caps *models.CapabilitySet) ([]*models.RoleCapabilities, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roles, nil
}

func (m *mockPermissionService) UpsertRole(ctx context.Context, caps *models.CapabilitySet, rc *models.RoleCapabilities) error {
	m.lastUpsert = rc
	return m.err
}

func (m *mockPermissionService) ApplyRoleMapOverrides(ctx context.Context, path string) error {
	return m.err
}
