package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
	"github.com/kinetic-data/catalog-engine/pkg/warehouse"
)

// stubPermissionService returns a fixed capability set for every role.
type stubPermissionService struct {
	caps models.CapabilitySet
}

func (s *stubPermissionService) CapabilitiesFor(ctx context.Context, role string) (*models.CapabilitySet, error) {
	caps := s.caps
	return &caps, nil
}

func (s *stubPermissionService) ListRoles(ctx context.Context, caps *models.CapabilitySet) ([]*models.RoleCapabilities, error) {
	return nil, nil
}

func (s *stubPermissionService) UpsertRole(ctx context.Context, caps *models.CapabilitySet, rc *models.RoleCapabilities) error {
	return nil
}

func (s *stubPermissionService) ApplyRoleMapOverrides(ctx context.Context, path string) error {
	return nil
}

// contextWithUser builds a context carrying JWT claims for userID and role.
func contextWithUser(userID, role string) context.Context {
	claims := &auth.Claims{Role: role}
	claims.Subject = userID
	return context.WithValue(context.Background(), auth.ClaimsKey, claims)
}

// memoryRoleRepository is an in-memory RoleRepository for permission tests.
type memoryRoleRepository struct {
	roles map[string]models.CapabilitySet
}

func newMemoryRoleRepository() *memoryRoleRepository {
	return &memoryRoleRepository{roles: make(map[string]models.CapabilitySet)}
}

func (r *memoryRoleRepository) GetCapabilities(ctx context.Context, role string) (*models.CapabilitySet, error) {
	caps, ok := r.roles[role]
	if !ok {
		return nil, nil
	}
	return &caps, nil
}

func (r *memoryRoleRepository) ListRoles(ctx context.Context) ([]*models.RoleCapabilities, error) {
	out := make([]*models.RoleCapabilities, 0, len(r.roles))
	for role, caps := range r.roles {
		out = append(out, &models.RoleCapabilities{Role: role, CapabilitySet: caps})
	}
	return out, nil
}

func (r *memoryRoleRepository) UpsertRole(ctx context.Context, rc *models.RoleCapabilities) error {
	r.roles[rc.Role] = rc.CapabilitySet
	return nil
}

// stubWarehouseClient answers existence checks from fixed sets. Column keys
// are "TABLE_FULL_NAME.COLUMN".
type stubWarehouseClient struct {
	tables  map[string]bool
	columns map[string]bool
	err     error
}

var _ warehouse.Client = (*stubWarehouseClient)(nil)

func (c *stubWarehouseClient) Ping(ctx context.Context) error { return c.err }

func (c *stubWarehouseClient) TableExists(ctx context.Context, fullName string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.tables[fullName], nil
}

func (c *stubWarehouseClient) ColumnExists(ctx context.Context, tableFullName, columnName string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.columns[tableFullName+"."+columnName], nil
}

func (c *stubWarehouseClient) ListTables(ctx context.Context) ([]*models.TableMetadata, error) {
	return nil, c.err
}

func (c *stubWarehouseClient) ListColumns(ctx context.Context, tableFullName string) ([]*models.ColumnMetadata, error) {
	return nil, c.err
}

func (c *stubWarehouseClient) TriggerScan(ctx context.Context) error { return c.err }

func (c *stubWarehouseClient) Close() error { return nil }

// stubTableRepository answers snapshot existence checks from fixed sets.
type stubTableRepository struct {
	tables  map[string]bool
	columns map[string]bool
}

var _ repositories.TableMetadataRepository = (*stubTableRepository)(nil)

func (r *stubTableRepository) UpsertTable(ctx context.Context, table *models.TableMetadata) error {
	return nil
}

func (r *stubTableRepository) UpsertColumn(ctx context.Context, column *models.ColumnMetadata) error {
	return nil
}

func (r *stubTableRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *stubTableRepository) TableExists(ctx context.Context, fullName string) (bool, error) {
	return r.tables[fullName], nil
}

func (r *stubTableRepository) ColumnExists(ctx context.Context, tableFullName, columnName string) (bool, error) {
	return r.columns[tableFullName+"."+columnName], nil
}

func (r *stubTableRepository) ListTables(ctx context.Context, search string) ([]*models.TableSummary, error) {
	return nil, nil
}

func (r *stubTableRepository) GetTable(ctx context.Context, fullName string) (*models.TableSummary, error) {
	return nil, nil
}

func (r *stubTableRepository) ListColumns(ctx context.Context, tableFullName string) ([]*models.ColumnDetail, error) {
	return nil, nil
}

// stubContentRepository returns fixed curated content.
type stubContentRepository struct {
	desc *models.Description
	tags []string
}

var _ repositories.ContentRepository = (*stubContentRepository)(nil)

func (r *stubContentRepository) UpsertDescription(ctx context.Context, objectName string, columnName *string, description, updatedBy string) error {
	return nil
}

func (r *stubContentRepository) GetDescription(ctx context.Context, objectName string, columnName *string) (*models.Description, error) {
	return r.desc, nil
}

func (r *stubContentRepository) CreateTag(ctx context.Context, tableFullName, tagName, createdBy string) error {
	return nil
}

func (r *stubContentRepository) DeleteTag(ctx context.Context, tableFullName, tagName string) (int64, error) {
	return 0, nil
}

func (r *stubContentRepository) ListTags(ctx context.Context, tableFullName string) ([]string, error) {
	return r.tags, nil
}

// stubAttributeRepository returns a fixed attribute.
type stubAttributeRepository struct {
	attr *models.Attribute
}

var _ repositories.AttributeRepository = (*stubAttributeRepository)(nil)

func (r *stubAttributeRepository) Insert(ctx context.Context, attr *models.Attribute) (bool, error) {
	return true, nil
}

func (r *stubAttributeRepository) GetByName(ctx context.Context, name string) (*models.Attribute, error) {
	return r.attr, nil
}

func (r *stubAttributeRepository) UpdateByName(ctx context.Context, name, displayName, description, updatedBy string) (int64, error) {
	return 0, nil
}

func (r *stubAttributeRepository) List(ctx context.Context) ([]*models.AttributeWithEnumerations, error) {
	return nil, nil
}

func (r *stubAttributeRepository) InsertEnumeration(ctx context.Context, enum *models.Enumeration) error {
	return nil
}

func (r *stubAttributeRepository) NextSortOrder(ctx context.Context, attributeID uuid.UUID) (int, error) {
	return 1, nil
}

func (r *stubAttributeRepository) ListEnumerations(ctx context.Context, attributeID uuid.UUID) ([]*models.Enumeration, error) {
	return nil, nil
}

func (r *stubAttributeRepository) UpdateEnumeration(ctx context.Context, id uuid.UUID, valueCode, valueDescription string, sortOrder *int, isActive *bool) (int64, error) {
	return 0, nil
}
