package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

// AttributeRepository provides data access for business-glossary attributes
// and their enumerations.
type AttributeRepository interface {
	// Insert creates an attribute. Returns false without error when an
	// attribute of that name already exists (idempotent create).
	Insert(ctx context.Context, attr *models.Attribute) (bool, error)

	// GetByName returns an attribute by its unique name, or nil.
	GetByName(ctx context.Context, name string) (*models.Attribute, error)

	// UpdateByName updates display name and/or description of an attribute.
	// Empty fields are left unchanged. Returns the number of rows updated.
	UpdateByName(ctx context.Context, name, displayName, description, updatedBy string) (int64, error)

	// List returns all attributes ordered by name, each with its
	// enumerations in sort order and its usage count.
	List(ctx context.Context) ([]*models.AttributeWithEnumerations, error)

	// InsertEnumeration creates an enumeration value under an attribute.
	InsertEnumeration(ctx context.Context, enum *models.Enumeration) error

	// NextSortOrder returns one past the highest sort order under the
	// attribute (1 for an attribute with no enumerations).
	NextSortOrder(ctx context.Context, attributeID uuid.UUID) (int, error)

	// ListEnumerations returns the enumerations of an attribute in sort order.
	ListEnumerations(ctx context.Context, attributeID uuid.UUID) ([]*models.Enumeration, error)

	// UpdateEnumeration updates enumeration fields by id. Nil/empty fields
	// are left unchanged. Returns the number of rows updated.
	UpdateEnumeration(ctx context.Context, id uuid.UUID, valueCode, valueDescription string, sortOrder *int, isActive *bool) (int64, error)
}

type attributeRepository struct{}

// NewAttributeRepository creates a new AttributeRepository.
func NewAttributeRepository() AttributeRepository {
	return &attributeRepository{}
}

var _ AttributeRepository = (*attributeRepository)(nil)

func (r *attributeRepository) Insert(ctx context.Context, attr *models.Attribute) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	now := time.Now()
	query := `
		INSERT INTO catalog_attributes (name, display_name, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		attr.Name, attr.DisplayName, attr.Description, attr.CreatedBy, now,
	).Scan(&attr.ID, &attr.CreatedAt, &attr.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Conflict: the attribute already exists.
			return false, nil
		}
		return false, fmt.Errorf("failed to insert attribute: %w", err)
	}
	return true, nil
}

func (r *attributeRepository) GetByName(ctx context.Context, name string) (*models.Attribute, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, display_name, description, created_by, updated_by, created_at, updated_at
		FROM catalog_attributes
		WHERE name = $1`

	var a models.Attribute
	err := scope.Conn.QueryRow(ctx, query, name).Scan(
		&a.ID, &a.Name, &a.DisplayName, &a.Description,
		&a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attribute: %w", err)
	}
	return &a, nil
}

func (r *attributeRepository) UpdateByName(ctx context.Context, name, displayName, description, updatedBy string) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE catalog_attributes
		SET display_name = COALESCE(NULLIF($2, ''), display_name),
		    description = COALESCE(NULLIF($3, ''), description),
		    updated_by = $4,
		    updated_at = $5
		WHERE name = $1`

	result, err := scope.Conn.Exec(ctx, query, name, displayName, description, updatedBy, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to update attribute: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *attributeRepository) List(ctx context.Context) ([]*models.AttributeWithEnumerations, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT a.id, a.name, a.display_name, a.description, a.created_by,
		       a.updated_by, a.created_at, a.updated_at,
		       (SELECT COUNT(*) FROM catalog_table_tags t WHERE t.tag_name = a.name) AS usage_count
		FROM catalog_attributes a
		ORDER BY a.name`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer rows.Close()

	attrs := make([]*models.AttributeWithEnumerations, 0)
	for rows.Next() {
		var a models.AttributeWithEnumerations
		err := rows.Scan(
			&a.ID, &a.Name, &a.DisplayName, &a.Description, &a.CreatedBy,
			&a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt, &a.UsageCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attrs = append(attrs, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}

	for _, a := range attrs {
		enums, err := r.ListEnumerations(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		a.Enumerations = enums
	}

	return attrs, nil
}

func (r *attributeRepository) InsertEnumeration(ctx context.Context, enum *models.Enumeration) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now()
	query := `
		INSERT INTO catalog_enumerations (attribute_id, value_code, value_description, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		enum.AttributeID, enum.ValueCode, enum.ValueDescription,
		enum.SortOrder, enum.IsActive, now,
	).Scan(&enum.ID, &enum.CreatedAt, &enum.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert enumeration: %w", err)
	}
	return nil
}

func (r *attributeRepository) NextSortOrder(ctx context.Context, attributeID uuid.UUID) (int, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT COALESCE(MAX(sort_order), 0) + 1
		FROM catalog_enumerations
		WHERE attribute_id = $1`

	var next int
	if err := scope.Conn.QueryRow(ctx, query, attributeID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next sort order: %w", err)
	}
	return next, nil
}

func (r *attributeRepository) ListEnumerations(ctx context.Context, attributeID uuid.UUID) ([]*models.Enumeration, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, attribute_id, value_code, value_description, sort_order, is_active, created_at, updated_at
		FROM catalog_enumerations
		WHERE attribute_id = $1
		ORDER BY sort_order, value_code`

	rows, err := scope.Conn.Query(ctx, query, attributeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enumerations: %w", err)
	}
	defer rows.Close()

	enums := make([]*models.Enumeration, 0)
	for rows.Next() {
		var e models.Enumeration
		err := rows.Scan(
			&e.ID, &e.AttributeID, &e.ValueCode, &e.ValueDescription,
			&e.SortOrder, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enumeration: %w", err)
		}
		enums = append(enums, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enumerations: %w", err)
	}

	return enums, nil
}

func (r *attributeRepository) UpdateEnumeration(ctx context.Context, id uuid.UUID, valueCode, valueDescription string, sortOrder *int, isActive *bool) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE catalog_enumerations
		SET value_code = COALESCE(NULLIF($2, ''), value_code),
		    value_description = COALESCE(NULLIF($3, ''), value_description),
		    sort_order = COALESCE($4, sort_order),
		    is_active = COALESCE($5, is_active),
		    updated_at = $6
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id, valueCode, valueDescription, sortOrder, isActive, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to update enumeration: %w", err)
	}
	return result.RowsAffected(), nil
}
