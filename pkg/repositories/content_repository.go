package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

// ContentRepository provides data access for the moderated content
// projection: user descriptions and tag associations. Only the approval
// transition writes through this repository.
type ContentRepository interface {
	// UpsertDescription inserts or replaces the description for a table
	// (columnName nil) or a column.
	UpsertDescription(ctx context.Context, objectName string, columnName *string, description, updatedBy string) error

	// GetDescription returns the description for a table or column, or nil.
	GetDescription(ctx context.Context, objectName string, columnName *string) (*models.Description, error)

	// CreateTag adds a tag association to a table. Adding an existing
	// association is a no-op.
	CreateTag(ctx context.Context, tableFullName, tagName, createdBy string) error

	// DeleteTag removes a tag association. Returns the number of rows removed.
	DeleteTag(ctx context.Context, tableFullName, tagName string) (int64, error)

	// ListTags returns the tag names attached to a table.
	ListTags(ctx context.Context, tableFullName string) ([]string, error)
}

type contentRepository struct{}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository() ContentRepository {
	return &contentRepository{}
}

var _ ContentRepository = (*contentRepository)(nil)

func (r *contentRepository) UpsertDescription(ctx context.Context, objectName string, columnName *string, description, updatedBy string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now()

	// Partial unique indexes split the table/column cases, so ON CONFLICT
	// cannot target both; update-then-insert keeps each path a single
	// statement under the caller's transaction.
	var result int64
	if columnName == nil {
		tag, err := scope.Conn.Exec(ctx, `
			UPDATE catalog_descriptions
			SET description = $2, updated_by = $3, updated_at = $4
			WHERE object_name = $1 AND column_name IS NULL`,
			objectName, description, updatedBy, now)
		if err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
		result = tag.RowsAffected()
	} else {
		tag, err := scope.Conn.Exec(ctx, `
			UPDATE catalog_descriptions
			SET description = $3, updated_by = $4, updated_at = $5
			WHERE object_name = $1 AND column_name = $2`,
			objectName, *columnName, description, updatedBy, now)
		if err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
		result = tag.RowsAffected()
	}

	if result > 0 {
		return nil
	}

	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO catalog_descriptions (object_name, column_name, description, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		objectName, columnName, description, updatedBy, now)
	if err != nil {
		return fmt.Errorf("failed to insert description: %w", err)
	}
	return nil
}

func (r *contentRepository) GetDescription(ctx context.Context, objectName string, columnName *string) (*models.Description, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var row pgx.Row
	if columnName == nil {
		row = scope.Conn.QueryRow(ctx, `
			SELECT id, object_name, column_name, description, updated_by, updated_at
			FROM catalog_descriptions
			WHERE object_name = $1 AND column_name IS NULL`,
			objectName)
	} else {
		row = scope.Conn.QueryRow(ctx, `
			SELECT id, object_name, column_name, description, updated_by, updated_at
			FROM catalog_descriptions
			WHERE object_name = $1 AND column_name = $2`,
			objectName, *columnName)
	}

	var d models.Description
	err := row.Scan(&d.ID, &d.ObjectName, &d.ColumnName, &d.Description, &d.UpdatedBy, &d.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get description: %w", err)
	}
	return &d, nil
}

func (r *contentRepository) CreateTag(ctx context.Context, tableFullName, tagName, createdBy string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO catalog_table_tags (table_full_name, tag_name, created_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (table_full_name, tag_name) DO NOTHING`,
		tableFullName, tagName, createdBy)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (r *contentRepository) DeleteTag(ctx context.Context, tableFullName, tagName string) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		DELETE FROM catalog_table_tags
		WHERE table_full_name = $1 AND tag_name = $2`,
		tableFullName, tagName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tag: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *contentRepository) ListTags(ctx context.Context, tableFullName string) ([]string, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT tag_name FROM catalog_table_tags
		WHERE table_full_name = $1
		ORDER BY tag_name`,
		tableFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}
