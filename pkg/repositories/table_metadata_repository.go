package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

// TableMetadataRepository provides data access for the scanned warehouse
// metadata snapshot. Rows are written by the scan sync and read by the
// catalog browse endpoints and the approval existence checks.
type TableMetadataRepository interface {
	// UpsertTable writes one table of a scan snapshot.
	UpsertTable(ctx context.Context, table *models.TableMetadata) error

	// UpsertColumn writes one column of a scan snapshot.
	UpsertColumn(ctx context.Context, column *models.ColumnMetadata) error

	// DeleteStale removes tables (and their columns, via cascade) that were
	// not touched by the scan that started at or after cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)

	// TableExists reports whether the snapshot contains the table.
	TableExists(ctx context.Context, fullName string) (bool, error)

	// ColumnExists reports whether the snapshot contains the column.
	ColumnExists(ctx context.Context, tableFullName, columnName string) (bool, error)

	// ListTables returns table summaries with curated rollups, ordered by
	// full name. An empty search matches everything.
	ListTables(ctx context.Context, search string) ([]*models.TableSummary, error)

	// GetTable returns one table summary, or nil.
	GetTable(ctx context.Context, fullName string) (*models.TableSummary, error)

	// ListColumns returns a table's columns with their curated descriptions,
	// in ordinal order.
	ListColumns(ctx context.Context, tableFullName string) ([]*models.ColumnDetail, error)
}

type tableMetadataRepository struct{}

// NewTableMetadataRepository creates a new TableMetadataRepository.
func NewTableMetadataRepository() TableMetadataRepository {
	return &tableMetadataRepository{}
}

var _ TableMetadataRepository = (*tableMetadataRepository)(nil)

func (r *tableMetadataRepository) UpsertTable(ctx context.Context, table *models.TableMetadata) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO catalog_tables (full_name, database_name, schema_name, table_name, row_count, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (full_name) DO UPDATE SET
			database_name = EXCLUDED.database_name,
			schema_name = EXCLUDED.schema_name,
			table_name = EXCLUDED.table_name,
			row_count = EXCLUDED.row_count,
			scanned_at = EXCLUDED.scanned_at`

	_, err := scope.Conn.Exec(ctx, query,
		table.FullName, table.DatabaseName, table.SchemaName,
		table.TableName, table.RowCount, table.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert table metadata: %w", err)
	}
	return nil
}

func (r *tableMetadataRepository) UpsertColumn(ctx context.Context, column *models.ColumnMetadata) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO catalog_columns (table_full_name, column_name, data_type, ordinal_position, is_nullable, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (table_full_name, column_name) DO UPDATE SET
			data_type = EXCLUDED.data_type,
			ordinal_position = EXCLUDED.ordinal_position,
			is_nullable = EXCLUDED.is_nullable,
			scanned_at = EXCLUDED.scanned_at`

	_, err := scope.Conn.Exec(ctx, query,
		column.TableFullName, column.ColumnName, column.DataType,
		column.OrdinalPos, column.IsNullable, column.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert column metadata: %w", err)
	}
	return nil
}

func (r *tableMetadataRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx,
		`DELETE FROM catalog_tables WHERE scanned_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale tables: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *tableMetadataRepository) TableExists(ctx context.Context, fullName string) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	var exists bool
	err := scope.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM catalog_tables WHERE full_name = $1)`,
		fullName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

func (r *tableMetadataRepository) ColumnExists(ctx context.Context, tableFullName, columnName string) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	var exists bool
	err := scope.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM catalog_columns WHERE table_full_name = $1 AND column_name = $2)`,
		tableFullName, columnName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check column existence: %w", err)
	}
	return exists, nil
}

const tableSummaryQuery = `
	SELECT t.full_name, t.database_name, t.schema_name, t.table_name, t.row_count, t.scanned_at,
	       d.description,
	       COALESCE(tags.names, '{}') AS tags,
	       ratings.avg_score, COALESCE(ratings.count, 0) AS rating_count
	FROM catalog_tables t
	LEFT JOIN catalog_descriptions d
		ON d.object_name = t.full_name AND d.column_name IS NULL
	LEFT JOIN LATERAL (
		SELECT array_agg(tag_name ORDER BY tag_name) AS names
		FROM catalog_table_tags
		WHERE table_full_name = t.full_name
	) tags ON true
	LEFT JOIN LATERAL (
		SELECT AVG(score)::float8 AS avg_score, COUNT(*) AS count
		FROM catalog_ratings
		WHERE table_full_name = t.full_name
	) ratings ON true`

func (r *tableMetadataRepository) ListTables(ctx context.Context, search string) ([]*models.TableSummary, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := tableSummaryQuery + `
	WHERE $1 = '' OR t.full_name ILIKE '%' || $1 || '%'
	ORDER BY t.full_name`

	rows, err := scope.Conn.Query(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]*models.TableSummary, 0)
	for rows.Next() {
		summary, err := scanTableSummary(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	return tables, nil
}

func (r *tableMetadataRepository) GetTable(ctx context.Context, fullName string) (*models.TableSummary, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := tableSummaryQuery + `
	WHERE t.full_name = $1`

	rows, err := scope.Conn.Query(ctx, query, fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get table: %w", err)
		}
		return nil, nil
	}
	return scanTableSummary(rows)
}

func scanTableSummary(row pgx.Row) (*models.TableSummary, error) {
	var s models.TableSummary
	err := row.Scan(
		&s.FullName, &s.DatabaseName, &s.SchemaName, &s.TableName,
		&s.RowCount, &s.ScannedAt,
		&s.Description, &s.Tags, &s.AverageRating, &s.RatingCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan table summary: %w", err)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return &s, nil
}

func (r *tableMetadataRepository) ListColumns(ctx context.Context, tableFullName string) ([]*models.ColumnDetail, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT c.table_full_name, c.column_name, c.data_type, c.ordinal_position, c.is_nullable, c.scanned_at,
		       d.description
		FROM catalog_columns c
		LEFT JOIN catalog_descriptions d
			ON d.object_name = c.table_full_name AND d.column_name = c.column_name
		WHERE c.table_full_name = $1
		ORDER BY c.ordinal_position`

	rows, err := scope.Conn.Query(ctx, query, tableFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	columns := make([]*models.ColumnDetail, 0)
	for rows.Next() {
		var c models.ColumnDetail
		err := rows.Scan(
			&c.TableFullName, &c.ColumnName, &c.DataType,
			&c.OrdinalPos, &c.IsNullable, &c.ScannedAt,
			&c.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return columns, nil
}
