// Package warehouse provides read-only connectivity to the SQL Server data
// warehouse: existence checks during request approval, metadata listings for
// the scan sync, and triggering the warehouse-side scan procedure.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/config"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

// Client is the warehouse-facing interface the services depend on.
type Client interface {
	// Ping verifies the warehouse connection.
	Ping(ctx context.Context) error

	// TableExists reports whether a table with the given full name
	// (DB.SCHEMA.TABLE) exists in the warehouse.
	TableExists(ctx context.Context, fullName string) (bool, error)

	// ColumnExists reports whether a column exists on the given table.
	ColumnExists(ctx context.Context, tableFullName, columnName string) (bool, error)

	// ListTables returns all user tables visible to the service account.
	ListTables(ctx context.Context) ([]*models.TableMetadata, error)

	// ListColumns returns the columns of a table in ordinal order.
	ListColumns(ctx context.Context, tableFullName string) ([]*models.ColumnMetadata, error)

	// TriggerScan executes the warehouse-side metadata refresh procedure.
	TriggerScan(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}

type client struct {
	db            *sql.DB
	scanProcedure string
	logger        *zap.Logger
}

var _ Client = (*client)(nil)

// NewClient opens a connection pool against the configured warehouse. Returns
// nil without error when the warehouse is not configured, so deployments
// without warehouse access degrade to dependency errors at approval time.
func NewClient(cfg *config.WarehouseConfig, logger *zap.Logger) (Client, error) {
	if !cfg.IsConfigured() {
		logger.Warn("Warehouse not configured, existence checks will fail as dependency errors")
		return nil, nil
	}

	db, err := sql.Open("sqlserver", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &client{
		db:            db,
		scanProcedure: cfg.ScanProcedure,
		logger:        logger,
	}, nil
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("warehouse ping failed: %w", err)
	}
	return nil
}

func (c *client) TableExists(ctx context.Context, fullName string) (bool, error) {
	parts, err := SplitFullName(fullName)
	if err != nil {
		return false, err
	}

	query := `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_CATALOG = @p1 AND TABLE_SCHEMA = @p2 AND TABLE_NAME = @p3`

	var count int
	err = c.db.QueryRowContext(ctx, query, parts.Database, parts.Schema, parts.Table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check warehouse table: %w", err)
	}
	return count > 0, nil
}

func (c *client) ColumnExists(ctx context.Context, tableFullName, columnName string) (bool, error) {
	parts, err := SplitFullName(tableFullName)
	if err != nil {
		return false, err
	}

	query := `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_CATALOG = @p1 AND TABLE_SCHEMA = @p2 AND TABLE_NAME = @p3 AND COLUMN_NAME = @p4`

	var count int
	err = c.db.QueryRowContext(ctx, query, parts.Database, parts.Schema, parts.Table, columnName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check warehouse column: %w", err)
	}
	return count > 0, nil
}

func (c *client) ListTables(ctx context.Context) ([]*models.TableMetadata, error) {
	query := `
		SELECT t.TABLE_CATALOG, t.TABLE_SCHEMA, t.TABLE_NAME, p.rows
		FROM INFORMATION_SCHEMA.TABLES t
		LEFT JOIN (
			SELECT OBJECT_SCHEMA_NAME(object_id) AS schema_name,
			       OBJECT_NAME(object_id) AS table_name,
			       SUM(rows) AS rows
			FROM sys.partitions
			WHERE index_id IN (0, 1)
			GROUP BY object_id
		) p ON p.schema_name = t.TABLE_SCHEMA AND p.table_name = t.TABLE_NAME
		WHERE t.TABLE_TYPE = 'BASE TABLE'
		ORDER BY t.TABLE_CATALOG, t.TABLE_SCHEMA, t.TABLE_NAME`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouse tables: %w", err)
	}
	defer rows.Close()

	scannedAt := time.Now()
	var tables []*models.TableMetadata
	for rows.Next() {
		var t models.TableMetadata
		if err := rows.Scan(&t.DatabaseName, &t.SchemaName, &t.TableName, &t.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse table row: %w", err)
		}
		t.FullName = JoinFullName(t.DatabaseName, t.SchemaName, t.TableName)
		t.ScannedAt = scannedAt
		tables = append(tables, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating warehouse tables: %w", err)
	}

	return tables, nil
}

func (c *client) ListColumns(ctx context.Context, tableFullName string) ([]*models.ColumnMetadata, error) {
	parts, err := SplitFullName(tableFullName)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT COLUMN_NAME, DATA_TYPE, ORDINAL_POSITION, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_CATALOG = @p1 AND TABLE_SCHEMA = @p2 AND TABLE_NAME = @p3
		ORDER BY ORDINAL_POSITION`

	rows, err := c.db.QueryContext(ctx, query, parts.Database, parts.Schema, parts.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouse columns: %w", err)
	}
	defer rows.Close()

	scannedAt := time.Now()
	var columns []*models.ColumnMetadata
	for rows.Next() {
		var col models.ColumnMetadata
		var nullable string
		if err := rows.Scan(&col.ColumnName, &col.DataType, &col.OrdinalPos, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse column row: %w", err)
		}
		col.TableFullName = tableFullName
		col.IsNullable = nullable == "YES"
		col.ScannedAt = scannedAt
		columns = append(columns, &col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating warehouse columns: %w", err)
	}

	return columns, nil
}

func (c *client) TriggerScan(ctx context.Context) error {
	c.logger.Info("Triggering warehouse metadata scan", zap.String("procedure", c.scanProcedure))
	if _, err := c.db.ExecContext(ctx, "EXEC "+c.scanProcedure); err != nil {
		return fmt.Errorf("failed to execute scan procedure: %w", err)
	}
	return nil
}

func (c *client) Close() error {
	return c.db.Close()
}
