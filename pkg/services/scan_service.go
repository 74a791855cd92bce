package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
	"github.com/kinetic-data/catalog-engine/pkg/warehouse"
)

// ScanResult summarizes one metadata sync from the warehouse.
type ScanResult struct {
	Tables       int       `json:"tables"`
	Columns      int       `json:"columns"`
	StaleRemoved int64     `json:"stale_removed"`
	StartedAt    time.Time `json:"started_at"`
	Duration     string    `json:"duration"`
}

// ScanService refreshes the local metadata snapshot from the warehouse:
// trigger the warehouse-side scan procedure, then pull table and column
// listings into the snapshot tables.
type ScanService interface {
	Scan(ctx context.Context) (*ScanResult, error)
}

type scanService struct {
	wh        warehouse.Client
	tableRepo repositories.TableMetadataRepository
	perms     PermissionService
	logger    *zap.Logger
}

// NewScanService creates a new ScanService. wh may be nil when no warehouse
// is configured; scans then fail as dependency errors.
func NewScanService(
	wh warehouse.Client,
	tableRepo repositories.TableMetadataRepository,
	perms PermissionService,
	logger *zap.Logger,
) ScanService {
	return &scanService{
		wh:        wh,
		tableRepo: tableRepo,
		perms:     perms,
		logger:    logger,
	}
}

var _ ScanService = (*scanService)(nil)

func (s *scanService) Scan(ctx context.Context) (*ScanResult, error) {
	_, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanManageRoles {
		return nil, apperrors.Permission("scan requires the manage-roles capability")
	}
	if s.wh == nil {
		return nil, apperrors.Dependency("no warehouse configured", nil)
	}

	startedAt := time.Now()
	if err := s.wh.TriggerScan(ctx); err != nil {
		return nil, apperrors.Dependency("warehouse scan procedure failed", err)
	}

	tables, err := s.wh.ListTables(ctx)
	if err != nil {
		return nil, apperrors.Dependency("failed to read warehouse tables", err)
	}

	var columns []*models.ColumnMetadata
	for _, t := range tables {
		cols, err := s.wh.ListColumns(ctx, t.FullName)
		if err != nil {
			return nil, apperrors.Dependency("failed to read warehouse columns", err)
		}
		columns = append(columns, cols...)
	}

	result := &ScanResult{StartedAt: startedAt}
	err = database.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, t := range tables {
			if err := s.tableRepo.UpsertTable(txCtx, t); err != nil {
				return err
			}
		}
		for _, c := range columns {
			if err := s.tableRepo.UpsertColumn(txCtx, c); err != nil {
				return err
			}
		}
		removed, err := s.tableRepo.DeleteStale(txCtx, startedAt)
		if err != nil {
			return err
		}
		result.StaleRemoved = removed
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Tables = len(tables)
	result.Columns = len(columns)
	result.Duration = time.Since(startedAt).String()

	s.logger.Info("Metadata scan completed",
		zap.Int("tables", result.Tables),
		zap.Int("columns", result.Columns),
		zap.Int64("stale_removed", result.StaleRemoved),
		zap.Duration("duration", time.Since(startedAt)))
	return result, nil
}
