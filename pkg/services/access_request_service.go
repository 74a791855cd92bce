package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
	"github.com/kinetic-data/catalog-engine/pkg/warehouse"
)

// CreateAccessRequestInput is the submission body for a data-access request.
type CreateAccessRequestInput struct {
	TableFullName   string    `json:"table_full_name"`
	Justification   string    `json:"justification"`
	AccessType      string    `json:"access_type"`
	GrantToName     string    `json:"grant_to_name"`
	AccessStartDate time.Time `json:"access_start_date"`
	AccessEndDate   time.Time `json:"access_end_date"`
}

// AccessRequestService owns the data-access request lifecycle. It is a
// strict subset of the change-request lifecycle: pending -> approved |
// denied, with no return-for-info path.
type AccessRequestService interface {
	Create(ctx context.Context, input *CreateAccessRequestInput) (*models.AccessRequest, error)
	Approve(ctx context.Context, id uuid.UUID, comment *string) (*models.AccessRequest, error)
	Deny(ctx context.Context, id uuid.UUID, comment *string) (*models.AccessRequest, error)
	ListPending(ctx context.Context) ([]*models.AccessRequest, error)
	ListMine(ctx context.Context) ([]*models.AccessRequest, error)
}

type accessRequestService struct {
	accessRepo repositories.AccessRequestRepository
	tableRepo  repositories.TableMetadataRepository
	perms      PermissionService
	logger     *zap.Logger
}

// NewAccessRequestService creates a new AccessRequestService.
func NewAccessRequestService(
	accessRepo repositories.AccessRequestRepository,
	tableRepo repositories.TableMetadataRepository,
	perms PermissionService,
	logger *zap.Logger,
) AccessRequestService {
	return &accessRequestService{
		accessRepo: accessRepo,
		tableRepo:  tableRepo,
		perms:      perms,
		logger:     logger,
	}
}

var _ AccessRequestService = (*accessRequestService)(nil)

func (s *accessRequestService) Create(ctx context.Context, input *CreateAccessRequestInput) (*models.AccessRequest, error) {
	userID, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanCreateRequests {
		return nil, apperrors.Permission("role cannot create access requests")
	}

	if input.Justification == "" {
		return nil, apperrors.Validation("justification is required")
	}
	if !models.ValidAccessType(input.AccessType) {
		return nil, apperrors.Validation("unknown access type %q", input.AccessType)
	}
	if input.GrantToName == "" {
		return nil, apperrors.Validation("grant_to_name is required")
	}
	if _, err := warehouse.SplitFullName(input.TableFullName); err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	if input.AccessStartDate.IsZero() || input.AccessEndDate.IsZero() {
		return nil, apperrors.Validation("access_start_date and access_end_date are required")
	}
	if !input.AccessEndDate.After(input.AccessStartDate) {
		return nil, apperrors.Validation("access_end_date must be after access_start_date")
	}

	exists, err := s.tableRepo.TableExists(ctx, input.TableFullName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("table %s not found in the catalog", input.TableFullName)
	}

	req := &models.AccessRequest{
		TableFullName:   input.TableFullName,
		Requester:       userID,
		Justification:   input.Justification,
		AccessType:      input.AccessType,
		GrantToName:     input.GrantToName,
		AccessStartDate: input.AccessStartDate,
		AccessEndDate:   input.AccessEndDate,
	}
	if err := s.accessRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Access request created",
		zap.String("id", req.ID.String()),
		zap.String("table", req.TableFullName),
		zap.String("requester", userID))
	return req, nil
}

func (s *accessRequestService) Approve(ctx context.Context, id uuid.UUID, comment *string) (*models.AccessRequest, error) {
	return s.decide(ctx, id, models.StatusApproved, comment)
}

func (s *accessRequestService) Deny(ctx context.Context, id uuid.UUID, comment *string) (*models.AccessRequest, error) {
	return s.decide(ctx, id, models.StatusDenied, comment)
}

func (s *accessRequestService) decide(ctx context.Context, id uuid.UUID, status string, comment *string) (*models.AccessRequest, error) {
	userID, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanApproveDataAccess {
		return nil, apperrors.Permission("role cannot decide access requests")
	}

	var updated *models.AccessRequest
	err = database.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.accessRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return apperrors.NotFound("access request %s not found", id)
		}
		if req.Status != models.StatusPending {
			return apperrors.IllegalState("cannot decide an access request in status %s", req.Status)
		}

		if err := s.accessRepo.UpdateDecision(txCtx, id, status, userID, comment); err != nil {
			return err
		}

		req.Status = status
		req.Approver = &userID
		req.DecisionComment = comment
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Access request decided",
		zap.String("id", id.String()),
		zap.String("status", status),
		zap.String("approver", userID))
	return updated, nil
}

func (s *accessRequestService) ListPending(ctx context.Context) ([]*models.AccessRequest, error) {
	_, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanApproveDataAccess {
		return nil, apperrors.Permission("role cannot view the access review queue")
	}
	return s.accessRepo.ListPending(ctx)
}

func (s *accessRequestService) ListMine(ctx context.Context) ([]*models.AccessRequest, error) {
	userID, _, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	return s.accessRepo.ListByRequester(ctx, userID)
}
