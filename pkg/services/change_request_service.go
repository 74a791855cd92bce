package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
	"github.com/kinetic-data/catalog-engine/pkg/warehouse"
)

// CreateChangeRequestInput is the submission body for a new change request.
type CreateChangeRequestInput struct {
	RequestType    string          `json:"request_type"`
	TargetObject   string          `json:"target_object"`
	Justification  string          `json:"justification"`
	ProposedChange json.RawMessage `json:"proposed_change"`
	CurrentValue   json.RawMessage `json:"current_value,omitempty"`
}

// ResubmitChangeRequestInput is the body for resubmitting a returned request.
type ResubmitChangeRequestInput struct {
	Justification  string          `json:"justification"`
	ProposedChange json.RawMessage `json:"proposed_change"`
}

// ChangeRequestService owns the change-request lifecycle: submission,
// reviewer decisions, and the atomic application of approved changes to the
// curated content projection.
type ChangeRequestService interface {
	Create(ctx context.Context, input *CreateChangeRequestInput) (*models.ChangeRequest, error)

	// Approve applies the proposed change to the content projection and
	// marks the request approved, atomically. A failed apply leaves the
	// request in its prior status.
	Approve(ctx context.Context, id uuid.UUID, comment *string) (*models.ChangeRequest, error)

	// Deny marks the request denied without touching content.
	Deny(ctx context.Context, id uuid.UUID, comment *string) (*models.ChangeRequest, error)

	// ReturnForInfo sends a pending request back to the requester with a
	// mandatory comment.
	ReturnForInfo(ctx context.Context, id uuid.UUID, comment string) (*models.ChangeRequest, error)

	// Resubmit lets the original requester revise a returned request,
	// putting it back in the review queue.
	Resubmit(ctx context.Context, id uuid.UUID, input *ResubmitChangeRequestInput) (*models.ChangeRequest, error)

	// ListPending returns the review queue (pending and more_info_needed).
	ListPending(ctx context.Context) ([]*models.ChangeRequest, error)

	// ListMine returns the caller's own requests regardless of status.
	ListMine(ctx context.Context) ([]*models.ChangeRequest, error)

	// ListAttributeFamily returns all glossary-attribute and enumeration
	// requests regardless of status.
	ListAttributeFamily(ctx context.Context) ([]*models.ChangeRequest, error)
}

type changeRequestService struct {
	changeRepo  repositories.ChangeRequestRepository
	contentRepo repositories.ContentRepository
	attrRepo    repositories.AttributeRepository
	tableRepo   repositories.TableMetadataRepository
	wh          warehouse.Client
	perms       PermissionService
	logger      *zap.Logger
}

// NewChangeRequestService creates a new ChangeRequestService. wh may be nil
// when no warehouse is configured; target existence checks at approval then
// fall back to the scanned snapshot.
func NewChangeRequestService(
	changeRepo repositories.ChangeRequestRepository,
	contentRepo repositories.ContentRepository,
	attrRepo repositories.AttributeRepository,
	tableRepo repositories.TableMetadataRepository,
	wh warehouse.Client,
	perms PermissionService,
	logger *zap.Logger,
) ChangeRequestService {
	return &changeRequestService{
		changeRepo:  changeRepo,
		contentRepo: contentRepo,
		attrRepo:    attrRepo,
		tableRepo:   tableRepo,
		wh:          wh,
		perms:       perms,
		logger:      logger,
	}
}

var _ ChangeRequestService = (*changeRequestService)(nil)

func (s *changeRequestService) Create(ctx context.Context, input *CreateChangeRequestInput) (*models.ChangeRequest, error) {
	userID, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanCreateRequests {
		return nil, apperrors.Permission("role cannot create change requests")
	}

	if !models.ValidRequestType(input.RequestType) {
		return nil, apperrors.Validation("unknown request type %q", input.RequestType)
	}
	if input.TargetObject == "" {
		return nil, apperrors.Validation("target_object is required")
	}
	if input.Justification == "" {
		return nil, apperrors.Validation("justification is required")
	}
	if err := validateTarget(input.RequestType, input.TargetObject); err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	if _, err := models.ParsePayload(input.RequestType, input.ProposedChange); err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	currentValue := input.CurrentValue
	if len(currentValue) == 0 {
		currentValue, err = s.snapshotCurrentValue(ctx, input.RequestType, input.TargetObject)
		if err != nil {
			return nil, err
		}
	}

	req := &models.ChangeRequest{
		RequestType:    input.RequestType,
		TargetObject:   input.TargetObject,
		Requester:      userID,
		Justification:  input.Justification,
		ProposedChange: input.ProposedChange,
		CurrentValue:   currentValue,
	}
	if err := s.changeRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Change request created",
		zap.String("id", req.ID.String()),
		zap.String("type", req.RequestType),
		zap.String("target", req.TargetObject),
		zap.String("requester", userID))
	return req, nil
}

// validateTarget checks the shape of the target object for the table-scoped
// request types. Attribute-family targets are plain attribute names.
func validateTarget(requestType, target string) error {
	switch requestType {
	case models.RequestTypeDescription, models.RequestTypeTagAdd, models.RequestTypeTagRemove:
		_, err := warehouse.SplitFullName(target)
		return err
	case models.RequestTypeColumnDescription:
		_, _, err := splitColumnTarget(target)
		return err
	}
	return nil
}

// splitColumnTarget parses a DB.SCHEMA.TABLE.COLUMN target into table full
// name and column name.
func splitColumnTarget(target string) (string, string, error) {
	idx := strings.LastIndex(target, ".")
	if idx < 0 {
		return "", "", fmt.Errorf("invalid column target %q: expected DB.SCHEMA.TABLE.COLUMN", target)
	}
	tableName, columnName := target[:idx], target[idx+1:]
	if _, err := warehouse.SplitFullName(tableName); err != nil {
		return "", "", err
	}
	if err := warehouse.ScreenIdentifier(columnName); err != nil {
		return "", "", fmt.Errorf("invalid column target %q: %w", target, err)
	}
	return tableName, columnName, nil
}

// snapshotCurrentValue captures the content the request proposes to change,
// so reviewers see a before/after even when the submitter omitted it.
func (s *changeRequestService) snapshotCurrentValue(ctx context.Context, requestType, target string) (json.RawMessage, error) {
	var value any
	switch requestType {
	case models.RequestTypeDescription:
		desc, err := s.contentRepo.GetDescription(ctx, target, nil)
		if err != nil {
			return nil, err
		}
		if desc != nil {
			value = desc
		}
	case models.RequestTypeColumnDescription:
		tableName, columnName, err := splitColumnTarget(target)
		if err != nil {
			return nil, apperrors.Validation("%v", err)
		}
		desc, err := s.contentRepo.GetDescription(ctx, tableName, &columnName)
		if err != nil {
			return nil, err
		}
		if desc != nil {
			value = desc
		}
	case models.RequestTypeTagAdd, models.RequestTypeTagRemove:
		tags, err := s.contentRepo.ListTags(ctx, target)
		if err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			value = tags
		}
	case models.RequestTypeAttributeEdit, models.RequestTypeEnumerationAdd, models.RequestTypeEnumerationEdit:
		attr, err := s.attrRepo.GetByName(ctx, target)
		if err != nil {
			return nil, err
		}
		if attr != nil {
			value = attr
		}
	default:
		// ATTRIBUTE_CREATE has no prior state.
		return nil, nil
	}

	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot current value: %w", err)
	}
	return raw, nil
}

func (s *changeRequestService) Approve(ctx context.Context, id uuid.UUID, comment *string) (*models.ChangeRequest, error) {
	userID, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanApproveGlossary {
		return nil, apperrors.Permission("role cannot approve change requests")
	}

	var updated *models.ChangeRequest
	err = database.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.changeRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return apperrors.NotFound("change request %s not found", id)
		}
		if req.Status != models.StatusPending && req.Status != models.StatusMoreInfoNeeded {
			return apperrors.IllegalState("cannot approve a request in status %s", req.Status)
		}

		payload, err := models.ParsePayload(req.RequestType, req.ProposedChange)
		if err != nil {
			return apperrors.Dependency("stored proposed change is no longer applicable", err)
		}

		if err := s.applyChange(txCtx, req, payload, userID); err != nil {
			return err
		}

		if err := s.changeRepo.UpdateDecision(txCtx, id, models.StatusApproved, userID, comment); err != nil {
			return err
		}

		updated, err = s.changeRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Change request approved",
		zap.String("id", id.String()),
		zap.String("type", updated.RequestType),
		zap.String("approver", userID))
	return updated, nil
}

// applyChange mutates the content projection for an approved request. It runs
// inside the approval transaction; any error rolls the decision back.
func (s *changeRequestService) applyChange(ctx context.Context, req *models.ChangeRequest, payload models.Payload, approver string) error {
	switch p := payload.(type) {
	case *models.DescriptionPayload:
		if req.RequestType == models.RequestTypeColumnDescription {
			tableName, columnName, err := splitColumnTarget(req.TargetObject)
			if err != nil {
				return apperrors.Dependency("target column is not addressable", err)
			}
			exists, err := s.targetColumnExists(ctx, tableName, columnName)
			if err != nil {
				return apperrors.Dependency("failed to verify target column", err)
			}
			if !exists {
				return apperrors.Dependency(fmt.Sprintf("column %s no longer exists", req.TargetObject), nil)
			}
			return s.contentRepo.UpsertDescription(ctx, tableName, &columnName, p.Description, approver)
		}

		if err := s.requireTable(ctx, req.TargetObject); err != nil {
			return err
		}
		return s.contentRepo.UpsertDescription(ctx, req.TargetObject, nil, p.Description, approver)

	case *models.TagPayload:
		if err := s.requireTable(ctx, req.TargetObject); err != nil {
			return err
		}
		if req.RequestType == models.RequestTypeTagRemove {
			// Removing an association that is already gone is a no-op.
			_, err := s.contentRepo.DeleteTag(ctx, req.TargetObject, p.TagName)
			return err
		}
		return s.contentRepo.CreateTag(ctx, req.TargetObject, p.TagName, approver)

	case *models.AttributeCreatePayload:
		attr := &models.Attribute{
			Name:        p.AttributeName,
			DisplayName: p.DisplayName,
			Description: p.Description,
			CreatedBy:   approver,
		}
		if attr.DisplayName == "" {
			attr.DisplayName = defaultDisplayName(p.AttributeName)
		}
		inserted, err := s.attrRepo.Insert(ctx, attr)
		if err != nil {
			return err
		}
		if !inserted {
			// The attribute already exists; approving again changes nothing.
			s.logger.Info("Attribute already exists, approval is a no-op",
				zap.String("attribute", p.AttributeName))
			return nil
		}
		for i, e := range p.Enumerations {
			sortOrder := e.SortOrder
			if sortOrder == 0 {
				sortOrder = i + 1
			}
			enum := &models.Enumeration{
				AttributeID:      attr.ID,
				ValueCode:        e.ValueCode,
				ValueDescription: e.ValueDescription,
				SortOrder:        sortOrder,
				IsActive:         true,
			}
			if err := s.attrRepo.InsertEnumeration(ctx, enum); err != nil {
				return err
			}
		}
		return nil

	case *models.AttributeEditPayload:
		rows, err := s.attrRepo.UpdateByName(ctx, p.AttributeName, p.DisplayName, p.Description, approver)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperrors.Dependency(fmt.Sprintf("attribute %s no longer exists", p.AttributeName), nil)
		}
		return nil

	case *models.EnumerationAddPayload:
		attr, err := s.attrRepo.GetByName(ctx, p.AttributeName)
		if err != nil {
			return err
		}
		if attr == nil {
			return apperrors.Dependency(fmt.Sprintf("attribute %s no longer exists", p.AttributeName), nil)
		}
		sortOrder, err := s.attrRepo.NextSortOrder(ctx, attr.ID)
		if err != nil {
			return err
		}
		enum := &models.Enumeration{
			AttributeID:      attr.ID,
			ValueCode:        p.ValueCode,
			ValueDescription: p.ValueDescription,
			SortOrder:        sortOrder,
			IsActive:         true,
		}
		return s.attrRepo.InsertEnumeration(ctx, enum)

	case *models.EnumerationEditPayload:
		rows, err := s.attrRepo.UpdateEnumeration(ctx, p.EnumerationID, p.ValueCode, p.ValueDescription, p.SortOrder, p.IsActive)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperrors.Dependency(fmt.Sprintf("enumeration %s no longer exists", p.EnumerationID), nil)
		}
		return nil
	}

	return fmt.Errorf("no apply rule for request type %s", req.RequestType)
}

func (s *changeRequestService) requireTable(ctx context.Context, fullName string) error {
	exists, err := s.targetTableExists(ctx, fullName)
	if err != nil {
		return apperrors.Dependency("failed to verify target table", err)
	}
	if !exists {
		return apperrors.Dependency(fmt.Sprintf("table %s no longer exists", fullName), nil)
	}
	return nil
}

// targetTableExists asks the warehouse when one is configured and falls back
// to the scanned snapshot otherwise.
func (s *changeRequestService) targetTableExists(ctx context.Context, fullName string) (bool, error) {
	if s.wh != nil {
		return s.wh.TableExists(ctx, fullName)
	}
	return s.tableRepo.TableExists(ctx, fullName)
}

func (s *changeRequestService) targetColumnExists(ctx context.Context, tableFullName, columnName string) (bool, error) {
	if s.wh != nil {
		return s.wh.ColumnExists(ctx, tableFullName, columnName)
	}
	return s.tableRepo.ColumnExists(ctx, tableFullName, columnName)
}

// defaultDisplayName derives a human-readable display name from an attribute
// name, e.g. "order_statuses" -> "Order Status".
func defaultDisplayName(name string) string {
	words := strings.Split(name, "_")
	if len(words) > 0 {
		words[len(words)-1] = inflection.Singular(words[len(words)-1])
	}
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (s *changeRequestService) Deny(ctx context.Context, id uuid.UUID, comment *string) (*models.ChangeRequest, error) {
	userID, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanApproveGlossary {
		return nil, apperrors.Permission("role cannot deny change requests")
	}

	var updated *models.ChangeRequest
	err = database.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.changeRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return apperrors.NotFound("change request %s not found", id)
		}
		if req.Status != models.StatusPending && req.Status != models.StatusMoreInfoNeeded {
			return apperrors.IllegalState("cannot deny a request in status %s", req.Status)
		}

		if err := s.changeRepo.UpdateDecision(txCtx, id, models.StatusDenied, userID, comment); err != nil {
			return err
		}
		updated, err = s.changeRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Change request denied",
		zap.String("id", id.String()),
		zap.String("approver", userID))
	return updated, nil
}

func (s *changeRequestService) ReturnForInfo(ctx context.Context, id uuid.UUID, comment string) (*models.ChangeRequest, error) {
	userID, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanApproveGlossary {
		return nil, apperrors.Permission("role cannot return change requests")
	}
	if comment == "" {
		return nil, apperrors.Validation("a comment is required when requesting more information")
	}

	var updated *models.ChangeRequest
	err = database.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.changeRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return apperrors.NotFound("change request %s not found", id)
		}
		if req.Status != models.StatusPending {
			return apperrors.IllegalState("cannot return a request in status %s", req.Status)
		}

		if err := s.changeRepo.UpdateDecision(txCtx, id, models.StatusMoreInfoNeeded, userID, &comment); err != nil {
			return err
		}
		updated, err = s.changeRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Change request returned for more information",
		zap.String("id", id.String()),
		zap.String("approver", userID))
	return updated, nil
}

func (s *changeRequestService) Resubmit(ctx context.Context, id uuid.UUID, input *ResubmitChangeRequestInput) (*models.ChangeRequest, error) {
	userID, _, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if input.Justification == "" {
		return nil, apperrors.Validation("justification is required")
	}

	var updated *models.ChangeRequest
	err = database.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.changeRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return apperrors.NotFound("change request %s not found", id)
		}
		if req.Requester != userID {
			return apperrors.Permission("only the original requester can resubmit")
		}
		if req.Status != models.StatusMoreInfoNeeded {
			return apperrors.IllegalState("cannot resubmit a request in status %s", req.Status)
		}

		if _, err := models.ParsePayload(req.RequestType, input.ProposedChange); err != nil {
			return apperrors.Validation("%v", err)
		}

		req.Justification = input.Justification
		req.ProposedChange = input.ProposedChange
		if err := s.changeRepo.UpdateResubmission(txCtx, req); err != nil {
			return err
		}
		updated, err = s.changeRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Change request resubmitted",
		zap.String("id", id.String()),
		zap.String("requester", userID))
	return updated, nil
}

func (s *changeRequestService) ListPending(ctx context.Context) ([]*models.ChangeRequest, error) {
	_, caps, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if !caps.CanApproveGlossary {
		return nil, apperrors.Permission("role cannot view the review queue")
	}
	return s.changeRepo.ListPending(ctx)
}

func (s *changeRequestService) ListMine(ctx context.Context) ([]*models.ChangeRequest, error) {
	userID, _, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	return s.changeRepo.ListByRequester(ctx, userID)
}

func (s *changeRequestService) ListAttributeFamily(ctx context.Context) ([]*models.ChangeRequest, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}
	return s.changeRepo.ListByTypes(ctx, models.AttributeFamilyTypes)
}
