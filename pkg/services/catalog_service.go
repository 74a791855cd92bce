package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
	"github.com/kinetic-data/catalog-engine/pkg/warehouse"
)

// CatalogService serves the browse surface: table listings, table detail,
// the glossary, and unmoderated user content (ratings and comments).
type CatalogService interface {
	ListTables(ctx context.Context, search string) ([]*models.TableSummary, error)
	GetTable(ctx context.Context, fullName string) (*models.TableDetail, error)
	ListColumns(ctx context.Context, fullName string) ([]*models.ColumnDetail, error)
	ListAttributes(ctx context.Context) ([]*models.AttributeWithEnumerations, error)
	GetAttribute(ctx context.Context, name string) (*models.AttributeWithEnumerations, error)

	// ListRatings and ListComments return the raw user content for a table.
	ListRatings(ctx context.Context, fullName string) ([]*models.Rating, error)
	ListComments(ctx context.Context, fullName string) ([]*models.Comment, error)

	// RateTable records a 1-5 score against a table.
	RateTable(ctx context.Context, fullName string, score int) (*models.Rating, error)

	// CommentOnTable attaches a free-text comment to a table.
	CommentOnTable(ctx context.Context, fullName, text string) (*models.Comment, error)
}

type catalogService struct {
	tableRepo   repositories.TableMetadataRepository
	attrRepo    repositories.AttributeRepository
	contentRepo repositories.UserContentRepository
	perms       PermissionService
	logger      *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	tableRepo repositories.TableMetadataRepository,
	attrRepo repositories.AttributeRepository,
	contentRepo repositories.UserContentRepository,
	perms PermissionService,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		tableRepo:   tableRepo,
		attrRepo:    attrRepo,
		contentRepo: contentRepo,
		perms:       perms,
		logger:      logger,
	}
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) ListTables(ctx context.Context, search string) ([]*models.TableSummary, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}
	return s.tableRepo.ListTables(ctx, search)
}

func (s *catalogService) GetTable(ctx context.Context, fullName string) (*models.TableDetail, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}
	if _, err := warehouse.SplitFullName(fullName); err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	summary, err := s.tableRepo.GetTable(ctx, fullName)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apperrors.NotFound("table %s not found in the catalog", fullName)
	}

	columns, err := s.tableRepo.ListColumns(ctx, fullName)
	if err != nil {
		return nil, err
	}
	comments, err := s.contentRepo.ListComments(ctx, fullName)
	if err != nil {
		return nil, err
	}

	return &models.TableDetail{
		TableSummary: *summary,
		Columns:      columns,
		Comments:     comments,
	}, nil
}

func (s *catalogService) ListColumns(ctx context.Context, fullName string) ([]*models.ColumnDetail, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}
	if err := s.requireTable(ctx, fullName); err != nil {
		return nil, err
	}
	return s.tableRepo.ListColumns(ctx, fullName)
}

func (s *catalogService) ListAttributes(ctx context.Context) ([]*models.AttributeWithEnumerations, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}
	return s.attrRepo.List(ctx)
}

func (s *catalogService) GetAttribute(ctx context.Context, name string) (*models.AttributeWithEnumerations, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}

	attr, err := s.attrRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, apperrors.NotFound("attribute %s not found", name)
	}

	enums, err := s.attrRepo.ListEnumerations(ctx, attr.ID)
	if err != nil {
		return nil, err
	}
	return &models.AttributeWithEnumerations{Attribute: *attr, Enumerations: enums}, nil
}

func (s *catalogService) ListRatings(ctx context.Context, fullName string) ([]*models.Rating, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}
	if err := s.requireTable(ctx, fullName); err != nil {
		return nil, err
	}
	return s.contentRepo.ListRatings(ctx, fullName)
}

func (s *catalogService) ListComments(ctx context.Context, fullName string) ([]*models.Comment, error) {
	if _, _, err := callerCapabilities(ctx, s.perms); err != nil {
		return nil, err
	}
	if err := s.requireTable(ctx, fullName); err != nil {
		return nil, err
	}
	return s.contentRepo.ListComments(ctx, fullName)
}

func (s *catalogService) RateTable(ctx context.Context, fullName string, score int) (*models.Rating, error) {
	userID, _, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if score < 1 || score > 5 {
		return nil, apperrors.Validation("score must be between 1 and 5")
	}
	if err := s.requireTable(ctx, fullName); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		TableFullName: fullName,
		Score:         score,
		RatedBy:       userID,
	}
	if err := s.contentRepo.CreateRating(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *catalogService) CommentOnTable(ctx context.Context, fullName, text string) (*models.Comment, error) {
	userID, _, err := callerCapabilities(ctx, s.perms)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, apperrors.Validation("comment text is required")
	}
	if err := s.requireTable(ctx, fullName); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TableFullName: fullName,
		CommentText:   text,
		Author:        userID,
	}
	if err := s.contentRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *catalogService) requireTable(ctx context.Context, fullName string) error {
	if _, err := warehouse.SplitFullName(fullName); err != nil {
		return apperrors.Validation("%v", err)
	}
	exists, err := s.tableRepo.TableExists(ctx, fullName)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("table %s not found in the catalog", fullName)
	}
	return nil
}
