package repositories

import (
	"context"
	"fmt"

	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

// UserContentRepository provides data access for unmoderated user content
// on tables: ratings and comments. Both are append-only.
type UserContentRepository interface {
	CreateRating(ctx context.Context, rating *models.Rating) error
	ListRatings(ctx context.Context, tableFullName string) ([]*models.Rating, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, tableFullName string) ([]*models.Comment, error)
}

type userContentRepository struct{}

// NewUserContentRepository creates a new UserContentRepository.
func NewUserContentRepository() UserContentRepository {
	return &userContentRepository{}
}

var _ UserContentRepository = (*userContentRepository)(nil)

func (r *userContentRepository) CreateRating(ctx context.Context, rating *models.Rating) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO catalog_ratings (table_full_name, score, rated_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		rating.TableFullName, rating.Score, rating.RatedBy,
	).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

func (r *userContentRepository) ListRatings(ctx context.Context, tableFullName string) ([]*models.Rating, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, table_full_name, score, rated_by, created_at
		FROM catalog_ratings
		WHERE table_full_name = $1
		ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, tableFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]*models.Rating, 0)
	for rows.Next() {
		var rating models.Rating
		err := rows.Scan(&rating.ID, &rating.TableFullName, &rating.Score, &rating.RatedBy, &rating.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

func (r *userContentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO catalog_comments (table_full_name, comment_text, author)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		comment.TableFullName, comment.CommentText, comment.Author,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *userContentRepository) ListComments(ctx context.Context, tableFullName string) ([]*models.Comment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, table_full_name, comment_text, author, created_at
		FROM catalog_comments
		WHERE table_full_name = $1
		ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, tableFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		err := rows.Scan(&c.ID, &c.TableFullName, &c.CommentText, &c.Author, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}
