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

// AccessRequestRepository provides data access for data-access requests.
type AccessRequestRepository interface {
	// Create inserts a new access request in pending status.
	Create(ctx context.Context, req *models.AccessRequest) error

	// GetByIDForUpdate returns an access request by ID with a row lock held
	// for the surrounding transaction, or nil if absent.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.AccessRequest, error)

	// UpdateDecision records the approver decision.
	UpdateDecision(ctx context.Context, id uuid.UUID, status, approver string, comment *string) error

	// ListPending returns pending access requests, newest first.
	ListPending(ctx context.Context) ([]*models.AccessRequest, error)

	// ListByRequester returns all access requests submitted by the given user.
	ListByRequester(ctx context.Context, requester string) ([]*models.AccessRequest, error)
}

type accessRequestRepository struct{}

// NewAccessRequestRepository creates a new AccessRequestRepository.
func NewAccessRequestRepository() AccessRequestRepository {
	return &accessRequestRepository{}
}

var _ AccessRequestRepository = (*accessRequestRepository)(nil)

const accessRequestColumns = `
	id, table_full_name, requester, justification, access_type, grant_to_name,
	access_start_date, access_end_date, status, approver, decision_comment,
	decision_date, requested_at`

func (r *accessRequestRepository) Create(ctx context.Context, req *models.AccessRequest) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO catalog_access_requests (
			table_full_name, requester, justification, access_type,
			grant_to_name, access_start_date, access_end_date, status, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, requested_at`

	err := scope.Conn.QueryRow(ctx, query,
		req.TableFullName,
		req.Requester,
		req.Justification,
		req.AccessType,
		req.GrantToName,
		req.AccessStartDate,
		req.AccessEndDate,
		models.StatusPending,
		time.Now(),
	).Scan(&req.ID, &req.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create access request: %w", err)
	}

	req.Status = models.StatusPending
	return nil
}

func (r *accessRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.AccessRequest, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + accessRequestColumns + `
		FROM catalog_access_requests
		WHERE id = $1
		FOR UPDATE`

	row := scope.Conn.QueryRow(ctx, query, id)
	req, err := scanAccessRequest(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get access request: %w", err)
	}
	return req, nil
}

func (r *accessRequestRepository) UpdateDecision(ctx context.Context, id uuid.UUID, status, approver string, comment *string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE catalog_access_requests
		SET status = $2, approver = $3, decision_comment = $4, decision_date = $5
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id, status, approver, comment, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update access request decision: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("access request not found")
	}
	return nil
}

func (r *accessRequestRepository) ListPending(ctx context.Context) ([]*models.AccessRequest, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + accessRequestColumns + `
		FROM catalog_access_requests
		WHERE status = $1
		ORDER BY requested_at DESC`

	rows, err := scope.Conn.Query(ctx, query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending access requests: %w", err)
	}
	defer rows.Close()

	return scanAccessRequests(rows)
}

func (r *accessRequestRepository) ListByRequester(ctx context.Context, requester string) ([]*models.AccessRequest, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + accessRequestColumns + `
		FROM catalog_access_requests
		WHERE requester = $1
		ORDER BY requested_at DESC`

	rows, err := scope.Conn.Query(ctx, query, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests by requester: %w", err)
	}
	defer rows.Close()

	return scanAccessRequests(rows)
}

func scanAccessRequests(rows pgx.Rows) ([]*models.AccessRequest, error) {
	requests := make([]*models.AccessRequest, 0)
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access requests: %w", err)
	}

	return requests, nil
}

func scanAccessRequest(row pgx.Row) (*models.AccessRequest, error) {
	var req models.AccessRequest
	err := row.Scan(
		&req.ID,
		&req.TableFullName,
		&req.Requester,
		&req.Justification,
		&req.AccessType,
		&req.GrantToName,
		&req.AccessStartDate,
		&req.AccessEndDate,
		&req.Status,
		&req.Approver,
		&req.DecisionComment,
		&req.DecisionDate,
		&req.RequestedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
