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

// ChangeRequestRepository provides data access for change requests.
// It persists records and list views only; transition legality and content
// mutation live in the service layer.
type ChangeRequestRepository interface {
	// Create inserts a new change request in pending status.
	Create(ctx context.Context, req *models.ChangeRequest) error

	// GetByID returns a change request by ID, or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error)

	// GetByIDForUpdate returns a change request by ID with a row lock held
	// for the remainder of the surrounding transaction. Callers must be
	// inside database.WithTransaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error)

	// UpdateDecision records a reviewer decision (approve/deny/return).
	UpdateDecision(ctx context.Context, id uuid.UUID, status, decidedBy string, comment *string) error

	// UpdateResubmission replaces justification and proposed change and
	// resets the request to pending, clearing the previous decision comment.
	UpdateResubmission(ctx context.Context, req *models.ChangeRequest) error

	// ListPending returns requests awaiting review (pending or
	// more_info_needed), newest first.
	ListPending(ctx context.Context) ([]*models.ChangeRequest, error)

	// ListByRequester returns all requests submitted by the given user.
	ListByRequester(ctx context.Context, requester string) ([]*models.ChangeRequest, error)

	// ListByTypes returns requests of the given types regardless of status.
	ListByTypes(ctx context.Context, requestTypes []string) ([]*models.ChangeRequest, error)
}

type changeRequestRepository struct{}

// NewChangeRequestRepository creates a new ChangeRequestRepository.
func NewChangeRequestRepository() ChangeRequestRepository {
	return &changeRequestRepository{}
}

var _ ChangeRequestRepository = (*changeRequestRepository)(nil)

const changeRequestColumns = `
	id, request_type, target_object, requester, justification,
	proposed_change, current_value, status, assigned_to, decision_comment,
	requested_at, decision_date`

func (r *changeRequestRepository) Create(ctx context.Context, req *models.ChangeRequest) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO catalog_change_requests (
			request_type, target_object, requester, justification,
			proposed_change, current_value, status, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, requested_at`

	err := scope.Conn.QueryRow(ctx, query,
		req.RequestType,
		req.TargetObject,
		req.Requester,
		req.Justification,
		req.ProposedChange,
		nullableJSON(req.CurrentValue),
		models.StatusPending,
		time.Now(),
	).Scan(&req.ID, &req.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create change request: %w", err)
	}

	req.Status = models.StatusPending
	return nil
}

func (r *changeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error) {
	return r.getByID(ctx, id, false)
}

func (r *changeRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error) {
	return r.getByID(ctx, id, true)
}

func (r *changeRequestRepository) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.ChangeRequest, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + changeRequestColumns + `
		FROM catalog_change_requests
		WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	row := scope.Conn.QueryRow(ctx, query, id)
	req, err := scanChangeRequest(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get change request: %w", err)
	}
	return req, nil
}

func (r *changeRequestRepository) UpdateDecision(ctx context.Context, id uuid.UUID, status, decidedBy string, comment *string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE catalog_change_requests
		SET status = $2, assigned_to = $3, decision_comment = $4, decision_date = $5
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id, status, decidedBy, comment, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update change request decision: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("change request not found")
	}
	return nil
}

func (r *changeRequestRepository) UpdateResubmission(ctx context.Context, req *models.ChangeRequest) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE catalog_change_requests
		SET justification = $2, proposed_change = $3, status = $4,
		    decision_comment = NULL, decision_date = NULL
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query,
		req.ID, req.Justification, req.ProposedChange, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update change request resubmission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("change request not found")
	}
	return nil
}

func (r *changeRequestRepository) ListPending(ctx context.Context) ([]*models.ChangeRequest, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + changeRequestColumns + `
		FROM catalog_change_requests
		WHERE status IN ($1, $2)
		ORDER BY requested_at DESC`

	rows, err := scope.Conn.Query(ctx, query, models.StatusPending, models.StatusMoreInfoNeeded)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending change requests: %w", err)
	}
	defer rows.Close()

	return scanChangeRequests(rows)
}

func (r *changeRequestRepository) ListByRequester(ctx context.Context, requester string) ([]*models.ChangeRequest, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + changeRequestColumns + `
		FROM catalog_change_requests
		WHERE requester = $1
		ORDER BY requested_at DESC`

	rows, err := scope.Conn.Query(ctx, query, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to list change requests by requester: %w", err)
	}
	defer rows.Close()

	return scanChangeRequests(rows)
}

func (r *changeRequestRepository) ListByTypes(ctx context.Context, requestTypes []string) ([]*models.ChangeRequest, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + changeRequestColumns + `
		FROM catalog_change_requests
		WHERE request_type = ANY($1)
		ORDER BY requested_at DESC`

	rows, err := scope.Conn.Query(ctx, query, requestTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to list change requests by type: %w", err)
	}
	defer rows.Close()

	return scanChangeRequests(rows)
}

// Helper functions

func scanChangeRequests(rows pgx.Rows) ([]*models.ChangeRequest, error) {
	requests := make([]*models.ChangeRequest, 0)
	for rows.Next() {
		req, err := scanChangeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change requests: %w", err)
	}

	return requests, nil
}

func scanChangeRequest(row pgx.Row) (*models.ChangeRequest, error) {
	var req models.ChangeRequest
	err := row.Scan(
		&req.ID,
		&req.RequestType,
		&req.TargetObject,
		&req.Requester,
		&req.Justification,
		&req.ProposedChange,
		&req.CurrentValue,
		&req.Status,
		&req.AssignedTo,
		&req.DecisionComment,
		&req.RequestedAt,
		&req.DecisionDate,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// nullableJSON converts an empty raw document to NULL for insertion.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
