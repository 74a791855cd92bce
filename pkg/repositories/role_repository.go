package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

// RoleRepository provides data access for the role-to-capability mapping.
type RoleRepository interface {
	// GetCapabilities returns the capability set for a role, or nil when the
	// role is unknown.
	GetCapabilities(ctx context.Context, role string) (*models.CapabilitySet, error)

	// ListRoles returns all roles with their capabilities, ordered by role.
	ListRoles(ctx context.Context) ([]*models.RoleCapabilities, error)

	// UpsertRole creates or replaces a role's capability set.
	UpsertRole(ctx context.Context, rc *models.RoleCapabilities) error
}

type roleRepository struct{}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository() RoleRepository {
	return &roleRepository{}
}

var _ RoleRepository = (*roleRepository)(nil)

func (r *roleRepository) GetCapabilities(ctx context.Context, role string) (*models.CapabilitySet, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT has_app_access, can_create_requests, can_approve_glossary,
		       can_approve_data_access, can_manage_roles
		FROM catalog_role_capabilities
		WHERE role = $1`

	var caps models.CapabilitySet
	err := scope.Conn.QueryRow(ctx, query, role).Scan(
		&caps.HasAppAccess, &caps.CanCreateRequests, &caps.CanApproveGlossary,
		&caps.CanApproveDataAccess, &caps.CanManageRoles,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get role capabilities: %w", err)
	}
	return &caps, nil
}

func (r *roleRepository) ListRoles(ctx context.Context) ([]*models.RoleCapabilities, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT role, has_app_access, can_create_requests, can_approve_glossary,
		       can_approve_data_access, can_manage_roles
		FROM catalog_role_capabilities
		ORDER BY role`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]*models.RoleCapabilities, 0)
	for rows.Next() {
		var rc models.RoleCapabilities
		err := rows.Scan(
			&rc.Role, &rc.HasAppAccess, &rc.CanCreateRequests,
			&rc.CanApproveGlossary, &rc.CanApproveDataAccess, &rc.CanManageRoles,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

func (r *roleRepository) UpsertRole(ctx context.Context, rc *models.RoleCapabilities) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO catalog_role_capabilities (role, has_app_access, can_create_requests, can_approve_glossary, can_approve_data_access, can_manage_roles, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (role) DO UPDATE SET
			has_app_access = EXCLUDED.has_app_access,
			can_create_requests = EXCLUDED.can_create_requests,
			can_approve_glossary = EXCLUDED.can_approve_glossary,
			can_approve_data_access = EXCLUDED.can_approve_data_access,
			can_manage_roles = EXCLUDED.can_manage_roles,
			updated_at = EXCLUDED.updated_at`

	_, err := scope.Conn.Exec(ctx, query,
		rc.Role, rc.HasAppAccess, rc.CanCreateRequests,
		rc.CanApproveGlossary, rc.CanApproveDataAccess, rc.CanManageRoles,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert role capabilities: %w", err)
	}
	return nil
}
