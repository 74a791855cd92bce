package services

import (
	"context"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

// callerCapabilities resolves the authenticated caller and their capability
// set from the request context. Callers without catalog access are rejected
// here so individual operations only check their specific capability.
func callerCapabilities(ctx context.Context, perms PermissionService) (string, *models.CapabilitySet, error) {
	userID, err := auth.RequireUserIDFromContext(ctx)
	if err != nil {
		return "", nil, apperrors.Permission("authentication required")
	}

	caps, err := perms.CapabilitiesFor(ctx, auth.GetRoleFromContext(ctx))
	if err != nil {
		return "", nil, err
	}
	if !caps.HasAppAccess {
		return "", nil, apperrors.Permission("role has no catalog access")
	}
	return userID, caps, nil
}
