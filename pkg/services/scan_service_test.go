package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/models"
)

func TestScanService_RequiresManageCapability(t *testing.T) {
	perms := &stubPermissionService{caps: models.CapabilitySet{HasAppAccess: true}}
	service := NewScanService(nil, nil, perms, zap.NewNop())

	_, err := service.Scan(contextWithUser("ops@example.com", "viewer"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindPermission, apperrors.KindOf(err))
}

func TestScanService_NoWarehouseConfigured(t *testing.T) {
	perms := &stubPermissionService{caps: models.CapabilitySet{HasAppAccess: true, CanManageRoles: true}}
	service := NewScanService(nil, nil, perms, zap.NewNop())

	_, err := service.Scan(contextWithUser("ops@example.com", "admin"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))
}
