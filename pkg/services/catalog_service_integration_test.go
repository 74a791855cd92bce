//go:build integration

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
	"github.com/kinetic-data/catalog-engine/pkg/testhelpers"
)

func setupCatalogTest(t *testing.T) (context.Context, CatalogService) {
	t.Helper()

	db := testhelpers.GetCatalogDB(t)
	ctx := db.Scope(t, context.Background())

	roleRepo := repositories.NewRoleRepository()
	require.NoError(t, roleRepo.UpsertRole(ctx, &models.RoleCapabilities{
		Role:          "it_browser",
		CapabilitySet: models.CapabilitySet{HasAppAccess: true},
	}))

	tableRepo := repositories.NewTableMetadataRepository()
	require.NoError(t, tableRepo.UpsertTable(ctx, &models.TableMetadata{
		FullName:     "EDW.IT.BROWSE_ORDERS",
		DatabaseName: "EDW",
		SchemaName:   "IT",
		TableName:    "BROWSE_ORDERS",
		ScannedAt:    time.Now(),
	}))
	require.NoError(t, tableRepo.UpsertColumn(ctx, &models.ColumnMetadata{
		TableFullName: "EDW.IT.BROWSE_ORDERS",
		ColumnName:    "ORDER_ID",
		DataType:      "bigint",
		OrdinalPos:    1,
		ScannedAt:     time.Now(),
	}))
	require.NoError(t, tableRepo.UpsertColumn(ctx, &models.ColumnMetadata{
		TableFullName: "EDW.IT.BROWSE_ORDERS",
		ColumnName:    "ORDER_DATE",
		DataType:      "date",
		OrdinalPos:    2,
		IsNullable:    true,
		ScannedAt:     time.Now(),
	}))

	perms := NewPermissionService(roleRepo, nil, time.Minute, zap.NewNop())
	service := NewCatalogService(tableRepo, repositories.NewAttributeRepository(),
		repositories.NewUserContentRepository(), perms, zap.NewNop())
	return ctx, service
}

func TestCatalogService_BrowseAndUserContent(t *testing.T) {
	ctx, service := setupCatalogTest(t)
	caller := accessCtx(ctx, "frank@example.com", "it_browser")

	// Unmoderated content goes straight in.
	rating, err := service.RateTable(caller, "EDW.IT.BROWSE_ORDERS", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Score)
	assert.Equal(t, "frank@example.com", rating.RatedBy)

	comment, err := service.CommentOnTable(caller, "EDW.IT.BROWSE_ORDERS", "Reconciles with finance")
	require.NoError(t, err)
	assert.Equal(t, "Reconciles with finance", comment.CommentText)

	detail, err := service.GetTable(caller, "EDW.IT.BROWSE_ORDERS")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "EDW.IT.BROWSE_ORDERS", detail.FullName)
	require.Len(t, detail.Columns, 2)
	assert.Equal(t, "ORDER_ID", detail.Columns[0].ColumnName)
	require.NotNil(t, detail.AverageRating)
	assert.InDelta(t, 4.0, *detail.AverageRating, 0.001)
	assert.Equal(t, 1, detail.RatingCount)
	require.Len(t, detail.Comments, 1)

	tables, err := service.ListTables(caller, "browse_ord")
	require.NoError(t, err)
	found := false
	for _, tb := range tables {
		if tb.FullName == "EDW.IT.BROWSE_ORDERS" {
			found = true
		}
	}
	assert.True(t, found, "search match is case insensitive")
}

func TestCatalogService_GetTable_NotFound(t *testing.T) {
	ctx, service := setupCatalogTest(t)
	caller := accessCtx(ctx, "frank@example.com", "it_browser")

	_, err := service.GetTable(caller, "EDW.IT.NOWHERE")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCatalogService_RateTable_ScoreBounds(t *testing.T) {
	ctx, service := setupCatalogTest(t)
	caller := accessCtx(ctx, "frank@example.com", "it_browser")

	for _, score := range []int{0, 6, -1} {
		_, err := service.RateTable(caller, "EDW.IT.BROWSE_ORDERS", score)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	}
}
