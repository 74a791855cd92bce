package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kinetic-data/catalog-engine/pkg/apperrors"
	"github.com/kinetic-data/catalog-engine/pkg/models"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
)

// PermissionService resolves a caller's role to its capability set.
// Capabilities are read once per operation and passed explicitly into the
// transition logic; nothing downstream re-reads the role.
type PermissionService interface {
	// CapabilitiesFor returns the capability set for a role. An unknown or
	// empty role resolves to the zero set, not an error.
	CapabilitiesFor(ctx context.Context, role string) (*models.CapabilitySet, error)

	// ListRoles returns all configured roles with their capabilities.
	ListRoles(ctx context.Context, caps *models.CapabilitySet) ([]*models.RoleCapabilities, error)

	// UpsertRole creates or replaces a role mapping and invalidates its
	// cache entry.
	UpsertRole(ctx context.Context, caps *models.CapabilitySet, rc *models.RoleCapabilities) error

	// ApplyRoleMapOverrides loads a YAML role map file and upserts each
	// entry. Called at startup; a missing path is a no-op.
	ApplyRoleMapOverrides(ctx context.Context, path string) error
}

type permissionService struct {
	roleRepo repositories.RoleRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPermissionService creates a new PermissionService. cache may be nil, in
// which case every lookup hits the database.
func NewPermissionService(roleRepo repositories.RoleRepository, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) PermissionService {
	return &permissionService{
		roleRepo: roleRepo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

var _ PermissionService = (*permissionService)(nil)

func capabilityCacheKey(role string) string {
	return "catalog:capabilities:" + role
}

func (s *permissionService) CapabilitiesFor(ctx context.Context, role string) (*models.CapabilitySet, error) {
	if role == "" {
		return &models.CapabilitySet{}, nil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, capabilityCacheKey(role)).Result()
		if err == nil {
			var caps models.CapabilitySet
			if err := json.Unmarshal([]byte(cached), &caps); err == nil {
				return &caps, nil
			}
			// Unreadable cache entry; fall through to the database.
			s.logger.Warn("Discarding corrupt capability cache entry", zap.String("role", role))
		} else if err != redis.Nil {
			s.logger.Warn("Capability cache read failed", zap.String("role", role), zap.Error(err))
		}
	}

	caps, err := s.roleRepo.GetCapabilities(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve capabilities for role %s: %w", role, err)
	}
	if caps == nil {
		caps = &models.CapabilitySet{}
	}

	if s.cache != nil {
		payload, err := json.Marshal(caps)
		if err == nil {
			if err := s.cache.Set(ctx, capabilityCacheKey(role), payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("Capability cache write failed", zap.String("role", role), zap.Error(err))
			}
		}
	}

	return caps, nil
}

func (s *permissionService) ListRoles(ctx context.Context, caps *models.CapabilitySet) ([]*models.RoleCapabilities, error) {
	if !caps.CanManageRoles {
		return nil, apperrors.Permission("role administration requires the manage-roles capability")
	}
	return s.roleRepo.ListRoles(ctx)
}

func (s *permissionService) UpsertRole(ctx context.Context, caps *models.CapabilitySet, rc *models.RoleCapabilities) error {
	if !caps.CanManageRoles {
		return apperrors.Permission("role administration requires the manage-roles capability")
	}
	if rc.Role == "" {
		return apperrors.Validation("role is required")
	}

	if err := s.roleRepo.UpsertRole(ctx, rc); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, capabilityCacheKey(rc.Role)).Err(); err != nil {
			s.logger.Warn("Capability cache invalidation failed", zap.String("role", rc.Role), zap.Error(err))
		}
	}

	s.logger.Info("Role capabilities updated", zap.String("role", rc.Role))
	return nil
}

// roleMapFile is the YAML shape of the startup override file.
type roleMapFile struct {
	Roles map[string]models.CapabilitySet `yaml:"roles"`
}

func (s *permissionService) ApplyRoleMapOverrides(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read role map file: %w", err)
	}

	var file roleMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse role map file: %w", err)
	}

	for role, caps := range file.Roles {
		rc := &models.RoleCapabilities{Role: role, CapabilitySet: caps}
		if err := s.roleRepo.UpsertRole(ctx, rc); err != nil {
			return fmt.Errorf("failed to apply role map override for %s: %w", role, err)
		}
		if s.cache != nil {
			if err := s.cache.Del(ctx, capabilityCacheKey(role)).Err(); err != nil {
				s.logger.Warn("Capability cache invalidation failed", zap.String("role", role), zap.Error(err))
			}
		}
	}

	s.logger.Info("Applied role map overrides", zap.String("path", path), zap.Int("roles", len(file.Roles)))
	return nil
}
