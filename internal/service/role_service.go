package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/authz"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// RoleService coordinates the roles repository and the in-memory
// permission model. Every mutation writes through the repository first and
// swaps the model snapshot only after the commit, so readers of the model
// observe either the fully-old or fully-new permission set.
type RoleService struct {
	rolesRepo repository.RolesRepository
	usersRepo repository.UsersRepository
	model     *authz.PermissionModel
	logger    *zap.Logger
}

// NewRoleService creates the role service.
func NewRoleService(
	rolesRepo repository.RolesRepository,
	usersRepo repository.UsersRepository,
	model *authz.PermissionModel,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		rolesRepo: rolesRepo,
		usersRepo: usersRepo,
		model:     model,
		logger:    logger,
	}
}

// ListRoles returns every role.
func (s *RoleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.rolesRepo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// CreateRole validates and persists a new role, then installs it in the
// permission model.
func (s *RoleService) CreateRole(ctx context.Context, name string, permissionNames []string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	permissions, err := parsePermissionNames(permissionNames)
	if err != nil {
		return nil, err
	}

	role := &domain.Role{
		RoleID:      uuid.New().String(),
		Name:        name,
		Permissions: permissions,
	}
	if err := s.rolesRepo.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.model.SetRole(*role)
	s.logger.Info("Role created",
		zap.String("role_id", role.RoleID),
		zap.String("name", role.Name),
	)
	return role, nil
}

// UpdateRolePermissions replaces a role's permission set. The change is
// atomic for every holder of the role: the repository update runs in one
// transaction and the model swap is a single snapshot replacement.
func (s *RoleService) UpdateRolePermissions(ctx context.Context, roleID string, permissionNames []string) error {
	if roleID == "" {
		return fmt.Errorf("role_id is required")
	}

	permissions, err := parsePermissionNames(permissionNames)
	if err != nil {
		return err
	}

	if err := s.rolesRepo.UpdateRolePermissions(ctx, roleID, permissions); err != nil {
		return fmt.Errorf("failed to update role permissions: %w", err)
	}

	role, err := s.rolesRepo.GetRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("failed to reload role: %w", err)
	}
	s.model.SetRole(*role)

	return nil
}

// DeleteRole removes a role that no user holds.
func (s *RoleService) DeleteRole(ctx context.Context, roleID string) error {
	if roleID == "" {
		return fmt.Errorf("role_id is required")
	}

	holders, err := s.usersRepo.CountUsersWithRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("failed to count role holders: %w", err)
	}
	if holders > 0 {
		return fmt.Errorf("role is held by %d user(s) and cannot be deleted", holders)
	}

	if err := s.rolesRepo.DeleteRole(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.model.RemoveRole(roleID)

	s.logger.Info("Role deleted", zap.String("role_id", roleID))
	return nil
}

func parsePermissionNames(names []string) ([]domain.GlobalPermission, error) {
	permissions := make([]domain.GlobalPermission, 0, len(names))
	seen := map[domain.GlobalPermission]struct{}{}
	for _, name := range names {
		p, err := domain.ParseGlobalPermission(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		permissions = append(permissions, p)
	}
	return permissions, nil
}
