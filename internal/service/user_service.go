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

// UserService manages user accounts and their sector access overrides. The
// last-admin protection runs through the gate before any delete or role
// change, regardless of who is acting.
type UserService struct {
	usersRepo repository.UsersRepository
	gate      *authz.Gate
	logger    *zap.Logger
}

// NewUserService creates the user service.
func NewUserService(usersRepo repository.UsersRepository, gate *authz.Gate, logger *zap.Logger) *UserService {
	return &UserService{
		usersRepo: usersRepo,
		gate:      gate,
		logger:    logger,
	}
}

// GetUser returns one user with sector access attached.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	user, err := s.usersRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns a page of users.
func (s *UserService) ListUsers(ctx context.Context, page, size int) ([]*domain.User, int, error) {
	users, total, err := s.usersRepo.ListUsers(ctx, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// CreateUser validates and persists a new user.
func (s *UserService) CreateUser(ctx context.Context, name, email, roleID string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email: %q", email)
	}

	user := &domain.User{
		UserID: uuid.New().String(),
		Name:   name,
		Email:  email,
		RoleID: roleID,
	}
	if err := s.usersRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created",
		zap.String("user_id", user.UserID),
		zap.String("email", user.Email),
	)
	return user, nil
}

// DeleteUser removes a user. Deleting the last holder of the admin role
// fails with domain.ErrLastAdminProtected.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	target, err := s.usersRepo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.gate.CheckUserDeletion(ctx, target); err != nil {
		return err
	}

	if err := s.usersRepo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted", zap.String("user_id", userID))
	return nil
}

// ChangeUserRole moves a user to another role. Demoting the last admin
// fails with domain.ErrLastAdminProtected.
func (s *UserService) ChangeUserRole(ctx context.Context, userID, roleID string) error {
	target, err := s.usersRepo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.gate.CheckRoleChange(ctx, target, roleID); err != nil {
		return err
	}

	if err := s.usersRepo.UpdateUserRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("failed to change user role: %w", err)
	}

	s.logger.Info("User role changed",
		zap.String("user_id", userID),
		zap.String("role_id", roleID),
	)
	return nil
}

// SetSectorAccess replaces a user's override for one (mine, sector) pair.
// Permission names are validated against the sector namespace.
func (s *UserService) SetSectorAccess(ctx context.Context, userID string, mineID, sectorID string, permissionNames []string) error {
	if userID == "" || mineID == "" || sectorID == "" {
		return fmt.Errorf("user_id, mine_id and sector_id are required")
	}

	access := domain.SectorAccess{MineID: mineID, SectorID: sectorID}
	seen := map[domain.SectorPermission]struct{}{}
	for _, name := range permissionNames {
		p, err := domain.ParseSectorPermission(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		access.Permissions = append(access.Permissions, p)
	}

	if err := s.usersRepo.SetSectorAccess(ctx, userID, access); err != nil {
		return fmt.Errorf("failed to set sector access: %w", err)
	}
	return nil
}

// RemoveSectorAccess drops a user's override for one (mine, sector) pair.
func (s *UserService) RemoveSectorAccess(ctx context.Context, userID, mineID, sectorID string) error {
	if err := s.usersRepo.RemoveSectorAccess(ctx, userID, mineID, sectorID); err != nil {
		return fmt.Errorf("failed to remove sector access: %w", err)
	}
	return nil
}
