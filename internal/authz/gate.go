package authz

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// RoleHolderCounter counts current holders of a role. Satisfied by the
// users repository.
type RoleHolderCounter interface {
	CountUsersWithRole(ctx context.Context, roleID string) (int, error)
}

// Gate answers authorization questions. Denial is a boolean, never an
// error; the HTTP layer translates false into 403. The only errors the
// gate produces are structural protections, which are deliberately
// distinct from permission denials.
type Gate struct {
	model  *PermissionModel
	users  RoleHolderCounter
	logger *zap.Logger
}

// NewGate creates an authorization gate.
func NewGate(model *PermissionModel, users RoleHolderCounter, logger *zap.Logger) *Gate {
	return &Gate{
		model:  model,
		users:  users,
		logger: logger,
	}
}

// Authorize reports whether the user holds the named permission in the
// scope. Deny-by-default: nil users, unknown permission names and missing
// grants all come back false.
func (g *Gate) Authorize(user *domain.User, permission string, scope Scope) bool {
	if user == nil || permission == "" {
		return false
	}

	// Reject names from the wrong namespace at the boundary instead of
	// letting them ride through as opaque strings.
	if scope.IsGlobal() {
		if !domain.GlobalPermission(permission).Valid() {
			return false
		}
	} else if !domain.SectorPermission(permission).Valid() {
		return false
	}

	return g.model.EffectivePermissions(user, scope).Has(permission)
}

// CheckUserDeletion enforces the structural rule that the last holder of
// the admin role cannot be deleted, regardless of the acting user's own
// permissions. Returns domain.ErrLastAdminProtected on violation.
func (g *Gate) CheckUserDeletion(ctx context.Context, target *domain.User) error {
	return g.checkLastAdmin(ctx, target)
}

// CheckRoleChange enforces the same rule for demotion: the last admin
// cannot be moved to another role. Changing to the same role is allowed.
func (g *Gate) CheckRoleChange(ctx context.Context, target *domain.User, newRoleID string) error {
	if target != nil && target.RoleID == newRoleID {
		return nil
	}
	return g.checkLastAdmin(ctx, target)
}

func (g *Gate) checkLastAdmin(ctx context.Context, target *domain.User) error {
	if target == nil || target.RoleID == "" {
		return nil
	}

	role, ok := g.model.RoleByID(target.RoleID)
	if !ok || !role.IsAdmin() {
		return nil
	}

	holders, err := g.users.CountUsersWithRole(ctx, target.RoleID)
	if err != nil {
		return fmt.Errorf("failed to count admin role holders: %w", err)
	}
	if holders <= 1 {
		g.logger.Warn("Blocked removal of last admin",
			zap.String("user_id", target.UserID),
			zap.String("role_id", target.RoleID),
		)
		return domain.ErrLastAdminProtected
	}
	return nil
}
