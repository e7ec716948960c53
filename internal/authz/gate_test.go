package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

type fakeHolderCounter struct {
	counts map[string]int
}

func (f *fakeHolderCounter) CountUsersWithRole(_ context.Context, roleID string) (int, error) {
	return f.counts[roleID], nil
}

func newTestGate(roles []domain.Role, counts map[string]int) *Gate {
	return NewGate(NewPermissionModel(roles), &fakeHolderCounter{counts: counts}, zap.NewNop())
}

func TestGate_AuthorizeDenyByDefault(t *testing.T) {
	gate := newTestGate([]domain.Role{viewerRole()}, nil)
	user := &domain.User{UserID: "u1", RoleID: "role-viewer"}

	tests := []struct {
		name       string
		user       *domain.User
		permission string
		scope      Scope
		want       bool
	}{
		{"granted global", user, "view_sensors", Global(), true},
		{"missing global", user, "manage_users", Global(), false},
		{"nil user", nil, "view_sensors", Global(), false},
		{"empty permission", user, "", Global(), false},
		{"unknown name", user, "launch_rockets", Global(), false},
		{"sector name in global scope", user, "view_sector", Global(), false},
		{"global name in sector scope", user, "view_sensors", Sector("m1", "s1"), false},
		{"implied sector grant", user, "view_sector_sensors", Sector("m1", "s1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.Authorize(tt.user, tt.permission, tt.scope))
		})
	}
}

// The miner scenario: a role with no global grants plus one SectorAccess
// entry sees exactly that sector and nothing else.
func TestGate_SectorAccessOnlyUser(t *testing.T) {
	minerRole := domain.Role{RoleID: "role-miner", Name: "miner"}
	gate := newTestGate([]domain.Role{minerRole}, nil)

	miner := &domain.User{
		UserID: "miner-1",
		RoleID: "role-miner",
		SectorAccess: []domain.SectorAccess{{
			MineID:   "m1",
			SectorID: "s1",
			Permissions: []domain.SectorPermission{
				domain.PermViewSector,
				domain.PermViewSectorSensors,
			},
		}},
	}

	assert.True(t, gate.Authorize(miner, "view_sector", Sector("m1", "s1")))
	assert.True(t, gate.Authorize(miner, "view_sector_sensors", Sector("m1", "s1")))
	assert.False(t, gate.Authorize(miner, "manage_sector_sensors", Sector("m1", "s1")))
	assert.False(t, gate.Authorize(miner, "view_sector", Sector("m1", "s2")))
	assert.False(t, gate.Authorize(miner, "view_all_mines", Global()))
}

func adminRole() domain.Role {
	return domain.Role{
		RoleID:      "role-admin",
		Name:        domain.AdminRoleName,
		Permissions: []domain.GlobalPermission{domain.PermManageUsers},
	}
}

func TestGate_LastAdminProtection(t *testing.T) {
	admin := &domain.User{UserID: "u-admin", RoleID: "role-admin"}

	t.Run("sole admin cannot be deleted", func(t *testing.T) {
		gate := newTestGate([]domain.Role{adminRole()}, map[string]int{"role-admin": 1})
		err := gate.CheckUserDeletion(context.Background(), admin)
		assert.ErrorIs(t, err, domain.ErrLastAdminProtected)
	})

	t.Run("sole admin cannot be demoted", func(t *testing.T) {
		gate := newTestGate([]domain.Role{adminRole()}, map[string]int{"role-admin": 1})
		err := gate.CheckRoleChange(context.Background(), admin, "role-viewer")
		assert.ErrorIs(t, err, domain.ErrLastAdminProtected)
	})

	t.Run("one of two admins can be deleted", func(t *testing.T) {
		gate := newTestGate([]domain.Role{adminRole()}, map[string]int{"role-admin": 2})
		require.NoError(t, gate.CheckUserDeletion(context.Background(), admin))
	})

	t.Run("same role change is allowed", func(t *testing.T) {
		gate := newTestGate([]domain.Role{adminRole()}, map[string]int{"role-admin": 1})
		require.NoError(t, gate.CheckRoleChange(context.Background(), admin, "role-admin"))
	})

	t.Run("non-admin users are unprotected", func(t *testing.T) {
		gate := newTestGate([]domain.Role{adminRole(), viewerRole()}, map[string]int{"role-viewer": 1})
		viewer := &domain.User{UserID: "u-viewer", RoleID: "role-viewer"}
		require.NoError(t, gate.CheckUserDeletion(context.Background(), viewer))
	})

	t.Run("roleless user is unprotected", func(t *testing.T) {
		gate := newTestGate([]domain.Role{adminRole()}, nil)
		require.NoError(t, gate.CheckUserDeletion(context.Background(), &domain.User{UserID: "u"}))
	})
}
