package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

func viewerRole() domain.Role {
	return domain.Role{
		RoleID: "role-viewer",
		Name:   "viewer",
		Permissions: []domain.GlobalPermission{
			domain.PermViewSensors,
			domain.PermViewReports,
		},
	}
}

func TestEffectivePermissions_GlobalScope(t *testing.T) {
	model := NewPermissionModel([]domain.Role{viewerRole()})
	user := &domain.User{UserID: "u1", RoleID: "role-viewer"}

	set := model.EffectivePermissions(user, Global())
	assert.True(t, set.Has("view_sensors"))
	assert.True(t, set.Has("view_reports"))
	assert.False(t, set.Has("manage_users"))
}

func TestEffectivePermissions_AlwaysDefined(t *testing.T) {
	model := NewPermissionModel([]domain.Role{viewerRole()})

	tests := []struct {
		name string
		user *domain.User
	}{
		{"nil user", nil},
		{"no role", &domain.User{UserID: "u1"}},
		{"unknown role", &domain.User{UserID: "u1", RoleID: "role-gone"}},
		{
			// Sector access without a role still yields the empty set.
			"no role with sector access",
			&domain.User{
				UserID: "u1",
				SectorAccess: []domain.SectorAccess{{
					MineID:      "m1",
					SectorID:    "s1",
					Permissions: []domain.SectorPermission{domain.PermViewSector},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, scope := range []Scope{Global(), Sector("m1", "s1")} {
				set := model.EffectivePermissions(tt.user, scope)
				assert.NotNil(t, set)
				assert.Empty(t, set)
			}
		})
	}
}

func TestEffectivePermissions_SectorImplication(t *testing.T) {
	model := NewPermissionModel([]domain.Role{{
		RoleID:      "role-sensors",
		Name:        "sensor-tech",
		Permissions: []domain.GlobalPermission{domain.PermManageSensors},
	}})
	user := &domain.User{UserID: "u1", RoleID: "role-sensors"}

	set := model.EffectivePermissions(user, Sector("m1", "s1"))
	assert.True(t, set.Has("view_sector_sensors"))
	assert.True(t, set.Has("manage_sector_sensors"))
	assert.False(t, set.Has("view_sector"))
	assert.False(t, set.Has("manage_sensors"), "global names never appear in sector scope")
}

func TestEffectivePermissions_SectorAccessUnion(t *testing.T) {
	model := NewPermissionModel([]domain.Role{viewerRole()})
	user := &domain.User{
		UserID: "u1",
		RoleID: "role-viewer",
		SectorAccess: []domain.SectorAccess{{
			MineID:      "m1",
			SectorID:    "s1",
			Permissions: []domain.SectorPermission{domain.PermManageSectorAlerts},
		}},
	}

	granted := model.EffectivePermissions(user, Sector("m1", "s1"))
	assert.True(t, granted.Has("view_sector_sensors"), "implied by global view_sensors")
	assert.True(t, granted.Has("manage_sector_alerts"), "granted by the override")

	// The override is scoped to its own sector.
	other := model.EffectivePermissions(user, Sector("m1", "s2"))
	assert.True(t, other.Has("view_sector_sensors"))
	assert.False(t, other.Has("manage_sector_alerts"))
}

func TestSetRole_AtomicSwap(t *testing.T) {
	model := NewPermissionModel([]domain.Role{viewerRole()})
	user := &domain.User{UserID: "u1", RoleID: "role-viewer"}

	before := model.EffectivePermissions(user, Global())
	assert.True(t, before.Has("view_sensors"))

	updated := viewerRole()
	updated.Permissions = []domain.GlobalPermission{domain.PermManageUsers}
	model.SetRole(updated)

	after := model.EffectivePermissions(user, Global())
	assert.False(t, after.Has("view_sensors"))
	assert.True(t, after.Has("manage_users"))

	// The earlier result is a snapshot copy, untouched by the swap.
	assert.True(t, before.Has("view_sensors"))
}

func TestEffectivePermissions_ReturnsCopy(t *testing.T) {
	model := NewPermissionModel([]domain.Role{viewerRole()})
	user := &domain.User{UserID: "u1", RoleID: "role-viewer"}

	set := model.EffectivePermissions(user, Global())
	set["manage_users"] = struct{}{}

	fresh := model.EffectivePermissions(user, Global())
	assert.False(t, fresh.Has("manage_users"))
}

func TestRemoveRole(t *testing.T) {
	model := NewPermissionModel([]domain.Role{viewerRole()})
	user := &domain.User{UserID: "u1", RoleID: "role-viewer"}

	model.RemoveRole("role-viewer")
	assert.Empty(t, model.EffectivePermissions(user, Global()))

	_, ok := model.RoleByID("role-viewer")
	assert.False(t, ok)
}
