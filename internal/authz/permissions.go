package authz

import (
	"fmt"
	"sync"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// Scope is the context permissions are evaluated against: global, or one
// specific sector of one mine.
type Scope struct {
	sector *domain.SectorRef
}

// Global returns the global scope.
func Global() Scope {
	return Scope{}
}

// Sector returns a sector scope.
func Sector(mineID, sectorID string) Scope {
	return Scope{sector: &domain.SectorRef{MineID: mineID, SectorID: sectorID}}
}

// IsGlobal reports whether this is the global scope.
func (s Scope) IsGlobal() bool {
	return s.sector == nil
}

// SectorRef returns the sector for a sector scope.
func (s Scope) SectorRef() (domain.SectorRef, bool) {
	if s.sector == nil {
		return domain.SectorRef{}, false
	}
	return *s.sector, true
}

// String renders the scope for logs.
func (s Scope) String() string {
	if s.sector == nil {
		return "global"
	}
	return fmt.Sprintf("sector(%s/%s)", s.sector.MineID, s.sector.SectorID)
}

// PermissionSet is a set of permission names. In global scope the names are
// global permissions, in sector scope sector permissions.
type PermissionSet map[string]struct{}

// Has reports membership.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// sectorImplied is the fixed mapping of global permissions to the sector
// permissions they imply in every sector.
var sectorImplied = map[domain.GlobalPermission][]domain.SectorPermission{
	domain.PermViewAllMines: {
		domain.PermViewSector,
		domain.PermViewSectorSensors,
		domain.PermViewSectorAlerts,
		domain.PermViewSectorReports,
	},
	domain.PermViewSensors:   {domain.PermViewSectorSensors},
	domain.PermManageSensors: {domain.PermViewSectorSensors, domain.PermManageSectorSensors},
	domain.PermViewAlerts:    {domain.PermViewSectorAlerts},
	domain.PermManageAlerts:  {domain.PermViewSectorAlerts, domain.PermManageSectorAlerts},
	domain.PermViewReports:   {domain.PermViewSectorReports},
}

// roleSnapshot is an immutable view of one role. Updates replace the whole
// snapshot, so a reader holds either the fully-old or fully-new set.
type roleSnapshot struct {
	role   domain.Role
	global map[domain.GlobalPermission]struct{}
}

// PermissionModel computes effective permissions from roles and per-user
// sector overrides. Role permission sets are held as copy-on-write
// snapshots; EffectivePermissions never observes a partial update.
type PermissionModel struct {
	mu    sync.RWMutex
	roles map[string]*roleSnapshot
}

// NewPermissionModel builds the model from the currently persisted roles.
func NewPermissionModel(roles []domain.Role) *PermissionModel {
	m := &PermissionModel{roles: make(map[string]*roleSnapshot, len(roles))}
	for _, role := range roles {
		m.roles[role.RoleID] = newSnapshot(role)
	}
	return m
}

func newSnapshot(role domain.Role) *roleSnapshot {
	global := make(map[domain.GlobalPermission]struct{}, len(role.Permissions))
	for _, p := range role.Permissions {
		global[p] = struct{}{}
	}
	return &roleSnapshot{role: role, global: global}
}

// SetRole installs or replaces a role snapshot atomically. Every user
// holding the role sees the new set on their next read.
func (m *PermissionModel) SetRole(role domain.Role) {
	snapshot := newSnapshot(role)
	m.mu.Lock()
	m.roles[role.RoleID] = snapshot
	m.mu.Unlock()
}

// RemoveRole drops a role from the model.
func (m *PermissionModel) RemoveRole(roleID string) {
	m.mu.Lock()
	delete(m.roles, roleID)
	m.mu.Unlock()
}

// RoleByID returns the current snapshot of a role.
func (m *PermissionModel) RoleByID(roleID string) (domain.Role, bool) {
	m.mu.RLock()
	snapshot, ok := m.roles[roleID]
	m.mu.RUnlock()
	if !ok {
		return domain.Role{}, false
	}
	return snapshot.role, true
}

// EffectivePermissions returns the permission set for a user in a scope.
// The result is always a well-defined set, empty for a nil user, a user
// with no role, or a sector the user has no path into. The returned set is
// a copy; mutating it cannot touch the model.
func (m *PermissionModel) EffectivePermissions(user *domain.User, scope Scope) PermissionSet {
	result := make(PermissionSet)
	if user == nil || user.RoleID == "" {
		return result
	}

	m.mu.RLock()
	snapshot, ok := m.roles[user.RoleID]
	m.mu.RUnlock()
	if !ok {
		return result
	}

	ref, isSector := scope.SectorRef()
	if !isSector {
		for p := range snapshot.global {
			result[string(p)] = struct{}{}
		}
		return result
	}

	for p := range snapshot.global {
		for _, implied := range sectorImplied[p] {
			result[string(implied)] = struct{}{}
		}
	}
	if access := user.AccessFor(ref); access != nil {
		for _, p := range access.Permissions {
			result[string(p)] = struct{}{}
		}
	}
	return result
}
