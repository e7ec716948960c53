package repository

import (
	"context"
	"time"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// AlertFilters narrows alert listings. Nil fields are ignored.
type AlertFilters struct {
	MineID       *string
	SectorID     *string
	Tier         *domain.StatusTier
	Acknowledged *bool
	StartTime    *time.Time // created_at >= StartTime
	EndTime      *time.Time // created_at <= EndTime
}

// AlertsRepository stores alert records. Alerts are soft-lifecycle: they
// are created and acknowledged, never deleted.
type AlertsRepository interface {
	CreateAlert(ctx context.Context, alert *domain.Alert) error
	GetAlert(ctx context.Context, alertID string) (*domain.Alert, error)
	ListAlerts(ctx context.Context, filters AlertFilters, page, size int) ([]*domain.Alert, int, error)
	LatestOpenAlert(ctx context.Context, entityKey string, tier domain.StatusTier) (*domain.Alert, error)
	// AcknowledgeAlert marks an open alert acknowledged and reports whether
	// this call changed it. false with a nil error means it was already
	// acknowledged.
	AcknowledgeAlert(ctx context.Context, alertID, userID string) (bool, error)
	CountOpenAlerts(ctx context.Context, mineID string) (int, error)
}

// RolesRepository stores roles and their global permission sets.
type RolesRepository interface {
	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRole(ctx context.Context, roleID string) (*domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (*domain.Role, error)
	CreateRole(ctx context.Context, role *domain.Role) error
	// UpdateRolePermissions replaces the role's permission set in one
	// transaction.
	UpdateRolePermissions(ctx context.Context, roleID string, permissions []domain.GlobalPermission) error
	DeleteRole(ctx context.Context, roleID string) error
}

// UsersRepository stores users and their sector access overrides.
type UsersRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, page, size int) ([]*domain.User, int, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUserRole(ctx context.Context, userID, roleID string) error
	DeleteUser(ctx context.Context, userID string) error
	CountUsersWithRole(ctx context.Context, roleID string) (int, error)
	// SetSectorAccess replaces the user's override for one (mine, sector)
	// pair.
	SetSectorAccess(ctx context.Context, userID string, access domain.SectorAccess) error
	RemoveSectorAccess(ctx context.Context, userID, mineID, sectorID string) error
}

// MinesRepository stores the mine → sector → sensor hierarchy.
type MinesRepository interface {
	ListMines(ctx context.Context) ([]domain.Mine, error)
	GetMine(ctx context.Context, mineID string) (*domain.Mine, error)
	// LoadMineHierarchy returns the mine with sectors (level ascending) and
	// their sensors attached.
	LoadMineHierarchy(ctx context.Context, mineID string) (*domain.Mine, error)
	CreateMine(ctx context.Context, mine *domain.Mine) error
	UpdateMineStatus(ctx context.Context, mineID string, status domain.MineStatus) error
	// DeleteMine cascades to sectors and sensors.
	DeleteMine(ctx context.Context, mineID string) error

	CreateSector(ctx context.Context, sector *domain.Sector) error
	UpdateSector(ctx context.Context, sector *domain.Sector) error
	GetSector(ctx context.Context, sectorID string) (*domain.Sector, error)
	ListSectors(ctx context.Context, mineID string) ([]domain.Sector, error)

	GetSensor(ctx context.Context, sensorID string) (*domain.Sensor, error)
	ListSensorsBySector(ctx context.Context, sectorID string) ([]domain.Sensor, error)
	CreateSensor(ctx context.Context, sensor *domain.Sensor) error
	UpdateSensorStatus(ctx context.Context, sensorID string, status domain.SensorStatus) error
}
