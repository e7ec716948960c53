package domain

import "fmt"

// GlobalPermission names a permission granted through a role, valid in
// global scope. The global and sector namespaces are disjoint: a name is
// valid in exactly one of them and unknown names are rejected at the
// boundary instead of being carried as opaque strings.
type GlobalPermission string

const (
	PermViewAllMines    GlobalPermission = "view_all_mines"
	PermManageUsers     GlobalPermission = "manage_users"
	PermViewSensors     GlobalPermission = "view_sensors"
	PermViewReports     GlobalPermission = "view_reports"
	PermAccessMessaging GlobalPermission = "access_messaging"
	PermViewPredictive  GlobalPermission = "view_predective_data" // spelling matches the stored name
	PermManageSensors   GlobalPermission = "manage_sensors"
	PermManageAlerts    GlobalPermission = "manage_alerts"
	PermViewAlerts      GlobalPermission = "view_alerts"
)

// SectorPermission names a permission valid only in sector scope, granted
// either through a SectorAccess override or implied by a global permission.
type SectorPermission string

const (
	PermViewSector          SectorPermission = "view_sector"
	PermManageSector        SectorPermission = "manage_sector"
	PermViewSectorSensors   SectorPermission = "view_sector_sensors"
	PermManageSectorSensors SectorPermission = "manage_sector_sensors"
	PermViewSectorAlerts    SectorPermission = "view_sector_alerts"
	PermManageSectorAlerts  SectorPermission = "manage_sector_alerts"
	PermViewSectorReports   SectorPermission = "view_sector_reports"
)

// Valid reports whether p is a known global permission name.
func (p GlobalPermission) Valid() bool {
	switch p {
	case PermViewAllMines, PermManageUsers, PermViewSensors, PermViewReports,
		PermAccessMessaging, PermViewPredictive, PermManageSensors,
		PermManageAlerts, PermViewAlerts:
		return true
	}
	return false
}

// Valid reports whether p is a known sector permission name.
func (p SectorPermission) Valid() bool {
	switch p {
	case PermViewSector, PermManageSector, PermViewSectorSensors,
		PermManageSectorSensors, PermViewSectorAlerts,
		PermManageSectorAlerts, PermViewSectorReports:
		return true
	}
	return false
}

// ParseGlobalPermission validates a stored/submitted global permission name.
func ParseGlobalPermission(s string) (GlobalPermission, error) {
	p := GlobalPermission(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q is not a global permission", ErrUnknownPermission, s)
	}
	return p, nil
}

// ParseSectorPermission validates a stored/submitted sector permission name.
func ParseSectorPermission(s string) (SectorPermission, error) {
	p := SectorPermission(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q is not a sector permission", ErrUnknownPermission, s)
	}
	return p, nil
}
