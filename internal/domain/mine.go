package domain

// MineStatus is the operational status of a mine or sector, set by
// administrators. Distinct from the derived StatusTier.
type MineStatus string

const (
	MineActive      MineStatus = "active"
	MineMaintenance MineStatus = "maintenance"
	MineEmergency   MineStatus = "emergency"
)

// Valid reports whether s is a known operational status.
func (s MineStatus) Valid() bool {
	switch s {
	case MineActive, MineMaintenance, MineEmergency:
		return true
	}
	return false
}

// Mine is the top of the monitoring hierarchy. A mine owns its sectors;
// deleting a mine cascades to them.
type Mine struct {
	MineID      string      `json:"mine_id" db:"mine_id"`
	Name        string      `json:"name" db:"name"`
	Location    string      `json:"location" db:"location"`
	Status      MineStatus  `json:"status" db:"status"`
	Coordinates Coordinates `json:"coordinates"`
	DepthMeters float64     `json:"depth_meters" db:"depth_meters"`

	// Sectors is ordered by level ascending when loaded through the
	// hierarchy query.
	Sectors []Sector `json:"sectors,omitempty"`
}

// Sector is a level of a mine. Levels are unique within the owning mine.
type Sector struct {
	SectorID string     `json:"sector_id" db:"sector_id"`
	MineID   string     `json:"mine_id" db:"mine_id"`
	Name     string     `json:"name" db:"name"`
	Level    int        `json:"level" db:"level"`
	Status   MineStatus `json:"status" db:"status"`

	Sensors []Sensor `json:"sensors,omitempty"`
}

// SectorRef identifies a sector by its owning mine and its own id. Used as
// the scope key for sector permissions and as the alert origin.
type SectorRef struct {
	MineID   string `json:"mine_id"`
	SectorID string `json:"sector_id"`
}
