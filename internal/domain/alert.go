package domain

import "time"

// AlertCategory separates threshold-driven alerts from informational system
// messages. Info alerts never come out of the generator.
type AlertCategory string

const (
	AlertThreshold AlertCategory = "threshold"
	AlertSystem    AlertCategory = "system"
)

// Alert is a record of an upward status transition. Alerts are never
// deleted; acknowledgement is the only state change and it is terminal.
type Alert struct {
	AlertID   string        `json:"alert_id" db:"alert_id"`
	Category  AlertCategory `json:"category" db:"category"`
	Tier      StatusTier    `json:"tier" db:"tier"`
	Message   string        `json:"message" db:"message"`
	Location  string        `json:"location" db:"location"`
	MineID    string        `json:"mine_id" db:"mine_id"`
	SectorID  string        `json:"sector_id" db:"sector_id"`
	SensorID  string        `json:"sensor_id,omitempty" db:"sensor_id"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`

	// DebounceBucket is CreatedAt truncated to the debounce window. The
	// partial unique index on open alerts includes it, so two concurrent
	// evaluations inside one window collide while a later re-escalation
	// outside the window inserts cleanly.
	DebounceBucket int64 `json:"-" db:"debounce_bucket"`

	Acknowledged   bool       `json:"acknowledged" db:"acknowledged"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
}

// EntityKey identifies the monitored entity an alert originated from, used
// for debounce bookkeeping. Sector-level alerts leave SensorID empty.
func (a *Alert) EntityKey() string {
	if a.SensorID != "" {
		return "sensor:" + a.SensorID
	}
	if a.SectorID != "" {
		return "sector:" + a.SectorID
	}
	return "mine:" + a.MineID
}
