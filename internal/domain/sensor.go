package domain

import "time"

// SensorType is the closed vocabulary of supported sensor kinds. Adding a
// type requires a threshold configuration entry, not a code change.
type SensorType string

const (
	SensorGas         SensorType = "gas"         // PPM
	SensorTemperature SensorType = "temperature" // °C
	SensorSeismic     SensorType = "seismic"     // Hz
	SensorStrain      SensorType = "strain"      // MPa
	SensorGeological  SensorType = "geological"  // kPa
)

// SensorTypes lists every known sensor type in declaration order.
var SensorTypes = []SensorType{
	SensorGas,
	SensorTemperature,
	SensorSeismic,
	SensorStrain,
	SensorGeological,
}

// Valid reports whether t is one of the known sensor types.
func (t SensorType) Valid() bool {
	switch t {
	case SensorGas, SensorTemperature, SensorSeismic, SensorStrain, SensorGeological:
		return true
	}
	return false
}

// Unit returns the measurement unit label for the sensor type.
func (t SensorType) Unit() string {
	switch t {
	case SensorGas:
		return "PPM"
	case SensorTemperature:
		return "°C"
	case SensorSeismic:
		return "Hz"
	case SensorStrain:
		return "MPa"
	case SensorGeological:
		return "kPa"
	default:
		return ""
	}
}

// SensorStatus is the lifecycle status of a physical sensor.
type SensorStatus string

const (
	SensorActive      SensorStatus = "active"
	SensorInactive    SensorStatus = "inactive"
	SensorMaintenance SensorStatus = "maintenance"
)

// Valid reports whether s is a known lifecycle status.
func (s SensorStatus) Valid() bool {
	switch s {
	case SensorActive, SensorInactive, SensorMaintenance:
		return true
	}
	return false
}

// Coordinates is a lat/lon pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Calibration records when a sensor was last calibrated and when the next
// calibration is due.
type Calibration struct {
	LastCalibratedAt time.Time `json:"last_calibrated_at" db:"last_calibrated_at"`
	NextDueAt        time.Time `json:"next_due_at" db:"next_due_at"`
	CalibratedBy     string    `json:"calibrated_by" db:"calibrated_by"`
}

// ManufacturerSpec is the vendor specification record attached to a sensor.
type ManufacturerSpec struct {
	Manufacturer string  `json:"manufacturer" db:"manufacturer"`
	Model        string  `json:"model" db:"model"`
	SerialNumber string  `json:"serial_number" db:"serial_number"`
	RangeMin     float64 `json:"range_min" db:"range_min"`
	RangeMax     float64 `json:"range_max" db:"range_max"`
}

// Sensor is a monitored device installed in exactly one sector.
type Sensor struct {
	SensorID    string           `json:"sensor_id" db:"sensor_id"`
	SectorID    string           `json:"sector_id" db:"sector_id"`
	Type        SensorType       `json:"type" db:"type"`
	Location    string           `json:"location" db:"location"`
	Coordinates Coordinates      `json:"coordinates"`
	Status      SensorStatus     `json:"status" db:"status"`
	Calibration Calibration      `json:"calibration"`
	Spec        ManufacturerSpec `json:"spec"`
}

// Reading is a single raw measurement. Readings are ephemeral: the core
// evaluates them immediately and never persists them.
type Reading struct {
	SensorID  string    `json:"sensor_id"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
