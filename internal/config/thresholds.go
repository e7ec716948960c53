package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// ThresholdBounds is one sensor type's tier boundaries. A value below
// Warning is normal, at or above Critical is critical.
type ThresholdBounds struct {
	Warning  float64 `yaml:"warning"`
	Critical float64 `yaml:"critical"`
}

// Thresholds maps each sensor type to its bounds.
type Thresholds map[domain.SensorType]ThresholdBounds

type thresholdsFile struct {
	Thresholds map[string]ThresholdBounds `yaml:"thresholds"`
}

// DefaultThresholds are the shipped profiles, used when no file is
// configured. Units follow the sensor type: PPM, °C, Hz, MPa, kPa.
func DefaultThresholds() Thresholds {
	return Thresholds{
		domain.SensorGas:         {Warning: 50, Critical: 100},
		domain.SensorTemperature: {Warning: 35, Critical: 45},
		domain.SensorSeismic:     {Warning: 4, Critical: 8},
		domain.SensorStrain:      {Warning: 150, Critical: 250},
		domain.SensorGeological:  {Warning: 300, Critical: 500},
	}
}

// LoadThresholds reads and validates the YAML threshold profiles. An empty
// path returns the defaults. Validation failures are fatal at startup:
// a malformed profile must never reach the evaluator.
func LoadThresholds(path string) (Thresholds, error) {
	if path == "" {
		return DefaultThresholds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	return ParseThresholds(data)
}

// ParseThresholds parses and validates raw YAML threshold profiles. Profile
// keys must name a known sensor type: rolling out a new type means extending
// the domain enum and shipping a profile for it together, so a stray key here
// is a typo that would otherwise never match a reading, and it fails startup
// instead of being skipped.
func ParseThresholds(data []byte) (Thresholds, error) {
	var file thresholdsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file: %w", err)
	}
	if len(file.Thresholds) == 0 {
		return nil, fmt.Errorf("%w: no threshold profiles defined", domain.ErrInvalidThreshold)
	}

	thresholds := make(Thresholds, len(file.Thresholds))
	for name, bounds := range file.Thresholds {
		sensorType := domain.SensorType(name)
		if !sensorType.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSensorType, name)
		}
		thresholds[sensorType] = bounds
	}

	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return thresholds, nil
}

// Validate enforces warning < critical for every profile.
func (t Thresholds) Validate() error {
	for sensorType, bounds := range t {
		if bounds.Warning >= bounds.Critical {
			return fmt.Errorf("%w: %s warning %.2f must be below critical %.2f",
				domain.ErrInvalidThreshold, sensorType, bounds.Warning, bounds.Critical)
		}
	}
	return nil
}
