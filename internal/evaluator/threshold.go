package evaluator

import (
	"fmt"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// ThresholdEvaluator maps raw readings to status tiers using the configured
// per-type bounds. Evaluation is pure: no state, no side effects.
type ThresholdEvaluator struct {
	thresholds config.Thresholds
}

// NewThresholdEvaluator validates the profiles and builds an evaluator.
func NewThresholdEvaluator(thresholds config.Thresholds) (*ThresholdEvaluator, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: no threshold profiles", domain.ErrInvalidThreshold)
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &ThresholdEvaluator{thresholds: thresholds}, nil
}

// Evaluate returns the tier for a value of the given sensor type.
// value < warning → normal; warning ≤ value < critical → warning;
// value ≥ critical → critical. Unknown types fail, never default.
func (e *ThresholdEvaluator) Evaluate(sensorType domain.SensorType, value float64) (domain.StatusTier, error) {
	bounds, ok := e.thresholds[sensorType]
	if !ok {
		return domain.TierNormal, fmt.Errorf("%w: %q", domain.ErrUnknownSensorType, sensorType)
	}

	switch {
	case value >= bounds.Critical:
		return domain.TierCritical, nil
	case value >= bounds.Warning:
		return domain.TierWarning, nil
	default:
		return domain.TierNormal, nil
	}
}

// Bounds returns the configured bounds for a sensor type.
func (e *ThresholdEvaluator) Bounds(sensorType domain.SensorType) (config.ThresholdBounds, bool) {
	bounds, ok := e.thresholds[sensorType]
	return bounds, ok
}
