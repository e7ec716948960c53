package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

func TestThresholdEvaluator_Evaluate(t *testing.T) {
	eval, err := NewThresholdEvaluator(config.DefaultThresholds())
	require.NoError(t, err)

	tests := []struct {
		name       string
		sensorType domain.SensorType
		value      float64
		want       domain.StatusTier
	}{
		{"gas well below warning", domain.SensorGas, 10, domain.TierNormal},
		{"gas just below warning", domain.SensorGas, 49.999, domain.TierNormal},
		{"gas exactly at warning", domain.SensorGas, 50, domain.TierWarning},
		{"gas between bounds", domain.SensorGas, 75, domain.TierWarning},
		{"gas just below critical", domain.SensorGas, 99.999, domain.TierWarning},
		{"gas exactly at critical", domain.SensorGas, 100, domain.TierCritical},
		{"gas above critical", domain.SensorGas, 500, domain.TierCritical},
		{"temperature normal", domain.SensorTemperature, 20, domain.TierNormal},
		{"temperature critical", domain.SensorTemperature, 45, domain.TierCritical},
		{"seismic warning", domain.SensorSeismic, 4, domain.TierWarning},
		{"strain critical", domain.SensorStrain, 250, domain.TierCritical},
		{"geological normal", domain.SensorGeological, 299.9, domain.TierNormal},
		{"negative value is normal", domain.SensorGas, -5, domain.TierNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(tt.sensorType, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThresholdEvaluator_Monotonic(t *testing.T) {
	eval, err := NewThresholdEvaluator(config.DefaultThresholds())
	require.NoError(t, err)

	// A larger value never yields a lower tier.
	previous := domain.TierNormal
	for v := 0.0; v <= 120; v += 0.5 {
		tier, err := eval.Evaluate(domain.SensorGas, v)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(tier), int(previous), "value %.1f", v)
		previous = tier
	}
}

func TestThresholdEvaluator_UnknownType(t *testing.T) {
	eval, err := NewThresholdEvaluator(config.DefaultThresholds())
	require.NoError(t, err)

	_, err = eval.Evaluate("humidity", 10)
	assert.ErrorIs(t, err, domain.ErrUnknownSensorType)
}

func TestNewThresholdEvaluator_InvalidConfig(t *testing.T) {
	_, err := NewThresholdEvaluator(config.Thresholds{
		domain.SensorGas: {Warning: 100, Critical: 50},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)

	_, err = NewThresholdEvaluator(config.Thresholds{})
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
}
