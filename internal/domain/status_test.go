package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTier_Ordering(t *testing.T) {
	assert.Less(t, TierNormal, TierWarning)
	assert.Less(t, TierWarning, TierCritical)
}

func TestStatusTier_StringRoundTrip(t *testing.T) {
	for _, tier := range []StatusTier{TierNormal, TierWarning, TierCritical} {
		parsed, err := ParseStatusTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}

	_, err := ParseStatusTier("severe")
	assert.Error(t, err)
}

func TestStatusTier_JSON(t *testing.T) {
	data, err := json.Marshal(TierWarning)
	require.NoError(t, err)
	assert.Equal(t, `"warning"`, string(data))

	var tier StatusTier
	require.NoError(t, json.Unmarshal([]byte(`"critical"`), &tier))
	assert.Equal(t, TierCritical, tier)

	_, err = json.Marshal(StatusTier(42))
	assert.Error(t, err)
}

func TestAlert_EntityKey(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
		want  string
	}{
		{"sensor alert", Alert{MineID: "m1", SectorID: "s1", SensorID: "g1"}, "sensor:g1"},
		{"sector alert", Alert{MineID: "m1", SectorID: "s1"}, "sector:s1"},
		{"mine alert", Alert{MineID: "m1"}, "mine:m1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.alert.EntityKey())
		})
	}
}
