package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

func newTestCacheManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	cfg.Monitor.Cache.ReadingKeyPrefix = "minewatch:sensor:"
	cfg.Monitor.Cache.ReadingSuffix = ":reading"
	cfg.Monitor.Cache.StatusKeyPrefix = "minewatch:status:"
	cfg.Monitor.Cache.ReadingTTL = 120

	return NewCacheManager(cfg, client, zap.NewNop()), mr
}

func TestCacheManager_ReadingRoundTrip(t *testing.T) {
	cm, mr := newTestCacheManager(t)
	ctx := context.Background()

	in := domain.Reading{
		SensorID:  "g1",
		Value:     42.5,
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cm.SetLatestReading(ctx, in))

	out, err := cm.GetLatestReading(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, in.SensorID, out.SensorID)
	assert.Equal(t, in.Value, out.Value)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))

	// Stale readings age out.
	mr.FastForward(121 * time.Second)
	_, err = cm.GetLatestReading(ctx, "g1")
	assert.Error(t, err)
}

func TestCacheManager_MissingReading(t *testing.T) {
	cm, _ := newTestCacheManager(t)

	_, err := cm.GetLatestReading(context.Background(), "nope")
	assert.Error(t, err)
}

func TestCacheManager_TierBaseline(t *testing.T) {
	cm, _ := newTestCacheManager(t)
	ctx := context.Background()

	tier, ok, err := cm.PreviousTier(ctx, "sensor:g1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domain.TierNormal, tier)

	require.NoError(t, cm.SetTier(ctx, "sensor:g1", domain.TierCritical))

	tier, ok, err = cm.PreviousTier(ctx, "sensor:g1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.TierCritical, tier)

	// Baselines never expire on their own.
	require.NoError(t, cm.SetTier(ctx, "sensor:g1", domain.TierNormal))
	tier, ok, err = cm.PreviousTier(ctx, "sensor:g1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.TierNormal, tier)
}

func TestCacheManager_CorruptBaseline(t *testing.T) {
	cm, mr := newTestCacheManager(t)

	require.NoError(t, mr.Set("minewatch:status:sensor:g1", "purple"))

	_, _, err := cm.PreviousTier(context.Background(), "sensor:g1")
	assert.Error(t, err)
}
