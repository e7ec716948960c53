package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/alerting"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// fakeMines serves a fixed hierarchy out of maps.
type fakeMines struct {
	mines   map[string]*domain.Mine
	sectors map[string]*domain.Sector
	sensors map[string]*domain.Sensor
}

var _ repository.MinesRepository = (*fakeMines)(nil)

func (f *fakeMines) GetMine(_ context.Context, id string) (*domain.Mine, error) {
	if m, ok := f.mines[id]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMines) GetSector(_ context.Context, id string) (*domain.Sector, error) {
	if s, ok := f.sectors[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMines) GetSensor(_ context.Context, id string) (*domain.Sensor, error) {
	if s, ok := f.sensors[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMines) ListSectors(_ context.Context, mineID string) ([]domain.Sector, error) {
	var out []domain.Sector
	for _, s := range f.sectors {
		if s.MineID == mineID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeMines) ListSensorsBySector(_ context.Context, sectorID string) ([]domain.Sensor, error) {
	var out []domain.Sensor
	for _, s := range f.sensors {
		if s.SectorID == sectorID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeMines) ListMines(context.Context) ([]domain.Mine, error) { return nil, nil }
func (f *fakeMines) LoadMineHierarchy(context.Context, string) (*domain.Mine, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeMines) CreateMine(context.Context, *domain.Mine) error { return nil }
func (f *fakeMines) UpdateMineStatus(context.Context, string, domain.MineStatus) error {
	return nil
}
func (f *fakeMines) DeleteMine(context.Context, string) error           { return nil }
func (f *fakeMines) CreateSector(context.Context, *domain.Sector) error { return nil }
func (f *fakeMines) UpdateSector(context.Context, *domain.Sector) error { return nil }
func (f *fakeMines) CreateSensor(context.Context, *domain.Sensor) error { return nil }
func (f *fakeMines) UpdateSensorStatus(context.Context, string, domain.SensorStatus) error {
	return nil
}

func testHierarchy() *fakeMines {
	return &fakeMines{
		mines: map[string]*domain.Mine{
			"m1": {MineID: "m1", Name: "Northern Ridge", Status: domain.MineActive},
		},
		sectors: map[string]*domain.Sector{
			"s1": {SectorID: "s1", MineID: "m1", Name: "Level 1", Level: 1, Status: domain.MineActive},
			"s2": {SectorID: "s2", MineID: "m1", Name: "Level 2", Level: 2, Status: domain.MineActive},
		},
		sensors: map[string]*domain.Sensor{
			"g1": {SensorID: "g1", SectorID: "s1", Type: domain.SensorGas, Location: "shaft A", Status: domain.SensorActive},
			"t1": {SensorID: "t1", SectorID: "s1", Type: domain.SensorTemperature, Location: "shaft A", Status: domain.SensorActive},
			"g2": {SensorID: "g2", SectorID: "s2", Type: domain.SensorGas, Location: "shaft B", Status: domain.SensorInactive},
		},
	}
}

func newTestEvaluator(t *testing.T) (*Evaluator, *MemoryBaselines, *repository.MemoryAlertsRepo) {
	t.Helper()

	thresholds, err := NewThresholdEvaluator(config.DefaultThresholds())
	require.NoError(t, err)

	baselines := NewMemoryBaselines()
	alerts := repository.NewMemoryAlertsRepo()
	generator := alerting.NewGenerator(alerts, time.Second, zap.NewNop())

	return NewEvaluator(thresholds, testHierarchy(), baselines, generator, zap.NewNop()), baselines, alerts
}

func reading(sensorID string, value float64, offset time.Duration) domain.Reading {
	base := time.Now().Add(-time.Hour)
	return domain.Reading{SensorID: sensorID, Value: value, Timestamp: base.Add(offset)}
}

func TestEvaluateReading_CriticalRollsUp(t *testing.T) {
	eval, baselines, _ := newTestEvaluator(t)
	ctx := context.Background()

	alerts, err := eval.EvaluateReading(ctx, reading("g1", 120, 0))
	require.NoError(t, err)
	require.Len(t, alerts, 3, "sensor, sector and mine all escalate")

	keys := []string{alerts[0].EntityKey(), alerts[1].EntityKey(), alerts[2].EntityKey()}
	assert.Equal(t, []string{"sensor:g1", "sector:s1", "mine:m1"}, keys)
	for _, alert := range alerts {
		assert.Equal(t, domain.TierCritical, alert.Tier)
	}

	tier, ok, err := baselines.PreviousTier(ctx, "mine:m1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.TierCritical, tier)
}

func TestEvaluateReading_NoChangeNoAlerts(t *testing.T) {
	eval, _, _ := newTestEvaluator(t)
	ctx := context.Background()

	_, err := eval.EvaluateReading(ctx, reading("g1", 120, 0))
	require.NoError(t, err)

	alerts, err := eval.EvaluateReading(ctx, reading("g1", 130, 2*time.Second))
	require.NoError(t, err)
	assert.Empty(t, alerts, "still critical, no transition")
}

func TestEvaluateReading_InactiveSensorIgnored(t *testing.T) {
	eval, baselines, _ := newTestEvaluator(t)
	ctx := context.Background()

	alerts, err := eval.EvaluateReading(ctx, reading("g2", 500, 0))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	_, ok, err := baselines.PreviousTier(ctx, "sensor:g2")
	require.NoError(t, err)
	assert.False(t, ok, "ignored readings leave no baseline")
}

func TestEvaluateReading_SectorHoldsWorstSensor(t *testing.T) {
	eval, _, _ := newTestEvaluator(t)
	ctx := context.Background()

	_, err := eval.EvaluateReading(ctx, reading("g1", 120, 0))
	require.NoError(t, err)

	// A warning on the second sensor alerts at sensor level only; the
	// sector and mine are already critical.
	alerts, err := eval.EvaluateReading(ctx, reading("t1", 40, 2*time.Second))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "sensor:t1", alerts[0].EntityKey())
	assert.Equal(t, domain.TierWarning, alerts[0].Tier)
}

func TestEvaluateReading_RecoveryMovesBaselinesDown(t *testing.T) {
	eval, baselines, _ := newTestEvaluator(t)
	ctx := context.Background()

	_, err := eval.EvaluateReading(ctx, reading("g1", 120, 0))
	require.NoError(t, err)
	_, err = eval.EvaluateReading(ctx, reading("t1", 40, 2*time.Second))
	require.NoError(t, err)

	// Gas recovers: no alerts, but the sector drops to the worst remaining
	// sensor (temperature warning).
	alerts, err := eval.EvaluateReading(ctx, reading("g1", 10, 4*time.Second))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	sectorTier, _, err := baselines.PreviousTier(ctx, "sector:s1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierWarning, sectorTier)

	// Re-escalation after recovery alerts again at every level that moves.
	alerts, err = eval.EvaluateReading(ctx, reading("g1", 120, 6*time.Second))
	require.NoError(t, err)
	assert.Len(t, alerts, 3)
}

func TestEvaluateReading_UnknownSensor(t *testing.T) {
	eval, _, _ := newTestEvaluator(t)

	_, err := eval.EvaluateReading(context.Background(), reading("nope", 10, 0))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
