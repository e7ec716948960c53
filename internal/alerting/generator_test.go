package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

func newTestGenerator(t *testing.T, window time.Duration) (*Generator, *repository.MemoryAlertsRepo, *time.Time) {
	t.Helper()
	store := repository.NewMemoryAlertsRepo()
	g := NewGenerator(store, window, zap.NewNop())

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g, store, &now
}

func change(previous, current domain.StatusTier, at time.Time) StatusChange {
	return StatusChange{
		MineID:     "mine-1",
		SectorID:   "sector-1",
		SensorID:   "sensor-1",
		Location:   "Northern Ridge / Level 2",
		Detail:     "gas 120.0 PPM",
		Previous:   previous,
		Current:    current,
		ObservedAt: at,
	}
}

func TestGenerator_UpwardTransitionsOnly(t *testing.T) {
	g, _, now := newTestGenerator(t, 30*time.Second)
	ctx := context.Background()

	tests := []struct {
		name      string
		previous  domain.StatusTier
		current   domain.StatusTier
		wantAlert bool
	}{
		{"normal to warning", domain.TierNormal, domain.TierWarning, true},
		{"warning to critical", domain.TierWarning, domain.TierCritical, true},
		{"normal to critical", domain.TierNormal, domain.TierCritical, true},
		{"repeat warning", domain.TierWarning, domain.TierWarning, false},
		{"critical to warning", domain.TierCritical, domain.TierWarning, false},
		{"warning to normal", domain.TierWarning, domain.TierNormal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Fresh window per case so debounce never interferes.
			*now = now.Add(time.Minute)

			alert, err := g.OnStatusChange(ctx, change(tt.previous, tt.current, *now))
			require.NoError(t, err)
			if tt.wantAlert {
				require.NotNil(t, alert)
				assert.Equal(t, tt.current, alert.Tier)
				assert.Equal(t, "sensor:sensor-1", alert.EntityKey())
				assert.False(t, alert.Acknowledged)
			} else {
				assert.Nil(t, alert)
			}
		})
	}
}

func TestGenerator_DebounceWithinWindow(t *testing.T) {
	g, _, now := newTestGenerator(t, 30*time.Second)
	ctx := context.Background()

	first, err := g.OnStatusChange(ctx, change(domain.TierNormal, domain.TierWarning, *now))
	require.NoError(t, err)
	require.NotNil(t, first)

	// Same transition 10s later: suppressed by the open alert.
	*now = now.Add(10 * time.Second)
	second, err := g.OnStatusChange(ctx, change(domain.TierNormal, domain.TierWarning, *now))
	require.NoError(t, err)
	assert.Nil(t, second)

	// Past the window the flapping entity alerts again.
	*now = now.Add(40 * time.Second)
	third, err := g.OnStatusChange(ctx, change(domain.TierNormal, domain.TierWarning, *now))
	require.NoError(t, err)
	require.NotNil(t, third)
	assert.NotEqual(t, first.AlertID, third.AlertID)
}

func TestGenerator_EscalationAfterRecovery(t *testing.T) {
	g, store, now := newTestGenerator(t, 30*time.Second)
	ctx := context.Background()

	// warning → critical → recovery → critical again, each a window apart:
	// every upward leg alerts, the recovery does not.
	w, err := g.OnStatusChange(ctx, change(domain.TierNormal, domain.TierWarning, *now))
	require.NoError(t, err)
	require.NotNil(t, w)

	*now = now.Add(time.Minute)
	c1, err := g.OnStatusChange(ctx, change(domain.TierWarning, domain.TierCritical, *now))
	require.NoError(t, err)
	require.NotNil(t, c1)

	*now = now.Add(time.Minute)
	down, err := g.OnStatusChange(ctx, change(domain.TierCritical, domain.TierNormal, *now))
	require.NoError(t, err)
	assert.Nil(t, down)

	*now = now.Add(time.Minute)
	c2, err := g.OnStatusChange(ctx, change(domain.TierNormal, domain.TierCritical, *now))
	require.NoError(t, err)
	require.NotNil(t, c2)
	assert.NotEqual(t, c1.AlertID, c2.AlertID)

	alerts, total, err := store.ListAlerts(ctx, repository.AlertFilters{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, alerts, 3)
}

func TestGenerator_DistinctEntitiesDoNotDebounceEachOther(t *testing.T) {
	g, _, now := newTestGenerator(t, 30*time.Second)
	ctx := context.Background()

	first := change(domain.TierNormal, domain.TierWarning, *now)
	second := change(domain.TierNormal, domain.TierWarning, *now)
	second.SensorID = "sensor-2"

	a1, err := g.OnStatusChange(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, a1)

	a2, err := g.OnStatusChange(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, a2)
}

func TestGenerator_InvalidTier(t *testing.T) {
	g, _, now := newTestGenerator(t, 30*time.Second)

	bad := change(domain.TierNormal, domain.StatusTier(42), *now)
	_, err := g.OnStatusChange(context.Background(), bad)
	assert.Error(t, err)
}

// racingStore simulates losing the insert race: the open-alert check sees
// nothing, the insert hits the unique index.
type racingStore struct {
	created int
}

func (s *racingStore) CreateAlert(context.Context, *domain.Alert) error {
	s.created++
	return domain.ErrDuplicateOpenAlert
}

func (s *racingStore) LatestOpenAlert(context.Context, string, domain.StatusTier) (*domain.Alert, error) {
	return nil, domain.ErrNotFound
}

func TestGenerator_LostRaceIsNoOp(t *testing.T) {
	store := &racingStore{}
	g := NewGenerator(store, 30*time.Second, zap.NewNop())

	alert, err := g.OnStatusChange(context.Background(),
		change(domain.TierNormal, domain.TierCritical, time.Now()))
	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.Equal(t, 1, store.created)
}
