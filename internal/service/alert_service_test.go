package service

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

func seedAlert(t *testing.T, store *repository.MemoryAlertsRepo, id string, tier domain.StatusTier, createdAt time.Time) {
	t.Helper()
	require.NoError(t, store.CreateAlert(context.Background(), &domain.Alert{
		AlertID:        id,
		Category:       domain.AlertThreshold,
		Tier:           tier,
		Message:        "gas 120.0 PPM",
		Location:       "Northern Ridge / Level 2",
		MineID:         "m1",
		SectorID:       "s1",
		SensorID:       "g-" + id,
		CreatedAt:      createdAt,
		DebounceBucket: createdAt.Unix() / 30,
	}))
}

func TestAcknowledgeAlert_Idempotent(t *testing.T) {
	store := repository.NewMemoryAlertsRepo()
	svc := NewAlertService(store, zap.NewNop())
	ctx := context.Background()

	seedAlert(t, store, "a1", domain.TierCritical, time.Now())

	require.NoError(t, svc.AcknowledgeAlert(ctx, "a1", "u1"))

	first, err := svc.GetAlert(ctx, "a1")
	require.NoError(t, err)
	require.True(t, first.Acknowledged)
	require.NotNil(t, first.AcknowledgedBy)
	assert.Equal(t, "u1", *first.AcknowledgedBy)
	require.NotNil(t, first.AcknowledgedAt)

	// A second acknowledgement, even by another user, changes nothing.
	require.NoError(t, svc.AcknowledgeAlert(ctx, "a1", "u2"))

	repeat, err := svc.GetAlert(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", *repeat.AcknowledgedBy)
	assert.True(t, repeat.AcknowledgedAt.Equal(*first.AcknowledgedAt))
}

func TestAcknowledgeAlert_Unknown(t *testing.T) {
	svc := NewAlertService(repository.NewMemoryAlertsRepo(), zap.NewNop())

	err := svc.AcknowledgeAlert(context.Background(), "gone", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAlerts_PagingAndOrder(t *testing.T) {
	store := repository.NewMemoryAlertsRepo()
	svc := NewAlertService(store, zap.NewNop())
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedAlert(t, store, "a1", domain.TierWarning, base)
	seedAlert(t, store, "a2", domain.TierWarning, base.Add(time.Minute))
	seedAlert(t, store, "a3", domain.TierCritical, base.Add(2*time.Minute))

	page, total, err := svc.ListAlerts(ctx, repository.AlertFilters{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "a3", page[0].AlertID, "newest first")
	assert.Equal(t, "a2", page[1].AlertID)

	tier := domain.TierCritical
	onlyCritical, total, err := svc.ListAlerts(ctx, repository.AlertFilters{Tier: &tier}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, onlyCritical, 1)
	assert.Equal(t, "a3", onlyCritical[0].AlertID)
}
