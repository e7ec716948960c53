package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

func newAlertsRepo(t *testing.T) (*PostgresAlertsRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresAlertsRepository(db, zap.NewNop()), mock
}

func testAlert() *domain.Alert {
	return &domain.Alert{
		AlertID:        "a1",
		Category:       domain.AlertThreshold,
		Tier:           domain.TierCritical,
		Message:        "gas 120.0 PPM",
		Location:       "Northern Ridge / Level 2",
		MineID:         "m1",
		SectorID:       "s1",
		SensorID:       "g1",
		CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		DebounceBucket: 59706720,
	}
}

func TestCreateAlert_LostRace(t *testing.T) {
	repo, mock := newAlertsRepo(t)

	mock.ExpectExec("INSERT INTO alerts").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "alerts_open_entity_tier_idx"})

	err := repo.CreateAlert(context.Background(), testAlert())
	assert.ErrorIs(t, err, domain.ErrDuplicateOpenAlert)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAlert_Inserts(t *testing.T) {
	repo, mock := newAlertsRepo(t)
	alert := testAlert()

	mock.ExpectExec("INSERT INTO alerts").
		WithArgs(
			alert.AlertID, "threshold", "critical", alert.Message, alert.Location,
			alert.MineID, alert.SectorID, alert.SensorID, "sensor:g1",
			alert.CreatedAt, alert.DebounceBucket,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateAlert(context.Background(), alert))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeAlert(t *testing.T) {
	t.Run("first acknowledgement wins", func(t *testing.T) {
		repo, mock := newAlertsRepo(t)
		mock.ExpectExec("UPDATE alerts").
			WithArgs("a1", "u1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		acked, err := repo.AcknowledgeAlert(context.Background(), "a1", "u1")
		require.NoError(t, err)
		assert.True(t, acked)
	})

	t.Run("repeat acknowledgement is a no-op", func(t *testing.T) {
		repo, mock := newAlertsRepo(t)
		mock.ExpectExec("UPDATE alerts").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		acked, err := repo.AcknowledgeAlert(context.Background(), "a1", "u1")
		require.NoError(t, err)
		assert.False(t, acked)
	})

	t.Run("unknown alert", func(t *testing.T) {
		repo, mock := newAlertsRepo(t)
		mock.ExpectExec("UPDATE alerts").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("gone").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.AcknowledgeAlert(context.Background(), "gone", "u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLatestOpenAlert_NotFound(t *testing.T) {
	repo, mock := newAlertsRepo(t)

	mock.ExpectQuery("FROM alerts").
		WithArgs("sensor:g1", "warning").
		WillReturnRows(sqlmock.NewRows([]string{"alert_id"}))

	_, err := repo.LatestOpenAlert(context.Background(), "sensor:g1", domain.TierWarning)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAlerts_Filters(t *testing.T) {
	repo, mock := newAlertsRepo(t)

	mineID := "m1"
	acked := false
	filters := AlertFilters{MineID: &mineID, Acknowledged: &acked}

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(mineID, acked).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM alerts").
		WithArgs(mineID, acked, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"alert_id", "category", "tier", "message", "location",
			"mine_id", "sector_id", "sensor_id", "created_at",
			"acknowledged", "acknowledged_by", "acknowledged_at",
		}).AddRow(
			"a1", "threshold", "critical", "gas 120.0 PPM", "Northern Ridge / Level 2",
			"m1", "s1", "g1", created, false, nil, nil,
		))

	alerts, total, err := repo.ListAlerts(context.Background(), filters, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, alerts, 1)
	assert.Equal(t, "a1", alerts[0].AlertID)
	assert.Equal(t, domain.TierCritical, alerts[0].Tier)
	assert.False(t, alerts[0].Acknowledged)
	assert.Nil(t, alerts[0].AcknowledgedBy)
}
