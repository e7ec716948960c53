package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

func newMinesRepo(t *testing.T) (*PostgresMinesRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresMinesRepository(db, zap.NewNop()), mock
}

func TestCreateSector_DuplicateLevel(t *testing.T) {
	repo, mock := newMinesRepo(t)

	mock.ExpectExec("INSERT INTO sectors").
		WithArgs("s2", "m1", "Level 3 again", 3, "active").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "sectors_mine_id_level_key"})

	err := repo.CreateSector(context.Background(), &domain.Sector{
		SectorID: "s2",
		MineID:   "m1",
		Name:     "Level 3 again",
		Level:    3,
		Status:   domain.MineActive,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSectorLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSector_OtherUniqueViolationPassesThrough(t *testing.T) {
	repo, mock := newMinesRepo(t)

	// A primary-key collision is not a level collision.
	mock.ExpectExec("INSERT INTO sectors").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "sectors_pkey"})

	err := repo.CreateSector(context.Background(), &domain.Sector{
		SectorID: "s1",
		MineID:   "m1",
		Name:     "Level 1",
		Level:    1,
		Status:   domain.MineActive,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateSectorLevel)
}

func TestUpdateSector_DuplicateLevel(t *testing.T) {
	repo, mock := newMinesRepo(t)

	mock.ExpectExec("UPDATE sectors").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "sectors_mine_id_level_key"})

	err := repo.UpdateSector(context.Background(), &domain.Sector{
		SectorID: "s1",
		MineID:   "m1",
		Name:     "Level 1",
		Level:    2,
		Status:   domain.MineActive,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSectorLevel)
}

func TestGetMine_NotFound(t *testing.T) {
	repo, mock := newMinesRepo(t)

	mock.ExpectQuery("FROM mines").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{
			"mine_id", "name", "location", "status", "latitude", "longitude", "depth_meters",
		}))

	_, err := repo.GetMine(context.Background(), "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateMineStatus(t *testing.T) {
	t.Run("zero rows means not found", func(t *testing.T) {
		repo, mock := newMinesRepo(t)
		mock.ExpectExec("UPDATE mines").
			WithArgs("gone", "maintenance").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateMineStatus(context.Background(), "gone", domain.MineMaintenance)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid status rejected before the query", func(t *testing.T) {
		repo, mock := newMinesRepo(t)

		err := repo.UpdateMineStatus(context.Background(), "m1", domain.MineStatus("haunted"))
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "no query should run")
	})
}

func TestCreateSensor_UnknownType(t *testing.T) {
	repo, _ := newMinesRepo(t)

	err := repo.CreateSensor(context.Background(), &domain.Sensor{
		SensorID: "x1",
		SectorID: "s1",
		Type:     domain.SensorType("barometric"),
		Status:   domain.SensorActive,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSensorType)
}
