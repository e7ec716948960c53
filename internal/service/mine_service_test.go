package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/evaluator"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// recordingMines accepts every write and remembers the last sector it was
// handed, so tests can assert on what actually reaches the repository.
type recordingMines struct {
	lastSector *domain.Sector
}

var _ repository.MinesRepository = (*recordingMines)(nil)

func (f *recordingMines) GetMine(_ context.Context, id string) (*domain.Mine, error) {
	return &domain.Mine{MineID: id, Name: "Northern Ridge", Status: domain.MineActive}, nil
}

func (f *recordingMines) GetSector(_ context.Context, id string) (*domain.Sector, error) {
	return &domain.Sector{SectorID: id, MineID: "m1", Name: "Level 1", Level: 1, Status: domain.MineActive}, nil
}

func (f *recordingMines) CreateSector(_ context.Context, sector *domain.Sector) error {
	f.lastSector = sector
	return nil
}

func (f *recordingMines) UpdateSector(_ context.Context, sector *domain.Sector) error {
	f.lastSector = sector
	return nil
}

func (f *recordingMines) ListMines(context.Context) ([]domain.Mine, error) { return nil, nil }
func (f *recordingMines) LoadMineHierarchy(context.Context, string) (*domain.Mine, error) {
	return nil, domain.ErrNotFound
}
func (f *recordingMines) CreateMine(context.Context, *domain.Mine) error { return nil }
func (f *recordingMines) UpdateMineStatus(context.Context, string, domain.MineStatus) error {
	return nil
}
func (f *recordingMines) DeleteMine(context.Context, string) error { return nil }
func (f *recordingMines) ListSectors(context.Context, string) ([]domain.Sector, error) {
	return nil, nil
}
func (f *recordingMines) GetSensor(context.Context, string) (*domain.Sensor, error) {
	return nil, domain.ErrNotFound
}
func (f *recordingMines) ListSensorsBySector(context.Context, string) ([]domain.Sensor, error) {
	return nil, nil
}
func (f *recordingMines) CreateSensor(context.Context, *domain.Sensor) error { return nil }
func (f *recordingMines) UpdateSensorStatus(context.Context, string, domain.SensorStatus) error {
	return nil
}

func newTestMineService(t *testing.T) (*MineService, *recordingMines) {
	t.Helper()
	mines := &recordingMines{}
	svc := NewMineService(mines, repository.NewMemoryAlertsRepo(), evaluator.NewMemoryBaselines(), zap.NewNop())
	return svc, mines
}

func TestCreateSector_StatusValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown status rejected", func(t *testing.T) {
		svc, mines := newTestMineService(t)

		_, err := svc.CreateSector(ctx, domain.Sector{
			MineID: "m1",
			Name:   "Level 2",
			Level:  2,
			Status: domain.MineStatus("exploded"),
		})
		require.Error(t, err)
		assert.Nil(t, mines.lastSector, "invalid sector must not reach the repository")
	})

	t.Run("empty status defaults to active", func(t *testing.T) {
		svc, mines := newTestMineService(t)

		sector, err := svc.CreateSector(ctx, domain.Sector{MineID: "m1", Name: "Level 2", Level: 2})
		require.NoError(t, err)
		assert.Equal(t, domain.MineActive, sector.Status)
		require.NotNil(t, mines.lastSector)
		assert.Equal(t, domain.MineActive, mines.lastSector.Status)
	})
}

func TestUpdateSector_StatusValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown status rejected", func(t *testing.T) {
		svc, mines := newTestMineService(t)

		err := svc.UpdateSector(ctx, domain.Sector{
			SectorID: "s1",
			MineID:   "m1",
			Name:     "Level 1",
			Level:    1,
			Status:   domain.MineStatus("exploded"),
		})
		require.Error(t, err)
		assert.Nil(t, mines.lastSector)
	})

	t.Run("empty status rejected", func(t *testing.T) {
		svc, mines := newTestMineService(t)

		err := svc.UpdateSector(ctx, domain.Sector{SectorID: "s1", MineID: "m1", Name: "Level 1"})
		require.Error(t, err)
		assert.Nil(t, mines.lastSector)
	})

	t.Run("valid update passes through", func(t *testing.T) {
		svc, mines := newTestMineService(t)

		err := svc.UpdateSector(ctx, domain.Sector{
			SectorID: "s1",
			MineID:   "m1",
			Name:     "Level 1",
			Level:    1,
			Status:   domain.MineMaintenance,
		})
		require.NoError(t, err)
		require.NotNil(t, mines.lastSector)
		assert.Equal(t, domain.MineMaintenance, mines.lastSector.Status)
	})
}
