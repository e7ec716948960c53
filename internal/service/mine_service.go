package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/evaluator"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// SectorStatus pairs a sector with its current derived tier.
type SectorStatus struct {
	Sector domain.Sector     `json:"sector"`
	Tier   domain.StatusTier `json:"tier"`
}

// MineStatus is the dashboard view of one mine: the derived tier plus the
// per-sector breakdown and the open alert count.
type MineStatus struct {
	Mine       domain.Mine       `json:"mine"`
	Tier       domain.StatusTier `json:"tier"`
	Sectors    []SectorStatus    `json:"sectors"`
	OpenAlerts int               `json:"open_alerts"`
}

// MineService manages the mine → sector → sensor hierarchy and answers
// status queries by reading the tier baselines the monitor maintains.
type MineService struct {
	minesRepo  repository.MinesRepository
	alertsRepo repository.AlertsRepository
	baselines  evaluator.BaselineStore
	logger     *zap.Logger
}

// NewMineService creates the mine service.
func NewMineService(
	minesRepo repository.MinesRepository,
	alertsRepo repository.AlertsRepository,
	baselines evaluator.BaselineStore,
	logger *zap.Logger,
) *MineService {
	return &MineService{
		minesRepo:  minesRepo,
		alertsRepo: alertsRepo,
		baselines:  baselines,
		logger:     logger,
	}
}

// ============================================
// Hierarchy management
// ============================================

// ListMines returns every mine.
func (s *MineService) ListMines(ctx context.Context) ([]domain.Mine, error) {
	mines, err := s.minesRepo.ListMines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mines: %w", err)
	}
	return mines, nil
}

// GetMineHierarchy returns a mine with sectors and sensors attached.
func (s *MineService) GetMineHierarchy(ctx context.Context, mineID string) (*domain.Mine, error) {
	if mineID == "" {
		return nil, fmt.Errorf("mine_id is required")
	}
	mine, err := s.minesRepo.LoadMineHierarchy(ctx, mineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mine hierarchy: %w", err)
	}
	return mine, nil
}

// CreateMine validates and persists a new mine.
func (s *MineService) CreateMine(ctx context.Context, mine domain.Mine) (*domain.Mine, error) {
	mine.Name = strings.TrimSpace(mine.Name)
	if mine.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if mine.Status == "" {
		mine.Status = domain.MineActive
	}
	if !mine.Status.Valid() {
		return nil, fmt.Errorf("invalid mine status: %q", mine.Status)
	}

	mine.MineID = uuid.New().String()
	if err := s.minesRepo.CreateMine(ctx, &mine); err != nil {
		return nil, fmt.Errorf("failed to create mine: %w", err)
	}

	s.logger.Info("Mine created",
		zap.String("mine_id", mine.MineID),
		zap.String("name", mine.Name),
	)
	return &mine, nil
}

// UpdateMineStatus sets a mine's operational status.
func (s *MineService) UpdateMineStatus(ctx context.Context, mineID string, status domain.MineStatus) error {
	if err := s.minesRepo.UpdateMineStatus(ctx, mineID, status); err != nil {
		return fmt.Errorf("failed to update mine status: %w", err)
	}
	return nil
}

// DeleteMine removes a mine and everything under it.
func (s *MineService) DeleteMine(ctx context.Context, mineID string) error {
	if err := s.minesRepo.DeleteMine(ctx, mineID); err != nil {
		return fmt.Errorf("failed to delete mine: %w", err)
	}
	return nil
}

// CreateSector validates and persists a new sector. A level collision
// within the mine surfaces as domain.ErrDuplicateSectorLevel; the same
// level in a different mine is fine.
func (s *MineService) CreateSector(ctx context.Context, sector domain.Sector) (*domain.Sector, error) {
	sector.Name = strings.TrimSpace(sector.Name)
	if sector.MineID == "" || sector.Name == "" {
		return nil, fmt.Errorf("mine_id and name are required")
	}
	if sector.Level < 0 {
		return nil, fmt.Errorf("level must be non-negative")
	}
	if sector.Status == "" {
		sector.Status = domain.MineActive
	}
	if !sector.Status.Valid() {
		return nil, fmt.Errorf("invalid sector status: %q", sector.Status)
	}

	// The mine must exist; a missing mine is a validation failure here,
	// not a bare foreign key error.
	if _, err := s.minesRepo.GetMine(ctx, sector.MineID); err != nil {
		return nil, fmt.Errorf("failed to resolve mine: %w", err)
	}

	sector.SectorID = uuid.New().String()
	if err := s.minesRepo.CreateSector(ctx, &sector); err != nil {
		return nil, err
	}

	s.logger.Info("Sector created",
		zap.String("sector_id", sector.SectorID),
		zap.String("mine_id", sector.MineID),
		zap.Int("level", sector.Level),
	)
	return &sector, nil
}

// GetSector returns one sector.
func (s *MineService) GetSector(ctx context.Context, sectorID string) (*domain.Sector, error) {
	if sectorID == "" {
		return nil, fmt.Errorf("sector_id is required")
	}
	sector, err := s.minesRepo.GetSector(ctx, sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sector: %w", err)
	}
	return sector, nil
}

// UpdateSector updates a sector; level collisions surface as
// domain.ErrDuplicateSectorLevel.
func (s *MineService) UpdateSector(ctx context.Context, sector domain.Sector) error {
	if sector.SectorID == "" {
		return fmt.Errorf("sector_id is required")
	}
	if !sector.Status.Valid() {
		return fmt.Errorf("invalid sector status: %q", sector.Status)
	}
	return s.minesRepo.UpdateSector(ctx, &sector)
}

// CreateSensor validates and persists a new sensor.
func (s *MineService) CreateSensor(ctx context.Context, sensor domain.Sensor) (*domain.Sensor, error) {
	if sensor.SectorID == "" {
		return nil, fmt.Errorf("sector_id is required")
	}
	if !sensor.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSensorType, sensor.Type)
	}
	if sensor.Status == "" {
		sensor.Status = domain.SensorActive
	}

	if _, err := s.minesRepo.GetSector(ctx, sensor.SectorID); err != nil {
		return nil, fmt.Errorf("failed to resolve sector: %w", err)
	}

	sensor.SensorID = uuid.New().String()
	if err := s.minesRepo.CreateSensor(ctx, &sensor); err != nil {
		return nil, fmt.Errorf("failed to create sensor: %w", err)
	}
	return &sensor, nil
}

// GetSensor returns one sensor.
func (s *MineService) GetSensor(ctx context.Context, sensorID string) (*domain.Sensor, error) {
	if sensorID == "" {
		return nil, fmt.Errorf("sensor_id is required")
	}
	sensor, err := s.minesRepo.GetSensor(ctx, sensorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sensor: %w", err)
	}
	return sensor, nil
}

// ListSectorSensors returns a sector's sensors.
func (s *MineService) ListSectorSensors(ctx context.Context, sectorID string) ([]domain.Sensor, error) {
	sensors, err := s.minesRepo.ListSensorsBySector(ctx, sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	return sensors, nil
}

// UpdateSensorStatus sets a sensor's lifecycle status.
func (s *MineService) UpdateSensorStatus(ctx context.Context, sensorID string, status domain.SensorStatus) error {
	if err := s.minesRepo.UpdateSensorStatus(ctx, sensorID, status); err != nil {
		return fmt.Errorf("failed to update sensor status: %w", err)
	}
	return nil
}

// ============================================
// Status queries
// ============================================

// GetMineStatus derives the current dashboard status for one mine from the
// stored baselines. Sectors with no data yet read as normal.
func (s *MineService) GetMineStatus(ctx context.Context, mineID string) (*MineStatus, error) {
	mine, err := s.minesRepo.GetMine(ctx, mineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mine: %w", err)
	}

	sectors, err := s.minesRepo.ListSectors(ctx, mineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}

	status := &MineStatus{Mine: *mine}
	tiers := make([]domain.StatusTier, 0, len(sectors))
	for _, sector := range sectors {
		tier, _, err := s.baselines.PreviousTier(ctx, "sector:"+sector.SectorID)
		if err != nil {
			return nil, err
		}
		status.Sectors = append(status.Sectors, SectorStatus{Sector: sector, Tier: tier})
		tiers = append(tiers, tier)
	}
	status.Tier = evaluator.Aggregate(tiers)

	openAlerts, err := s.alertsRepo.CountOpenAlerts(ctx, mineID)
	if err != nil {
		return nil, err
	}
	status.OpenAlerts = openAlerts

	return status, nil
}

// GetSectorTier returns the current derived tier for one sector.
func (s *MineService) GetSectorTier(ctx context.Context, sectorID string) (domain.StatusTier, error) {
	if sectorID == "" {
		return domain.TierNormal, fmt.Errorf("sector_id is required")
	}
	tier, _, err := s.baselines.PreviousTier(ctx, "sector:"+sectorID)
	return tier, err
}
