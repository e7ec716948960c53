package evaluator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/alerting"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// BaselineStore holds the last derived tier per entity, the "previous" side
// of the next transition. Implemented by consumer.CacheManager (redis) and
// by MemoryBaselines in tests.
type BaselineStore interface {
	PreviousTier(ctx context.Context, entityKey string) (domain.StatusTier, bool, error)
	SetTier(ctx context.Context, entityKey string, tier domain.StatusTier) error
}

// Evaluator runs the full derivation for one reading: threshold → sensor
// tier → sector aggregate → mine aggregate, feeding every upward transition
// to the alert generator. It owns no state of its own; baselines live in
// the BaselineStore so concurrent monitor instances share one view.
type Evaluator struct {
	thresholds *ThresholdEvaluator
	mines      repository.MinesRepository
	baselines  BaselineStore
	generator  *alerting.Generator
	logger     *zap.Logger
}

// NewEvaluator wires the evaluation pipeline.
func NewEvaluator(
	thresholds *ThresholdEvaluator,
	mines repository.MinesRepository,
	baselines BaselineStore,
	generator *alerting.Generator,
	logger *zap.Logger,
) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		mines:      mines,
		baselines:  baselines,
		generator:  generator,
		logger:     logger,
	}
}

// EvaluateReading processes one reading and returns any alerts created at
// the sensor, sector or mine level. Readings from sensors that are not
// active are ignored: a sensor under maintenance must not page anyone.
func (e *Evaluator) EvaluateReading(ctx context.Context, reading domain.Reading) ([]*domain.Alert, error) {
	sensor, err := e.mines.GetSensor(ctx, reading.SensorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sensor: %w", err)
	}
	if sensor.Status != domain.SensorActive {
		e.logger.Debug("Skipping reading from non-active sensor",
			zap.String("sensor_id", sensor.SensorID),
			zap.String("status", string(sensor.Status)),
		)
		return nil, nil
	}

	sector, err := e.mines.GetSector(ctx, sensor.SectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sector: %w", err)
	}
	mine, err := e.mines.GetMine(ctx, sector.MineID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mine: %w", err)
	}

	tier, err := e.thresholds.Evaluate(sensor.Type, reading.Value)
	if err != nil {
		return nil, err
	}

	var alerts []*domain.Alert

	// Sensor level.
	detail := fmt.Sprintf("%s %.1f %s", sensor.Type, reading.Value, sensor.Type.Unit())
	if bounds, ok := e.thresholds.Bounds(sensor.Type); ok {
		detail = fmt.Sprintf("%s (warning ≥ %.1f, critical ≥ %.1f)", detail, bounds.Warning, bounds.Critical)
	}
	alert, err := e.transition(ctx, alerting.StatusChange{
		MineID:     mine.MineID,
		SectorID:   sector.SectorID,
		SensorID:   sensor.SensorID,
		Location:   sensor.Location,
		Detail:     detail,
		ObservedAt: reading.Timestamp,
	}, "sensor:"+sensor.SensorID, tier)
	if err != nil {
		return alerts, err
	}
	if alert != nil {
		alerts = append(alerts, alert)
	}

	// Sector level: worst tier across the sector's active sensors.
	sectorTier, err := e.aggregateSector(ctx, sector, sensor.SensorID, tier)
	if err != nil {
		return alerts, err
	}
	alert, err = e.transition(ctx, alerting.StatusChange{
		MineID:     mine.MineID,
		SectorID:   sector.SectorID,
		Location:   fmt.Sprintf("%s / %s (level %d)", mine.Name, sector.Name, sector.Level),
		Detail:     fmt.Sprintf("worst sensor tier is %s", sectorTier),
		ObservedAt: reading.Timestamp,
	}, "sector:"+sector.SectorID, sectorTier)
	if err != nil {
		return alerts, err
	}
	if alert != nil {
		alerts = append(alerts, alert)
	}

	// Mine level: worst tier across the mine's sectors.
	mineTier, err := e.aggregateMine(ctx, mine.MineID, sector.SectorID, sectorTier)
	if err != nil {
		return alerts, err
	}
	alert, err = e.transition(ctx, alerting.StatusChange{
		MineID:     mine.MineID,
		Location:   mine.Name,
		Detail:     fmt.Sprintf("worst sector tier is %s", mineTier),
		ObservedAt: reading.Timestamp,
	}, "mine:"+mine.MineID, mineTier)
	if err != nil {
		return alerts, err
	}
	if alert != nil {
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// transition compares the new tier against the stored baseline, asks the
// generator about it, and moves the baseline. The baseline moves on every
// change, downward ones included, so recovery re-arms future alerts.
func (e *Evaluator) transition(ctx context.Context, change alerting.StatusChange, entityKey string, tier domain.StatusTier) (*domain.Alert, error) {
	previous, _, err := e.baselines.PreviousTier(ctx, entityKey)
	if err != nil {
		return nil, err
	}

	change.Previous = previous
	change.Current = tier

	alert, err := e.generator.OnStatusChange(ctx, change)
	if err != nil {
		return nil, err
	}

	if tier != previous {
		if err := e.baselines.SetTier(ctx, entityKey, tier); err != nil {
			return alert, err
		}
	}
	return alert, nil
}

// aggregateSector folds the baseline tiers of the sector's active sensors,
// substituting the just-evaluated tier for the current sensor.
func (e *Evaluator) aggregateSector(ctx context.Context, sector *domain.Sector, currentSensorID string, currentTier domain.StatusTier) (domain.StatusTier, error) {
	sensors, err := e.mines.ListSensorsBySector(ctx, sector.SectorID)
	if err != nil {
		return domain.TierNormal, fmt.Errorf("failed to list sector sensors: %w", err)
	}

	aggregate := domain.TierNormal
	for _, s := range sensors {
		if s.Status != domain.SensorActive {
			continue
		}
		if s.SensorID == currentSensorID {
			aggregate = Combine(aggregate, currentTier)
			continue
		}
		tier, _, err := e.baselines.PreviousTier(ctx, "sensor:"+s.SensorID)
		if err != nil {
			return domain.TierNormal, err
		}
		aggregate = Combine(aggregate, tier)
	}
	return aggregate, nil
}

// aggregateMine folds the baseline tiers of the mine's sectors,
// substituting the freshly aggregated tier for the current sector.
func (e *Evaluator) aggregateMine(ctx context.Context, mineID, currentSectorID string, currentTier domain.StatusTier) (domain.StatusTier, error) {
	sectors, err := e.mines.ListSectors(ctx, mineID)
	if err != nil {
		return domain.TierNormal, fmt.Errorf("failed to list mine sectors: %w", err)
	}

	aggregate := domain.TierNormal
	for _, s := range sectors {
		if s.SectorID == currentSectorID {
			aggregate = Combine(aggregate, currentTier)
			continue
		}
		tier, _, err := e.baselines.PreviousTier(ctx, "sector:"+s.SectorID)
		if err != nil {
			return domain.TierNormal, err
		}
		aggregate = Combine(aggregate, tier)
	}
	return aggregate, nil
}

// MemoryBaselines is a map-backed BaselineStore for tests and single
// process demo runs.
type MemoryBaselines struct {
	mu    sync.RWMutex
	tiers map[string]domain.StatusTier
}

// NewMemoryBaselines creates an empty baseline store.
func NewMemoryBaselines() *MemoryBaselines {
	return &MemoryBaselines{tiers: map[string]domain.StatusTier{}}
}

var _ BaselineStore = (*MemoryBaselines)(nil)

// PreviousTier returns the stored tier, or (normal, false) when unset.
func (m *MemoryBaselines) PreviousTier(_ context.Context, entityKey string) (domain.StatusTier, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tier, ok := m.tiers[entityKey]
	if !ok {
		return domain.TierNormal, false, nil
	}
	return tier, true, nil
}

// SetTier stores the tier.
func (m *MemoryBaselines) SetTier(_ context.Context, entityKey string, tier domain.StatusTier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[entityKey] = tier
	return nil
}
