package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	mqttcommon "github.com/Udenis123/Minining-monitoring-System-sub000/internal/mqtt"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// typeProfile drives the random walk for one sensor type: where readings
// hover, how far one step may move, and where a spike lands.
type typeProfile struct {
	baseline float64
	step     float64
	spike    float64
}

var profiles = map[domain.SensorType]typeProfile{
	domain.SensorGas:         {baseline: 20, step: 4, spike: 120},
	domain.SensorTemperature: {baseline: 25, step: 1.5, spike: 50},
	domain.SensorSeismic:     {baseline: 1, step: 0.5, spike: 9},
	domain.SensorStrain:      {baseline: 80, step: 8, spike: 280},
	domain.SensorGeological:  {baseline: 150, step: 15, spike: 550},
}

// Simulator publishes synthetic readings for every active sensor over the
// same topic real ingestion uses. The monitor cannot tell it from a real
// feed; it exists to exercise the evaluation path end to end.
type Simulator struct {
	config     *config.Config
	mqttClient *mqttcommon.Client
	minesRepo  repository.MinesRepository
	logger     *zap.Logger
	rng        *rand.Rand

	values map[string]float64 // sensorID → last published value
}

// New creates a simulator.
func New(cfg *config.Config, mqttClient *mqttcommon.Client, minesRepo repository.MinesRepository, logger *zap.Logger) *Simulator {
	return &Simulator{
		config:     cfg,
		mqttClient: mqttClient,
		minesRepo:  minesRepo,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		values:     make(map[string]float64),
	}
}

// Run publishes one batch per interval until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	sensors, err := s.loadActiveSensors(ctx)
	if err != nil {
		return err
	}
	if len(sensors) == 0 {
		return fmt.Errorf("no active sensors to simulate")
	}

	s.logger.Info("Simulator started",
		zap.Int("sensors", len(sensors)),
		zap.Duration("interval", s.config.Simulator.Interval),
	)

	ticker := time.NewTicker(s.config.Simulator.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Simulator stopped")
			return nil
		case <-ticker.C:
			if err := s.publishBatch(sensors); err != nil {
				s.logger.Error("Failed to publish batch", zap.Error(err))
			}
		}
	}
}

func (s *Simulator) loadActiveSensors(ctx context.Context) ([]domain.Sensor, error) {
	mines, err := s.minesRepo.ListMines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mines: %w", err)
	}

	var sensors []domain.Sensor
	for _, mine := range mines {
		sectors, err := s.minesRepo.ListSectors(ctx, mine.MineID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sectors: %w", err)
		}
		for _, sector := range sectors {
			found, err := s.minesRepo.ListSensorsBySector(ctx, sector.SectorID)
			if err != nil {
				return nil, fmt.Errorf("failed to list sensors: %w", err)
			}
			for _, sensor := range found {
				if sensor.Status == domain.SensorActive {
					sensors = append(sensors, sensor)
				}
			}
		}
	}
	return sensors, nil
}

type readingMessage struct {
	SensorID  string  `json:"sensor_id"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
}

func (s *Simulator) publishBatch(sensors []domain.Sensor) error {
	now := time.Now().Unix()
	batch := make([]readingMessage, 0, len(sensors))
	for _, sensor := range sensors {
		batch = append(batch, readingMessage{
			SensorID:  sensor.SensorID,
			Value:     s.nextValue(sensor),
			Timestamp: now,
		})
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	if err := s.mqttClient.Publish(s.config.Monitor.ReadingTopic, s.config.MQTT.QoS, false, payload); err != nil {
		return err
	}

	s.logger.Debug("Published reading batch", zap.Int("count", len(batch)))
	return nil
}

// nextValue takes one random-walk step for the sensor, occasionally spiking
// past the critical bound.
func (s *Simulator) nextValue(sensor domain.Sensor) float64 {
	profile, ok := profiles[sensor.Type]
	if !ok {
		profile = typeProfile{baseline: 10, step: 1, spike: 100}
	}

	if s.rng.Intn(100) < s.config.Simulator.SpikePercent {
		return profile.spike + s.rng.Float64()*profile.step
	}

	last, ok := s.values[sensor.SensorID]
	if !ok {
		last = profile.baseline
	}

	next := last + (s.rng.Float64()*2-1)*profile.step
	if next < 0 {
		next = 0
	}
	// Drift back toward the baseline so spikes recover on their own.
	next += (profile.baseline - next) * 0.1

	s.values[sensor.SensorID] = next
	return next
}
