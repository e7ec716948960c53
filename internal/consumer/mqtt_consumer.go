package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	mqttcommon "github.com/Udenis123/Minining-monitoring-System-sub000/internal/mqtt"
)

// ReadingEvaluator is the evaluation pipeline the consumer feeds. Satisfied
// by evaluator.Evaluator.
type ReadingEvaluator interface {
	EvaluateReading(ctx context.Context, reading domain.Reading) ([]*domain.Alert, error)
}

// readingMessage is the wire format on the reading topic. Both real
// ingestion bridges and the simulator publish it; the core cannot tell the
// difference, by contract.
type readingMessage struct {
	SensorID  string  `json:"sensor_id"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"` // unix seconds, 0 means "now"
}

// MQTTConsumer subscribes to the reading topic and drives the evaluation
// pipeline for every message.
type MQTTConsumer struct {
	config       *config.Config
	mqttClient   *mqttcommon.Client
	cacheManager *CacheManager
	evaluator    ReadingEvaluator
	logger       *zap.Logger
}

// NewMQTTConsumer creates the consumer.
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient *mqttcommon.Client,
	cacheManager *CacheManager,
	evaluator ReadingEvaluator,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:       cfg,
		mqttClient:   mqttClient,
		cacheManager: cacheManager,
		evaluator:    evaluator,
		logger:       logger,
	}
}

// Start subscribes and blocks until the context is cancelled.
func (c *MQTTConsumer) Start(ctx context.Context) error {
	topic := c.config.Monitor.ReadingTopic
	if topic == "" {
		return fmt.Errorf("reading MQTT topic not configured")
	}

	if err := c.mqttClient.Subscribe(topic, c.config.MQTT.QoS, func(topic string, payload []byte) error {
		return c.handleMessage(ctx, topic, payload)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to reading topic: %w", err)
	}

	c.logger.Info("MQTT consumer started", zap.String("topic", topic))

	<-ctx.Done()
	return nil
}

// Stop unsubscribes.
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	topic := c.config.Monitor.ReadingTopic
	if topic != "" {
		if err := c.mqttClient.Unsubscribe(topic); err != nil {
			c.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage processes one MQTT message: a single reading object or an
// array of them.
func (c *MQTTConsumer) handleMessage(ctx context.Context, topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	var messages []readingMessage
	if err := json.Unmarshal(payload, &messages); err != nil {
		var single readingMessage
		if err := json.Unmarshal(payload, &single); err != nil {
			return fmt.Errorf("failed to parse reading message: %w", err)
		}
		messages = []readingMessage{single}
	}

	for _, msg := range messages {
		if msg.SensorID == "" {
			c.logger.Warn("Dropping reading without sensor_id")
			continue
		}

		reading := domain.Reading{
			SensorID:  msg.SensorID,
			Value:     msg.Value,
			Timestamp: time.Unix(msg.Timestamp, 0),
		}
		if msg.Timestamp == 0 {
			reading.Timestamp = time.Now()
		}

		if err := c.cacheManager.SetLatestReading(ctx, reading); err != nil {
			c.logger.Error("Failed to cache reading",
				zap.String("sensor_id", reading.SensorID),
				zap.Error(err),
			)
			// The evaluation still runs, the cache is a convenience view.
		}

		alerts, err := c.evaluator.EvaluateReading(ctx, reading)
		if err != nil {
			c.logger.Error("Failed to evaluate reading",
				zap.String("sensor_id", reading.SensorID),
				zap.Float64("value", reading.Value),
				zap.Error(err),
			)
			continue
		}
		for _, alert := range alerts {
			c.logger.Info("Alert generated",
				zap.String("alert_id", alert.AlertID),
				zap.String("tier", alert.Tier.String()),
				zap.String("entity", alert.EntityKey()),
			)
		}
	}

	return nil
}
