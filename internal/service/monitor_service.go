package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/alerting"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/consumer"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/database"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/evaluator"
	mqttcommon "github.com/Udenis123/Minining-monitoring-System-sub000/internal/mqtt"
	rediscommon "github.com/Udenis123/Minining-monitoring-System-sub000/internal/redis"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// MonitorService assembles the reading pipeline for the monitor binary:
// MQTT in, threshold evaluation, status aggregation, alert generation, and
// webhook delivery of critical alerts.
type MonitorService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *rediscommon.Client
	mqttClient  *mqttcommon.Client
	logger      *zap.Logger

	cacheManager *consumer.CacheManager
	mqttConsumer *consumer.MQTTConsumer
	minesRepo    *repository.PostgresMinesRepository
	alertsRepo   *repository.PostgresAlertsRepository
	evaluator    *evaluator.Evaluator
	notifier     *WebhookNotifier
}

// NewMonitorService connects the infrastructure and wires every layer.
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT)
	if err != nil {
		database.Close(db)
		rediscommon.Close(redisClient)
		return nil, err
	}

	thresholds := config.DefaultThresholds()
	if cfg.Monitor.ThresholdsFile != "" {
		thresholds, err = config.LoadThresholds(cfg.Monitor.ThresholdsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load thresholds: %w", err)
		}
	}
	thresholdEval, err := evaluator.NewThresholdEvaluator(thresholds)
	if err != nil {
		return nil, err
	}

	minesRepo := repository.NewPostgresMinesRepository(db, logger)
	alertsRepo := repository.NewPostgresAlertsRepository(db, logger)

	cacheManager := consumer.NewCacheManager(cfg, redisClient, logger)
	generator := alerting.NewGenerator(alertsRepo, cfg.Monitor.DebounceWindow, logger)
	eval := evaluator.NewEvaluator(thresholdEval, minesRepo, cacheManager, generator, logger)

	notifier := NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout, logger)

	pipeline := consumer.ReadingEvaluator(eval)
	if notifier.Enabled() {
		pipeline = &notifyingEvaluator{inner: eval, notifier: notifier}
	}
	mqttConsumer := consumer.NewMQTTConsumer(cfg, mqttClient, cacheManager, pipeline, logger)

	return &MonitorService{
		config:       cfg,
		db:           db,
		redisClient:  redisClient,
		mqttClient:   mqttClient,
		logger:       logger,
		cacheManager: cacheManager,
		mqttConsumer: mqttConsumer,
		minesRepo:    minesRepo,
		alertsRepo:   alertsRepo,
		evaluator:    eval,
		notifier:     notifier,
	}, nil
}

// Start runs the consumer until the context is cancelled.
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting monitor service",
		zap.String("reading_topic", s.config.Monitor.ReadingTopic),
		zap.Duration("debounce_window", s.config.Monitor.DebounceWindow),
		zap.Bool("webhook_enabled", s.notifier.Enabled()),
	)

	if err := s.mqttConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MQTT consumer: %w", err)
	}
	return nil
}

// Stop tears everything down in reverse order.
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping monitor service")

	if err := s.mqttConsumer.Stop(context.Background()); err != nil {
		s.logger.Error("Failed to stop MQTT consumer", zap.Error(err))
	}
	s.mqttClient.Disconnect()

	if err := rediscommon.Close(s.redisClient); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}
	if err := database.Close(s.db); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
	return nil
}

// notifyingEvaluator forwards readings to the real evaluator, then pushes
// any critical alerts to the webhook. Delivery failures never fail the
// evaluation.
type notifyingEvaluator struct {
	inner    consumer.ReadingEvaluator
	notifier *WebhookNotifier
}

var _ consumer.ReadingEvaluator = (*notifyingEvaluator)(nil)

func (n *notifyingEvaluator) EvaluateReading(ctx context.Context, reading domain.Reading) ([]*domain.Alert, error) {
	alerts, err := n.inner.EvaluateReading(ctx, reading)
	for _, alert := range alerts {
		if alert.Tier == domain.TierCritical {
			// Best effort; the notifier logs its own failures.
			_ = n.notifier.Notify(alert)
		}
	}
	return alerts, err
}
