package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// AlertService is the business layer over alert records: listing for the
// dashboard and the acknowledgement lifecycle.
type AlertService struct {
	alertsRepo repository.AlertsRepository
	logger     *zap.Logger
}

// NewAlertService creates the alert service.
func NewAlertService(alertsRepo repository.AlertsRepository, logger *zap.Logger) *AlertService {
	return &AlertService{
		alertsRepo: alertsRepo,
		logger:     logger,
	}
}

// ListAlerts returns a filtered page of alerts, newest first.
func (s *AlertService) ListAlerts(
	ctx context.Context,
	filters repository.AlertFilters,
	page, size int,
) ([]*domain.Alert, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	alerts, total, err := s.alertsRepo.ListAlerts(ctx, filters, page, size)
	if err != nil {
		s.logger.Error("Failed to list alerts", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	return alerts, total, nil
}

// GetAlert returns one alert.
func (s *AlertService) GetAlert(ctx context.Context, alertID string) (*domain.Alert, error) {
	if alertID == "" {
		return nil, fmt.Errorf("alert_id is required")
	}

	alert, err := s.alertsRepo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// AcknowledgeAlert marks an alert acknowledged on behalf of a user. The
// operation is idempotent: acknowledging an already-acknowledged alert is a
// quiet no-op, not an error. Acknowledgement never touches the tier
// baselines used for future alert generation.
func (s *AlertService) AcknowledgeAlert(ctx context.Context, alertID, userID string) error {
	if alertID == "" {
		return fmt.Errorf("alert_id is required")
	}
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	changed, err := s.alertsRepo.AcknowledgeAlert(ctx, alertID, userID)
	if err != nil {
		s.logger.Error("Failed to acknowledge alert",
			zap.String("alert_id", alertID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	if changed {
		s.logger.Info("Alert acknowledged",
			zap.String("alert_id", alertID),
			zap.String("user_id", userID),
		)
	}
	return nil
}
