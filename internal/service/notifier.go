package service

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// WebhookNotifier pushes critical alerts to an external endpoint. Delivery
// is best-effort: a failed POST is logged and dropped, it never blocks or
// rolls back alert persistence.
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier creates a notifier. An empty URL yields a disabled
// notifier whose Notify is a no-op.
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

// Notify posts one alert. Only critical alerts are worth waking anyone for;
// callers filter, the notifier sends whatever it is given.
func (n *WebhookNotifier) Notify(alert *domain.Alert) error {
	if !n.Enabled() || alert == nil {
		return nil
	}

	resp, err := n.httpClient.R().
		SetBody(alert).
		Post(n.url)
	if err != nil {
		n.logger.Error("Failed to deliver alert webhook",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to deliver alert webhook: %w", err)
	}
	if resp.StatusCode() >= 300 {
		n.logger.Error("Alert webhook rejected",
			zap.String("alert_id", alert.AlertID),
			zap.Int("status", resp.StatusCode()),
		)
		return fmt.Errorf("alert webhook rejected with status %d", resp.StatusCode())
	}

	n.logger.Debug("Alert webhook delivered",
		zap.String("alert_id", alert.AlertID),
	)
	return nil
}
