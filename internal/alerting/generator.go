package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// AlertStore is the persistence surface the generator needs. Satisfied by
// repository.PostgresAlertsRepository and by the in-memory repository in
// tests and the simulator.
type AlertStore interface {
	// CreateAlert persists a new alert. Returns domain.ErrDuplicateOpenAlert
	// when an open alert for the same entity and tier already exists.
	CreateAlert(ctx context.Context, alert *domain.Alert) error

	// LatestOpenAlert returns the newest unacknowledged alert for the
	// entity/tier pair, or domain.ErrNotFound.
	LatestOpenAlert(ctx context.Context, entityKey string, tier domain.StatusTier) (*domain.Alert, error)
}

// StatusChange describes one observed tier transition on a monitored entity.
// SensorID is empty for sector-level changes; SensorID and SectorID are both
// empty for mine-level changes.
type StatusChange struct {
	MineID   string
	SectorID string
	SensorID string
	Location string
	Detail   string // e.g. "gas 120.0 PPM (critical ≥ 100.0)"

	Previous domain.StatusTier
	Current  domain.StatusTier

	ObservedAt time.Time
}

// Generator converts upward status transitions into alert records. Creation
// is serialized per entity so concurrent sensor updates cannot slip two
// alerts past the debounce check.
type Generator struct {
	store  AlertStore
	window time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	entityMu map[string]*sync.Mutex
}

// NewGenerator creates a generator with the given debounce window. Windows
// under one second are rounded up, an unbounded alert rate is never allowed.
func NewGenerator(store AlertStore, window time.Duration, logger *zap.Logger) *Generator {
	if window < time.Second {
		window = time.Second
	}
	return &Generator{
		store:    store,
		window:   window,
		logger:   logger,
		now:      time.Now,
		entityMu: make(map[string]*sync.Mutex),
	}
}

// OnStatusChange records a transition and returns the created alert, or nil
// when no alert is due. Downward transitions and repeats never alert; they
// only move the caller's baseline. A second alert for the same (entity,
// tier) inside the debounce window is suppressed.
func (g *Generator) OnStatusChange(ctx context.Context, change StatusChange) (*domain.Alert, error) {
	if !change.Current.Valid() || !change.Previous.Valid() {
		return nil, fmt.Errorf("invalid status tier in transition %s -> %s", change.Previous, change.Current)
	}
	if change.Current <= change.Previous {
		return nil, nil
	}

	alert := g.buildAlert(change)
	key := alert.EntityKey()

	lock := g.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	open, err := g.store.LatestOpenAlert(ctx, key, change.Current)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check open alerts: %w", err)
	}
	if open != nil && g.now().Sub(open.CreatedAt) < g.window {
		g.logger.Debug("Alert debounced",
			zap.String("entity", key),
			zap.String("tier", change.Current.String()),
			zap.String("open_alert_id", open.AlertID),
		)
		return nil, nil
	}

	if err := g.store.CreateAlert(ctx, alert); err != nil {
		if errors.Is(err, domain.ErrDuplicateOpenAlert) {
			// Lost a race with a concurrent evaluation; the winner's alert
			// stands and this transition is already recorded.
			g.logger.Debug("Alert creation lost race",
				zap.String("entity", key),
				zap.String("tier", change.Current.String()),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	g.logger.Info("Alert created",
		zap.String("alert_id", alert.AlertID),
		zap.String("entity", key),
		zap.String("previous", change.Previous.String()),
		zap.String("current", change.Current.String()),
	)

	return alert, nil
}

func (g *Generator) buildAlert(change StatusChange) *domain.Alert {
	createdAt := change.ObservedAt
	if createdAt.IsZero() {
		createdAt = g.now()
	}

	message := fmt.Sprintf("Status escalated from %s to %s", change.Previous, change.Current)
	if change.Detail != "" {
		message = fmt.Sprintf("%s: %s", message, change.Detail)
	}

	return &domain.Alert{
		AlertID:        uuid.New().String(),
		Category:       domain.AlertThreshold,
		Tier:           change.Current,
		Message:        message,
		Location:       change.Location,
		MineID:         change.MineID,
		SectorID:       change.SectorID,
		SensorID:       change.SensorID,
		CreatedAt:      createdAt,
		DebounceBucket: createdAt.Unix() / int64(g.window/time.Second),
	}
}

func (g *Generator) lockFor(key string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.entityMu[key]
	if !ok {
		lock = &sync.Mutex{}
		g.entityMu[key] = lock
	}
	return lock
}
