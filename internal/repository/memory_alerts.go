package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// MemoryAlertsRepo is an in-memory AlertsRepository for tests and demo runs
// without a database. It enforces the same open-alert uniqueness the
// postgres partial index does, so generator race handling is exercised the
// same way against both implementations.
type MemoryAlertsRepo struct {
	mu     sync.RWMutex
	alerts map[string]*domain.Alert // alertID -> alert
}

// NewMemoryAlertsRepo creates an empty in-memory repository.
func NewMemoryAlertsRepo() *MemoryAlertsRepo {
	return &MemoryAlertsRepo{alerts: map[string]*domain.Alert{}}
}

var _ AlertsRepository = (*MemoryAlertsRepo)(nil)

// CreateAlert stores a copy of the alert, rejecting a duplicate open alert
// for the same entity, tier and debounce bucket.
func (r *MemoryAlertsRepo) CreateAlert(_ context.Context, alert *domain.Alert) error {
	if alert == nil || alert.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.alerts {
		if existing.Acknowledged {
			continue
		}
		if existing.EntityKey() == alert.EntityKey() &&
			existing.Tier == alert.Tier &&
			existing.DebounceBucket == alert.DebounceBucket {
			return fmt.Errorf("%w: %s/%s", domain.ErrDuplicateOpenAlert, alert.EntityKey(), alert.Tier)
		}
	}

	copied := *alert
	r.alerts[alert.AlertID] = &copied
	return nil
}

// GetAlert returns a copy of one alert.
func (r *MemoryAlertsRepo) GetAlert(_ context.Context, alertID string) (*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, ok := r.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: alert_id=%s", domain.ErrNotFound, alertID)
	}
	copied := *alert
	return &copied, nil
}

// ListAlerts filters and paginates, newest first.
func (r *MemoryAlertsRepo) ListAlerts(_ context.Context, filters AlertFilters, page, size int) ([]*domain.Alert, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Alert
	for _, alert := range r.alerts {
		if filters.MineID != nil && alert.MineID != *filters.MineID {
			continue
		}
		if filters.SectorID != nil && alert.SectorID != *filters.SectorID {
			continue
		}
		if filters.Tier != nil && alert.Tier != *filters.Tier {
			continue
		}
		if filters.Acknowledged != nil && alert.Acknowledged != *filters.Acknowledged {
			continue
		}
		if filters.StartTime != nil && alert.CreatedAt.Before(*filters.StartTime) {
			continue
		}
		if filters.EndTime != nil && alert.CreatedAt.After(*filters.EndTime) {
			continue
		}
		copied := *alert
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// LatestOpenAlert returns the newest unacknowledged alert for an entity and
// tier.
func (r *MemoryAlertsRepo) LatestOpenAlert(_ context.Context, entityKey string, tier domain.StatusTier) (*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.Alert
	for _, alert := range r.alerts {
		if alert.Acknowledged || alert.EntityKey() != entityKey || alert.Tier != tier {
			continue
		}
		if latest == nil || alert.CreatedAt.After(latest.CreatedAt) {
			latest = alert
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no open alert for %s/%s", domain.ErrNotFound, entityKey, tier)
	}
	copied := *latest
	return &copied, nil
}

// AcknowledgeAlert marks an alert acknowledged; repeats report false.
func (r *MemoryAlertsRepo) AcknowledgeAlert(_ context.Context, alertID, userID string) (bool, error) {
	if alertID == "" || userID == "" {
		return false, fmt.Errorf("alert_id and user_id are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[alertID]
	if !ok {
		return false, fmt.Errorf("%w: alert_id=%s", domain.ErrNotFound, alertID)
	}
	if alert.Acknowledged {
		return false, nil
	}

	now := time.Now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = &userID
	alert.AcknowledgedAt = &now
	return true, nil
}

// CountOpenAlerts counts unacknowledged alerts for a mine.
func (r *MemoryAlertsRepo) CountOpenAlerts(_ context.Context, mineID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, alert := range r.alerts {
		if alert.MineID == mineID && !alert.Acknowledged {
			count++
		}
	}
	return count, nil
}
