package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// PostgresAlertsRepository implements AlertsRepository on the alerts table.
// A partial unique index on (entity_key, tier, debounce_bucket) WHERE NOT
// acknowledged backs the generator's race handling: the losing insert of two
// concurrent evaluations surfaces as domain.ErrDuplicateOpenAlert.
type PostgresAlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAlertsRepository creates the repository.
func NewPostgresAlertsRepository(db *sql.DB, logger *zap.Logger) *PostgresAlertsRepository {
	return &PostgresAlertsRepository{db: db, logger: logger}
}

var _ AlertsRepository = (*PostgresAlertsRepository)(nil)

const alertColumns = `
	alert_id,
	category,
	tier,
	message,
	location,
	mine_id,
	sector_id,
	sensor_id,
	created_at,
	acknowledged,
	acknowledged_by,
	acknowledged_at
`

// CreateAlert inserts a new alert row.
func (r *PostgresAlertsRepository) CreateAlert(ctx context.Context, alert *domain.Alert) error {
	if alert == nil || alert.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	query := `
		INSERT INTO alerts (
			alert_id, category, tier, message, location,
			mine_id, sector_id, sensor_id, entity_key,
			created_at, debounce_bucket, acknowledged
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.AlertID,
		string(alert.Category),
		alert.Tier.String(),
		alert.Message,
		alert.Location,
		alert.MineID,
		nullIfEmpty(alert.SectorID),
		nullIfEmpty(alert.SensorID),
		alert.EntityKey(),
		alert.CreatedAt,
		alert.DebounceBucket,
	)
	if err != nil {
		if isUniqueViolation(err, "alerts_open_entity_tier_idx") {
			return fmt.Errorf("%w: %s/%s", domain.ErrDuplicateOpenAlert, alert.EntityKey(), alert.Tier)
		}
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// GetAlert fetches one alert by id.
func (r *PostgresAlertsRepository) GetAlert(ctx context.Context, alertID string) (*domain.Alert, error) {
	if alertID == "" {
		return nil, fmt.Errorf("alert_id is required")
	}

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE alert_id = $1`

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, alertID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: alert_id=%s", domain.ErrNotFound, alertID)
		}
		return nil, fmt.Errorf("failed to query alert: %w", err)
	}
	return alert, nil
}

// ListAlerts returns a filtered, paginated page of alerts, newest first.
func (r *PostgresAlertsRepository) ListAlerts(ctx context.Context, filters AlertFilters, page, size int) ([]*domain.Alert, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	where := ` WHERE 1=1`
	args := []any{}

	if filters.MineID != nil {
		args = append(args, *filters.MineID)
		where += fmt.Sprintf(` AND mine_id = $%d`, len(args))
	}
	if filters.SectorID != nil {
		args = append(args, *filters.SectorID)
		where += fmt.Sprintf(` AND sector_id = $%d`, len(args))
	}
	if filters.Tier != nil {
		args = append(args, filters.Tier.String())
		where += fmt.Sprintf(` AND tier = $%d`, len(args))
	}
	if filters.Acknowledged != nil {
		args = append(args, *filters.Acknowledged)
		where += fmt.Sprintf(` AND acknowledged = $%d`, len(args))
	}
	if filters.StartTime != nil {
		args = append(args, *filters.StartTime)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filters.EndTime != nil {
		args = append(args, *filters.EndTime)
		where += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM alerts` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	args = append(args, size, (page-1)*size)
	query := `SELECT ` + alertColumns + ` FROM alerts` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*domain.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, total, nil
}

// LatestOpenAlert returns the newest unacknowledged alert for an entity and
// tier, or domain.ErrNotFound.
func (r *PostgresAlertsRepository) LatestOpenAlert(ctx context.Context, entityKey string, tier domain.StatusTier) (*domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE entity_key = $1 AND tier = $2 AND NOT acknowledged
		ORDER BY created_at DESC
		LIMIT 1
	`

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, entityKey, tier.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: no open alert for %s/%s", domain.ErrNotFound, entityKey, tier)
		}
		return nil, fmt.Errorf("failed to query open alert: %w", err)
	}
	return alert, nil
}

// AcknowledgeAlert marks an open alert acknowledged. Returns false when the
// alert exists but was already acknowledged, so the caller can treat the
// repeat as a no-op.
func (r *PostgresAlertsRepository) AcknowledgeAlert(ctx context.Context, alertID, userID string) (bool, error) {
	if alertID == "" {
		return false, fmt.Errorf("alert_id is required")
	}
	if userID == "" {
		return false, fmt.Errorf("user_id is required")
	}

	query := `
		UPDATE alerts
		SET acknowledged = TRUE,
		    acknowledged_by = $2,
		    acknowledged_at = $3
		WHERE alert_id = $1 AND NOT acknowledged
	`

	result, err := r.db.ExecContext(ctx, query, alertID, userID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Distinguish "already acknowledged" from "no such alert".
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM alerts WHERE alert_id = $1)`, alertID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("%w: alert_id=%s", domain.ErrNotFound, alertID)
	}
	return false, nil
}

// CountOpenAlerts counts unacknowledged alerts for a mine.
func (r *PostgresAlertsRepository) CountOpenAlerts(ctx context.Context, mineID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE mine_id = $1 AND NOT acknowledged`, mineID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open alerts: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*domain.Alert, error) {
	var alert domain.Alert
	var category, tier string
	var sectorID, sensorID, acknowledgedBy sql.NullString
	var acknowledgedAt sql.NullTime

	err := row.Scan(
		&alert.AlertID,
		&category,
		&tier,
		&alert.Message,
		&alert.Location,
		&alert.MineID,
		&sectorID,
		&sensorID,
		&alert.CreatedAt,
		&alert.Acknowledged,
		&acknowledgedBy,
		&acknowledgedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.Category = domain.AlertCategory(category)
	parsed, err := domain.ParseStatusTier(tier)
	if err != nil {
		return nil, err
	}
	alert.Tier = parsed
	alert.SectorID = sectorID.String
	alert.SensorID = sensorID.String
	if acknowledgedBy.Valid {
		alert.AcknowledgedBy = &acknowledgedBy.String
	}
	if acknowledgedAt.Valid {
		t := acknowledgedAt.Time
		alert.AcknowledgedAt = &t
	}

	return &alert, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
