package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// PostgresMinesRepository implements MinesRepository on the mines, sectors
// and sensors tables. The UNIQUE (mine_id, level) constraint on sectors
// backs the duplicate-level invariant; a violation surfaces as
// domain.ErrDuplicateSectorLevel.
type PostgresMinesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresMinesRepository creates the repository.
func NewPostgresMinesRepository(db *sql.DB, logger *zap.Logger) *PostgresMinesRepository {
	return &PostgresMinesRepository{db: db, logger: logger}
}

var _ MinesRepository = (*PostgresMinesRepository)(nil)

// ============================================
// Mines
// ============================================

// ListMines returns every mine without sectors attached.
func (r *PostgresMinesRepository) ListMines(ctx context.Context) ([]domain.Mine, error) {
	query := `
		SELECT mine_id::text, name, location, status, latitude, longitude, depth_meters
		FROM mines
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mines: %w", err)
	}
	defer rows.Close()

	var mines []domain.Mine
	for rows.Next() {
		mine, err := scanMine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mine: %w", err)
		}
		mines = append(mines, *mine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mines: %w", err)
	}

	return mines, nil
}

// GetMine fetches one mine without sectors.
func (r *PostgresMinesRepository) GetMine(ctx context.Context, mineID string) (*domain.Mine, error) {
	if mineID == "" {
		return nil, fmt.Errorf("mine_id is required")
	}

	query := `
		SELECT mine_id::text, name, location, status, latitude, longitude, depth_meters
		FROM mines
		WHERE mine_id = $1
	`

	mine, err := scanMine(r.db.QueryRowContext(ctx, query, mineID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: mine_id=%s", domain.ErrNotFound, mineID)
		}
		return nil, fmt.Errorf("failed to query mine: %w", err)
	}
	return mine, nil
}

// LoadMineHierarchy fetches a mine with its sectors (level ascending) and
// their sensors.
func (r *PostgresMinesRepository) LoadMineHierarchy(ctx context.Context, mineID string) (*domain.Mine, error) {
	mine, err := r.GetMine(ctx, mineID)
	if err != nil {
		return nil, err
	}

	sectors, err := r.ListSectors(ctx, mineID)
	if err != nil {
		return nil, err
	}
	for i := range sectors {
		sensors, err := r.ListSensorsBySector(ctx, sectors[i].SectorID)
		if err != nil {
			return nil, err
		}
		sectors[i].Sensors = sensors
	}
	mine.Sectors = sectors

	return mine, nil
}

// CreateMine inserts a mine.
func (r *PostgresMinesRepository) CreateMine(ctx context.Context, mine *domain.Mine) error {
	if mine == nil || mine.MineID == "" || mine.Name == "" {
		return fmt.Errorf("mine_id and name are required")
	}
	if !mine.Status.Valid() {
		return fmt.Errorf("invalid mine status: %q", mine.Status)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mines (mine_id, name, location, status, latitude, longitude, depth_meters)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		mine.MineID, mine.Name, mine.Location, string(mine.Status),
		mine.Coordinates.Latitude, mine.Coordinates.Longitude, mine.DepthMeters,
	)
	if err != nil {
		return fmt.Errorf("failed to insert mine: %w", err)
	}
	return nil
}

// UpdateMineStatus sets the operational status.
func (r *PostgresMinesRepository) UpdateMineStatus(ctx context.Context, mineID string, status domain.MineStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid mine status: %q", status)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE mines SET status = $2 WHERE mine_id = $1`, mineID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update mine status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: mine_id=%s", domain.ErrNotFound, mineID)
	}
	return nil
}

// DeleteMine removes a mine; sectors and sensors cascade.
func (r *PostgresMinesRepository) DeleteMine(ctx context.Context, mineID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM mines WHERE mine_id = $1`, mineID)
	if err != nil {
		return fmt.Errorf("failed to delete mine: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: mine_id=%s", domain.ErrNotFound, mineID)
	}

	r.logger.Info("Mine deleted", zap.String("mine_id", mineID))
	return nil
}

// ============================================
// Sectors
// ============================================

// CreateSector inserts a sector. A level collision within the mine returns
// domain.ErrDuplicateSectorLevel.
func (r *PostgresMinesRepository) CreateSector(ctx context.Context, sector *domain.Sector) error {
	if sector == nil || sector.SectorID == "" || sector.MineID == "" {
		return fmt.Errorf("sector_id and mine_id are required")
	}
	if !sector.Status.Valid() {
		return fmt.Errorf("invalid sector status: %q", sector.Status)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sectors (sector_id, mine_id, name, level, status)
		VALUES ($1, $2, $3, $4, $5)
	`, sector.SectorID, sector.MineID, sector.Name, sector.Level, string(sector.Status))
	if err != nil {
		if isUniqueViolation(err, "sectors_mine_id_level_key") {
			return fmt.Errorf("%w: mine %s already has a level %d sector",
				domain.ErrDuplicateSectorLevel, sector.MineID, sector.Level)
		}
		return fmt.Errorf("failed to insert sector: %w", err)
	}
	return nil
}

// UpdateSector updates name, level and status. A level collision returns
// domain.ErrDuplicateSectorLevel.
func (r *PostgresMinesRepository) UpdateSector(ctx context.Context, sector *domain.Sector) error {
	if sector == nil || sector.SectorID == "" {
		return fmt.Errorf("sector_id is required")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE sectors SET name = $2, level = $3, status = $4 WHERE sector_id = $1
	`, sector.SectorID, sector.Name, sector.Level, string(sector.Status))
	if err != nil {
		if isUniqueViolation(err, "sectors_mine_id_level_key") {
			return fmt.Errorf("%w: mine %s already has a level %d sector",
				domain.ErrDuplicateSectorLevel, sector.MineID, sector.Level)
		}
		return fmt.Errorf("failed to update sector: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: sector_id=%s", domain.ErrNotFound, sector.SectorID)
	}
	return nil
}

// GetSector fetches one sector.
func (r *PostgresMinesRepository) GetSector(ctx context.Context, sectorID string) (*domain.Sector, error) {
	if sectorID == "" {
		return nil, fmt.Errorf("sector_id is required")
	}

	query := `
		SELECT sector_id::text, mine_id::text, name, level, status
		FROM sectors
		WHERE sector_id = $1
	`

	var sector domain.Sector
	var status string
	err := r.db.QueryRowContext(ctx, query, sectorID).Scan(
		&sector.SectorID, &sector.MineID, &sector.Name, &sector.Level, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: sector_id=%s", domain.ErrNotFound, sectorID)
		}
		return nil, fmt.Errorf("failed to query sector: %w", err)
	}
	sector.Status = domain.MineStatus(status)
	return &sector, nil
}

// ListSectors returns a mine's sectors ordered by level.
func (r *PostgresMinesRepository) ListSectors(ctx context.Context, mineID string) ([]domain.Sector, error) {
	query := `
		SELECT sector_id::text, mine_id::text, name, level, status
		FROM sectors
		WHERE mine_id = $1
		ORDER BY level
	`

	rows, err := r.db.QueryContext(ctx, query, mineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	var sectors []domain.Sector
	for rows.Next() {
		var sector domain.Sector
		var status string
		if err := rows.Scan(&sector.SectorID, &sector.MineID, &sector.Name, &sector.Level, &status); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sector.Status = domain.MineStatus(status)
		sectors = append(sectors, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sectors: %w", err)
	}

	return sectors, nil
}

// ============================================
// Sensors
// ============================================

const sensorColumns = `
	sensor_id::text,
	sector_id::text,
	type,
	location,
	latitude,
	longitude,
	status,
	last_calibrated_at,
	next_due_at,
	calibrated_by,
	manufacturer,
	model,
	serial_number,
	range_min,
	range_max
`

// GetSensor fetches one sensor.
func (r *PostgresMinesRepository) GetSensor(ctx context.Context, sensorID string) (*domain.Sensor, error) {
	if sensorID == "" {
		return nil, fmt.Errorf("sensor_id is required")
	}

	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE sensor_id = $1`

	sensor, err := scanSensor(r.db.QueryRowContext(ctx, query, sensorID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: sensor_id=%s", domain.ErrNotFound, sensorID)
		}
		return nil, fmt.Errorf("failed to query sensor: %w", err)
	}
	return sensor, nil
}

// ListSensorsBySector returns a sector's sensors.
func (r *PostgresMinesRepository) ListSensorsBySector(ctx context.Context, sectorID string) ([]domain.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE sector_id = $1 ORDER BY location`

	rows, err := r.db.QueryContext(ctx, query, sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	defer rows.Close()

	var sensors []domain.Sensor
	for rows.Next() {
		sensor, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		sensors = append(sensors, *sensor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensors: %w", err)
	}

	return sensors, nil
}

// CreateSensor inserts a sensor.
func (r *PostgresMinesRepository) CreateSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil || sensor.SensorID == "" || sensor.SectorID == "" {
		return fmt.Errorf("sensor_id and sector_id are required")
	}
	if !sensor.Type.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownSensorType, sensor.Type)
	}
	if !sensor.Status.Valid() {
		return fmt.Errorf("invalid sensor status: %q", sensor.Status)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sensors (
			sensor_id, sector_id, type, location, latitude, longitude, status,
			last_calibrated_at, next_due_at, calibrated_by,
			manufacturer, model, serial_number, range_min, range_max
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		sensor.SensorID, sensor.SectorID, string(sensor.Type), sensor.Location,
		sensor.Coordinates.Latitude, sensor.Coordinates.Longitude, string(sensor.Status),
		sensor.Calibration.LastCalibratedAt, sensor.Calibration.NextDueAt, sensor.Calibration.CalibratedBy,
		sensor.Spec.Manufacturer, sensor.Spec.Model, sensor.Spec.SerialNumber,
		sensor.Spec.RangeMin, sensor.Spec.RangeMax,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sensor: %w", err)
	}
	return nil
}

// UpdateSensorStatus sets the lifecycle status.
func (r *PostgresMinesRepository) UpdateSensorStatus(ctx context.Context, sensorID string, status domain.SensorStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid sensor status: %q", status)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE sensors SET status = $2 WHERE sensor_id = $1`, sensorID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update sensor status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: sensor_id=%s", domain.ErrNotFound, sensorID)
	}
	return nil
}

// ============================================
// scan helpers
// ============================================

func scanMine(row rowScanner) (*domain.Mine, error) {
	var mine domain.Mine
	var status string
	err := row.Scan(
		&mine.MineID,
		&mine.Name,
		&mine.Location,
		&status,
		&mine.Coordinates.Latitude,
		&mine.Coordinates.Longitude,
		&mine.DepthMeters,
	)
	if err != nil {
		return nil, err
	}
	mine.Status = domain.MineStatus(status)
	return &mine, nil
}

func scanSensor(row rowScanner) (*domain.Sensor, error) {
	var sensor domain.Sensor
	var sensorType, status string
	err := row.Scan(
		&sensor.SensorID,
		&sensor.SectorID,
		&sensorType,
		&sensor.Location,
		&sensor.Coordinates.Latitude,
		&sensor.Coordinates.Longitude,
		&status,
		&sensor.Calibration.LastCalibratedAt,
		&sensor.Calibration.NextDueAt,
		&sensor.Calibration.CalibratedBy,
		&sensor.Spec.Manufacturer,
		&sensor.Spec.Model,
		&sensor.Spec.SerialNumber,
		&sensor.Spec.RangeMin,
		&sensor.Spec.RangeMax,
	)
	if err != nil {
		return nil, err
	}
	sensor.Type = domain.SensorType(sensorType)
	sensor.Status = domain.SensorStatus(status)
	return &sensor, nil
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
