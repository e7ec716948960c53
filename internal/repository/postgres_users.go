package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// PostgresUsersRepository implements UsersRepository on the users and
// user_sector_access tables. Sector permission names are stored as a
// VARCHAR[] per (user, mine, sector) row; the unique key on that triple
// keeps the one-override-per-pair invariant in the schema.
type PostgresUsersRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresUsersRepository creates the repository.
func NewPostgresUsersRepository(db *sql.DB, logger *zap.Logger) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, logger: logger}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

// GetUser fetches one user with sector access attached.
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return r.getUserWhere(ctx, `user_id = $1`, userID)
}

// GetUserByEmail fetches one user by unique email.
func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	return r.getUserWhere(ctx, `email = $1`, email)
}

func (r *PostgresUsersRepository) getUserWhere(ctx context.Context, cond string, arg any) (*domain.User, error) {
	query := `
		SELECT
			user_id::text,
			name,
			email,
			COALESCE(role_id::text, '')
		FROM users
		WHERE ` + cond

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UserID,
		&user.Name,
		&user.Email,
		&user.RoleID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: user %v", domain.ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	access, err := r.loadSectorAccess(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	user.SectorAccess = access

	return &user, nil
}

func (r *PostgresUsersRepository) loadSectorAccess(ctx context.Context, userID string) ([]domain.SectorAccess, error) {
	query := `
		SELECT mine_id::text, sector_id::text, permissions
		FROM user_sector_access
		WHERE user_id = $1
		ORDER BY mine_id, sector_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sector access: %w", err)
	}
	defer rows.Close()

	var entries []domain.SectorAccess
	for rows.Next() {
		var entry domain.SectorAccess
		var names pq.StringArray
		if err := rows.Scan(&entry.MineID, &entry.SectorID, &names); err != nil {
			return nil, fmt.Errorf("failed to scan sector access: %w", err)
		}
		for _, name := range names {
			p, err := domain.ParseSectorPermission(name)
			if err != nil {
				return nil, fmt.Errorf("user %s sector access: %w", userID, err)
			}
			entry.Permissions = append(entry.Permissions, p)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sector access: %w", err)
	}

	return entries, nil
}

// ListUsers returns a page of users ordered by name. Sector access is not
// attached on listings.
func (r *PostgresUsersRepository) ListUsers(ctx context.Context, page, size int) ([]*domain.User, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT user_id::text, name, email, COALESCE(role_id::text, '')
		FROM users
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.UserID, &user.Name, &user.Email, &user.RoleID); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, total, nil
}

// CreateUser inserts a user. Sector access entries are written separately
// through SetSectorAccess.
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user == nil || user.UserID == "" || user.Email == "" {
		return fmt.Errorf("user_id and email are required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, name, email, role_id) VALUES ($1, $2, $3, $4)`,
		user.UserID, user.Name, user.Email, nullIfEmpty(user.RoleID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateUserRole moves a user to another role. The last-admin check belongs
// to the authorization gate, not here.
func (r *PostgresUsersRepository) UpdateUserRole(ctx context.Context, userID, roleID string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role_id = $2 WHERE user_id = $1`,
		userID, nullIfEmpty(roleID),
	)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user_id=%s", domain.ErrNotFound, userID)
	}
	return nil
}

// DeleteUser removes a user; sector access rows cascade.
func (r *PostgresUsersRepository) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user_id=%s", domain.ErrNotFound, userID)
	}
	return nil
}

// CountUsersWithRole counts current holders of a role.
func (r *PostgresUsersRepository) CountUsersWithRole(ctx context.Context, roleID string) (int, error) {
	if roleID == "" {
		return 0, fmt.Errorf("role_id is required")
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count role holders: %w", err)
	}
	return count, nil
}

// SetSectorAccess replaces the user's override for one (mine, sector) pair.
func (r *PostgresUsersRepository) SetSectorAccess(ctx context.Context, userID string, access domain.SectorAccess) error {
	if userID == "" || access.MineID == "" || access.SectorID == "" {
		return fmt.Errorf("user_id, mine_id and sector_id are required")
	}

	names := make(pq.StringArray, 0, len(access.Permissions))
	for _, p := range access.Permissions {
		if !p.Valid() {
			return fmt.Errorf("invalid sector permission: %q", p)
		}
		names = append(names, string(p))
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_sector_access (user_id, mine_id, sector_id, permissions)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, mine_id, sector_id)
		DO UPDATE SET permissions = EXCLUDED.permissions
	`, userID, access.MineID, access.SectorID, names)
	if err != nil {
		return fmt.Errorf("failed to set sector access: %w", err)
	}
	return nil
}

// RemoveSectorAccess drops the user's override for one (mine, sector) pair.
func (r *PostgresUsersRepository) RemoveSectorAccess(ctx context.Context, userID, mineID, sectorID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_sector_access WHERE user_id = $1 AND mine_id = $2 AND sector_id = $3`,
		userID, mineID, sectorID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove sector access: %w", err)
	}
	return nil
}
