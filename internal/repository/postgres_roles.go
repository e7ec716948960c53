package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// PostgresRolesRepository implements RolesRepository on the roles and
// role_permissions tables. Permission names are validated on the way out so
// an unrecognized stored name fails loudly instead of becoming an opaque
// grant.
type PostgresRolesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresRolesRepository creates the repository.
func NewPostgresRolesRepository(db *sql.DB, logger *zap.Logger) *PostgresRolesRepository {
	return &PostgresRolesRepository{db: db, logger: logger}
}

var _ RolesRepository = (*PostgresRolesRepository)(nil)

// ListRoles returns every role with its permission set.
func (r *PostgresRolesRepository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	query := `
		SELECT
			r.role_id::text,
			r.name,
			COALESCE(array_agg(p.permission) FILTER (WHERE p.permission IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions p ON p.role_id = r.role_id
		GROUP BY r.role_id, r.name
		ORDER BY r.name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		var names pq.StringArray
		if err := rows.Scan(&role.RoleID, &role.Name, &names); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		perms, err := parseGlobalPermissions(names)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", role.RoleID, err)
		}
		role.Permissions = perms
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

// GetRole fetches one role by id.
func (r *PostgresRolesRepository) GetRole(ctx context.Context, roleID string) (*domain.Role, error) {
	if roleID == "" {
		return nil, fmt.Errorf("role_id is required")
	}
	return r.getRoleWhere(ctx, `r.role_id = $1`, roleID)
}

// GetRoleByName fetches one role by its unique name.
func (r *PostgresRolesRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	return r.getRoleWhere(ctx, `r.name = $1`, name)
}

func (r *PostgresRolesRepository) getRoleWhere(ctx context.Context, cond string, arg any) (*domain.Role, error) {
	query := `
		SELECT
			r.role_id::text,
			r.name,
			COALESCE(array_agg(p.permission) FILTER (WHERE p.permission IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions p ON p.role_id = r.role_id
		WHERE ` + cond + `
		GROUP BY r.role_id, r.name
	`

	var role domain.Role
	var names pq.StringArray
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&role.RoleID, &role.Name, &names)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: role %v", domain.ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to query role: %w", err)
	}

	perms, err := parseGlobalPermissions(names)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", role.RoleID, err)
	}
	role.Permissions = perms
	return &role, nil
}

// CreateRole inserts a role and its permissions in one transaction.
func (r *PostgresRolesRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	if role == nil || role.RoleID == "" || role.Name == "" {
		return fmt.Errorf("role_id and name are required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roles (role_id, name) VALUES ($1, $2)`,
		role.RoleID, role.Name,
	); err != nil {
		return fmt.Errorf("failed to insert role: %w", err)
	}

	if err := insertRolePermissions(ctx, tx, role.RoleID, role.Permissions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role: %w", err)
	}
	return nil
}

// UpdateRolePermissions replaces the role's permission set atomically. A
// concurrent reader of the tables sees the old or the new set, never the
// in-between state.
func (r *PostgresRolesRepository) UpdateRolePermissions(ctx context.Context, roleID string, permissions []domain.GlobalPermission) error {
	if roleID == "" {
		return fmt.Errorf("role_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE role_id = $1)`, roleID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check role existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: role_id=%s", domain.ErrNotFound, roleID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1`, roleID,
	); err != nil {
		return fmt.Errorf("failed to clear role permissions: %w", err)
	}

	if err := insertRolePermissions(ctx, tx, roleID, permissions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role permissions: %w", err)
	}

	r.logger.Info("Role permissions updated",
		zap.String("role_id", roleID),
		zap.Int("permission_count", len(permissions)),
	)
	return nil
}

// DeleteRole removes a role; role_permissions rows cascade.
func (r *PostgresRolesRepository) DeleteRole(ctx context.Context, roleID string) error {
	if roleID == "" {
		return fmt.Errorf("role_id is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE role_id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: role_id=%s", domain.ErrNotFound, roleID)
	}
	return nil
}

func insertRolePermissions(ctx context.Context, tx *sql.Tx, roleID string, permissions []domain.GlobalPermission) error {
	for _, p := range permissions {
		if !p.Valid() {
			return fmt.Errorf("invalid global permission: %q", p)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission) VALUES ($1, $2)
			 ON CONFLICT (role_id, permission) DO NOTHING`,
			roleID, string(p),
		); err != nil {
			return fmt.Errorf("failed to insert role permission: %w", err)
		}
	}
	return nil
}

func parseGlobalPermissions(names []string) ([]domain.GlobalPermission, error) {
	perms := make([]domain.GlobalPermission, 0, len(names))
	for _, name := range names {
		p, err := domain.ParseGlobalPermission(name)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}
