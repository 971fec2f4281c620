package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-hq/vantage/internal/permissions"
	"github.com/vantage-hq/vantage/internal/platform/db"
	"github.com/vantage-hq/vantage/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `r.id, r.name, r.slug, r.description, r.is_system, r.created_at, r.updated_at`

// List returns a page of roles matched by case-insensitive name substring,
// ordered by name, with permission sets and subject counts attached.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Role, int, error) {
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 15
	}
	pattern := "%" + filters.Search + "%"

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM roles r WHERE r.name ILIKE $1`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("roles: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+roleColumns+`, (SELECT count(*) FROM role_user ru WHERE ru.role_id = r.id) AS users_count
		FROM roles r
		WHERE r.name ILIKE $1
		ORDER BY r.name
		LIMIT $2 OFFSET $3`,
		pattern, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()

	var list []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsSystem,
			&role.CreatedAt, &role.UpdatedAt, &role.UsersCount); err != nil {
			return nil, 0, err
		}
		list = append(list, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range list {
		perms, err := r.rolePermissions(ctx, list[i].ID)
		if err != nil {
			return nil, 0, err
		}
		list[i].Permissions = perms
	}
	return list, total, nil
}

// Get fetches a role by id with its permission set and subject count.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT `+roleColumns+`, (SELECT count(*) FROM role_user ru WHERE ru.role_id = r.id)
		FROM roles r WHERE r.id = $1`, id,
	).Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsSystem,
		&role.CreatedAt, &role.UpdatedAt, &role.UsersCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, fmt.Errorf("roles: get: %w", err)
	}

	perms, err := r.rolePermissions(ctx, role.ID)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

// Create inserts a role and attaches its permission set atomically.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Role, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO roles (name, slug, description, is_system)
			VALUES ($1, $2, $3, FALSE)
			RETURNING id`,
			params.Name, params.Slug, params.Description,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("roles: insert: %w", err)
		}
		return attachPermissions(ctx, tx, id, params.PermissionIDs)
	})
	if err != nil {
		return Role{}, err
	}
	return r.Get(ctx, id)
}

// Update replaces name, slug, and description, and, when a permission set is
// supplied, replaces the permission edges in the same transaction.
func (r *Repository) Update(ctx context.Context, params UpdateParams) (Role, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE roles SET name = $2, slug = $3, description = $4, updated_at = now()
			WHERE id = $1`,
			params.ID, params.Name, params.Slug, params.Description)
		if err != nil {
			return fmt.Errorf("roles: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if params.PermissionIDs == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM permission_role WHERE role_id = $1`, params.ID); err != nil {
			return fmt.Errorf("roles: clear permissions: %w", err)
		}
		return attachPermissions(ctx, tx, params.ID, params.PermissionIDs)
	})
	if err != nil {
		return Role{}, err
	}
	return r.Get(ctx, params.ID)
}

// Delete removes the role after clearing its permission and subject edges.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM permission_role WHERE role_id = $1`, id); err != nil {
			return fmt.Errorf("roles: clear permissions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_user WHERE role_id = $1`, id); err != nil {
			return fmt.Errorf("roles: clear subjects: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("roles: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SlugExists reports whether another role already claims the slug. The match
// is case-sensitive exact.
func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// CountPermissions reports how many of the ids reference existing permissions.
func (r *Repository) CountPermissions(ctx context.Context, ids []int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM permissions WHERE id = ANY($1)`, ids).Scan(&count)
	return count, err
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]permissions.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.slug, p.description
		FROM permissions p
		JOIN permission_role pr ON pr.permission_id = p.id
		WHERE pr.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("roles: permissions: %w", err)
	}
	defer rows.Close()

	perms := []permissions.Permission{}
	for rows.Next() {
		var p permissions.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func attachPermissions(ctx context.Context, tx pgx.Tx, roleID int64, permissionIDs []int64) error {
	for _, pid := range permissionIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO permission_role (permission_id, role_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, pid, roleID); err != nil {
			return fmt.Errorf("roles: attach permission: %w", err)
		}
	}
	return nil
}
