package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-hq/vantage/internal/permissions"
	"github.com/vantage-hq/vantage/internal/platform/db"
	"github.com/vantage-hq/vantage/internal/roles"
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

const userColumns = `u.id, u.name, u.email, u.password_hash, u.email_verified_at, u.created_at, u.updated_at`

// List returns a page of users filtered by free-text substring over name or
// email and by exact role slug, newest id first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 15
	}
	pattern := "%" + filters.Search + "%"

	const predicate = `
		(u.name ILIKE $1 OR u.email ILIKE $1)
		AND ($2 = '' OR EXISTS (
			SELECT 1 FROM role_user ru
			JOIN roles ro ON ro.id = ru.role_id
			WHERE ru.user_id = u.id AND ro.slug = $2
		))`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM users u WHERE `+predicate, pattern, filters.RoleSlug,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE `+predicate+`
		ORDER BY u.id DESC
		LIMIT $3 OFFSET $4`,
		pattern, filters.RoleSlug, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range list {
		if err := r.attachRoles(ctx, &list[i]); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// Get fetches a user by id with roles and permission slugs attached.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	if err := r.attachRoles(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Create inserts a user and attaches its role set atomically.
func (r *Repository) Create(ctx context.Context, params CreateParams) (User, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id`,
			params.Name, params.Email, params.PasswordHash,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("users: insert: %w", err)
		}
		return attachUserRoles(ctx, tx, id, params.RoleIDs)
	})
	if err != nil {
		return User{}, err
	}
	return r.Get(ctx, id)
}

// Update replaces name and email, optionally the credential hash, and, when a
// role set is supplied, replaces the role edges in the same transaction.
func (r *Repository) Update(ctx context.Context, params UpdateParams) (User, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET name = $2,
			    email = $3,
			    password_hash = CASE WHEN $4 = '' THEN password_hash ELSE $4 END,
			    updated_at = now()
			WHERE id = $1`,
			params.ID, params.Name, params.Email, params.PasswordHash)
		if err != nil {
			return fmt.Errorf("users: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if params.RoleIDs == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_user WHERE user_id = $1`, params.ID); err != nil {
			return fmt.Errorf("users: clear roles: %w", err)
		}
		return attachUserRoles(ctx, tx, params.ID, params.RoleIDs)
	})
	if err != nil {
		return User{}, err
	}
	return r.Get(ctx, params.ID)
}

// Delete removes the user after clearing its role edges.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_user WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("users: clear roles: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("users: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// EmailExists reports whether another user already claims the email. The
// match is case-insensitive.
func (r *Repository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`,
		email, excludeID,
	).Scan(&exists)
	return exists, err
}

// CountRoles reports how many of the ids reference existing roles.
func (r *Repository) CountRoles(ctx context.Context, ids []int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM roles WHERE id = ANY($1)`, ids).Scan(&count)
	return count, err
}

func (r *Repository) attachRoles(ctx context.Context, user *User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT ro.id, ro.name, ro.slug, ro.description, ro.is_system, ro.created_at, ro.updated_at
		FROM roles ro
		JOIN role_user ru ON ru.role_id = ro.id
		WHERE ru.user_id = $1
		ORDER BY ro.name`, user.ID)
	if err != nil {
		return fmt.Errorf("users: roles: %w", err)
	}
	defer rows.Close()

	held := []roles.Role{}
	for rows.Next() {
		var role roles.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsSystem,
			&role.CreatedAt, &role.UpdatedAt); err != nil {
			return err
		}
		held = append(held, role)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range held {
		perms, err := r.rolePermissions(ctx, held[i].ID)
		if err != nil {
			return err
		}
		held[i].Permissions = perms
	}

	user.Roles = held
	user.PermissionSlugs = collectPermissionSlugs(held)
	return nil
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]permissions.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.slug, p.description
		FROM permissions p
		JOIN permission_role pr ON pr.permission_id = p.id
		WHERE pr.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("users: role permissions: %w", err)
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

func attachUserRoles(ctx context.Context, tx pgx.Tx, userID int64, roleIDs []int64) error {
	for _, rid := range roleIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_user (user_id, role_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, userID, rid); err != nil {
			return fmt.Errorf("users: attach role: %w", err)
		}
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.EmailVerifiedAt, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
