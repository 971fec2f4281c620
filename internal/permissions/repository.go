package permissions

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the permission
// registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all permissions ordered by name.
func (r *Repository) List(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// Ensure upserts a permission by slug, refreshing name and description.
func (r *Repository) Ensure(ctx context.Context, name, slug, description string) (Permission, error) {
	const query = `
		INSERT INTO permissions (name, slug, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
		RETURNING id, name, slug, description`

	var p Permission
	if err := r.pool.QueryRow(ctx, query, name, slug, description).Scan(&p.ID, &p.Name, &p.Slug, &p.Description); err != nil {
		return Permission{}, err
	}
	return p, nil
}
