package authz

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore walks the assignment graph in PostgreSQL.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	// provisioned caches a positive probe result for the process lifetime.
	// A negative result is never cached: provisioning can complete while the
	// process is running.
	provisioned atomic.Bool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool, logger *slog.Logger) *PGStore {
	return &PGStore{pool: pool, logger: logger}
}

// Provisioned reports whether the access-control tables exist. Probe errors
// (connection failures included) coerce to false; this is the one deliberate
// error-suppression point in the authorization design.
func (s *PGStore) Provisioned(ctx context.Context) bool {
	if s.provisioned.Load() {
		return true
	}

	const query = `
		SELECT to_regclass('permissions') IS NOT NULL
		   AND to_regclass('role_user') IS NOT NULL
		   AND to_regclass('permission_role') IS NOT NULL`

	var ok bool
	if err := s.pool.QueryRow(ctx, query).Scan(&ok); err != nil {
		if s.logger != nil {
			s.logger.Warn("authz provisioning probe", slog.Any("error", err))
		}
		return false
	}
	if ok {
		s.provisioned.Store(true)
	}
	return ok
}

// SubjectHasRole reports whether the subject holds a role by slug.
func (s *PGStore) SubjectHasRole(ctx context.Context, subjectID int64, slug string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM role_user ru
			JOIN roles r ON r.id = ru.role_id
			WHERE ru.user_id = $1 AND r.slug = $2
		)`

	var has bool
	if err := s.pool.QueryRow(ctx, query, subjectID, slug).Scan(&has); err != nil {
		return false, err
	}
	return has, nil
}

// SubjectHasAbility reports whether any role held by the subject carries a
// permission whose slug equals the ability.
func (s *PGStore) SubjectHasAbility(ctx context.Context, subjectID int64, ability string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM role_user ru
			JOIN permission_role pr ON pr.role_id = ru.role_id
			JOIN permissions p ON p.id = pr.permission_id
			WHERE ru.user_id = $1 AND p.slug = $2
		)`

	var has bool
	if err := s.pool.QueryRow(ctx, query, subjectID, ability).Scan(&has); err != nil {
		return false, err
	}
	return has, nil
}

var _ Store = (*PGStore)(nil)
