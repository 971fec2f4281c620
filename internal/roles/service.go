package roles

import (
	"context"
	"strings"

	"github.com/vantage-hq/vantage/internal/authz"
	"github.com/vantage-hq/vantage/internal/platform/db"
	"github.com/vantage-hq/vantage/internal/platform/httpx"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Role, int, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, params CreateParams) (Role, error)
	Update(ctx context.Context, params UpdateParams) (Role, error)
	Delete(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	CountPermissions(ctx context.Context, ids []int64) (int, error)
}

// Gate evaluates a target policy for a subject.
type Gate interface {
	AllowsAction(ctx context.Context, subject authz.Subject, action authz.Action, target authz.Target) (bool, error)
}

// Service handles role administration business logic.
type Service struct {
	repo RepositoryPort
	gate Gate
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, gate Gate) *Service {
	return &Service{repo: repo, gate: gate}
}

// List returns a page of roles.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Role, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a role by id.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a role with its permission set.
func (s *Service) Create(ctx context.Context, params CreateParams) (Role, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Slug = strings.TrimSpace(params.Slug)

	if err := s.checkSlug(ctx, params.Slug, 0); err != nil {
		return Role{}, err
	}
	if err := s.checkPermissionIDs(ctx, params.PermissionIDs); err != nil {
		return Role{}, err
	}

	role, err := s.repo.Create(ctx, params)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, slugTakenError()
		}
		return Role{}, err
	}
	return role, nil
}

// Update validates and applies a role update. A nil permission set leaves the
// existing assignments untouched.
func (s *Service) Update(ctx context.Context, params UpdateParams) (Role, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Slug = strings.TrimSpace(params.Slug)

	if err := s.checkSlug(ctx, params.Slug, params.ID); err != nil {
		return Role{}, err
	}
	if params.PermissionIDs != nil {
		if err := s.checkPermissionIDs(ctx, params.PermissionIDs); err != nil {
			return Role{}, err
		}
	}

	role, err := s.repo.Update(ctx, params)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, slugTakenError()
		}
		return Role{}, err
	}
	return role, nil
}

// Delete removes a role after the target policy allows it. System-protected
// roles are denied for everyone except the bypass subject.
func (s *Service) Delete(ctx context.Context, subject authz.Subject, id int64) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	allowed, err := s.gate.AllowsAction(ctx, subject, authz.ActionDelete, authz.RoleTarget(role.ID, role.IsSystem))
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) checkSlug(ctx context.Context, slug string, excludeID int64) error {
	taken, err := s.repo.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return slugTakenError()
	}
	return nil
}

func (s *Service) checkPermissionIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return httpx.NewValidationError("permission_ids", "Select at least one permission for this role.")
	}
	count, err := s.repo.CountPermissions(ctx, dedupe(ids))
	if err != nil {
		return err
	}
	if count != len(dedupe(ids)) {
		return httpx.NewValidationError("permission_ids", "One or more selected permissions do not exist.")
	}
	return nil
}

func slugTakenError() error {
	return httpx.NewValidationError("slug", "The slug has already been taken.")
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
