package users

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vantage-hq/vantage/internal/platform/db"
	"github.com/vantage-hq/vantage/internal/platform/httpx"
	"github.com/vantage-hq/vantage/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, params CreateParams) (User, error)
	Update(ctx context.Context, params UpdateParams) (User, error)
	Delete(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	CountRoles(ctx context.Context, ids []int64) (int, error)
}

// WelcomeDispatcher enqueues the asynchronous welcome notification.
type WelcomeDispatcher interface {
	EnqueueWelcomeEmail(ctx context.Context, userID int64) error
}

// Service handles user administration business logic.
type Service struct {
	repo       RepositoryPort
	dispatcher WelcomeDispatcher
	policy     PasswordPolicy
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, dispatcher WelcomeDispatcher, policy PasswordPolicy, logger *slog.Logger) *Service {
	return &Service{repo: repo, dispatcher: dispatcher, policy: policy, logger: logger}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create validates, persists, and kicks off the welcome notification. The
// notification is fire-and-forget: enqueue failure never rolls back creation.
func (s *Service) Create(ctx context.Context, name, email, password string, roleIDs []int64) (User, error) {
	name = strings.TrimSpace(name)
	email = shared.NormalizeEmail(email)

	if err := s.policy.Validate(password); err != nil {
		return User{}, err
	}
	if err := s.checkEmail(ctx, email, 0); err != nil {
		return User{}, err
	}
	if err := s.checkRoleIDs(ctx, roleIDs); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		RoleIDs:      roleIDs,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, emailTakenError()
		}
		return User{}, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueWelcomeEmail(ctx, user.ID); err != nil && s.logger != nil {
			s.logger.Warn("enqueue welcome email", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}
	return user, nil
}

// Update applies a user update. A blank password leaves the stored hash
// untouched; a nil role set leaves assignments untouched. Updates never
// enqueue a welcome notification.
func (s *Service) Update(ctx context.Context, id int64, name, email, password string, roleIDs []int64) (User, error) {
	name = strings.TrimSpace(name)
	email = shared.NormalizeEmail(email)

	if err := s.checkEmail(ctx, email, id); err != nil {
		return User{}, err
	}
	if roleIDs != nil {
		if err := s.checkRoleIDs(ctx, roleIDs); err != nil {
			return User{}, err
		}
	}

	var hash string
	if password != "" {
		if err := s.policy.Validate(password); err != nil {
			return User{}, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		hash = string(hashed)
	}

	user, err := s.repo.Update(ctx, UpdateParams{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleIDs:      roleIDs,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, emailTakenError()
		}
		return User{}, err
	}
	return user, nil
}

// Delete removes a user and its role assignments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkEmail(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return emailTakenError()
	}
	return nil
}

func (s *Service) checkRoleIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return httpx.NewValidationError("role_ids", "At least one role must be assigned to the user.")
	}
	unique := dedupe(ids)
	count, err := s.repo.CountRoles(ctx, unique)
	if err != nil {
		return err
	}
	if count != len(unique) {
		return httpx.NewValidationError("role_ids", "One or more selected roles do not exist.")
	}
	return nil
}

func emailTakenError() error {
	return httpx.NewValidationError("email", "The email has already been taken.")
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
