package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/vantage-hq/vantage/internal/authz"
	"github.com/vantage-hq/vantage/internal/platform/httpx"
	"github.com/vantage-hq/vantage/internal/shared"
)

// Summary aggregates the admin landing counts.
type Summary struct {
	UsersCount         int64 `json:"users_count"`
	RolesCount         int64 `json:"roles_count"`
	PermissionsCount   int64 `json:"permissions_count"`
	VerifiedUsersCount int64 `json:"verified_users_count"`
}

// Handler serves the admin dashboard summary.
type Handler struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
	authz  authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, pool: pool, authz: authz}
}

// MountRoutes registers the dashboard route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAbility(shared.AbilityViewDashboard))
		r.Get("/", h.summary)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	var s Summary
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(h.count(ctx, `SELECT count(*) FROM users`, &s.UsersCount))
	g.Go(h.count(ctx, `SELECT count(*) FROM roles`, &s.RolesCount))
	g.Go(h.count(ctx, `SELECT count(*) FROM permissions`, &s.PermissionsCount))
	g.Go(h.count(ctx, `SELECT count(*) FROM users WHERE email_verified_at IS NOT NULL`, &s.VerifiedUsersCount))
	if err := g.Wait(); err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, s)
}

func (h *Handler) count(ctx context.Context, query string, dest *int64) func() error {
	return func() error {
		return h.pool.QueryRow(ctx, query).Scan(dest)
	}
}
