package permissions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vantage-hq/vantage/internal/authz"
	"github.com/vantage-hq/vantage/internal/platform/httpx"
	"github.com/vantage-hq/vantage/internal/shared"
)

// Handler serves the permission registry listing consumed by the role editor.
type Handler struct {
	logger *slog.Logger
	repo   *Repository
	authz  authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, authz: authz}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAbility(shared.AbilityManageRoles))
		r.Get("/", h.list)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	httpx.Data(w, http.StatusOK, perms)
}
