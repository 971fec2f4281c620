package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vantage-hq/vantage/internal/auth"
	"github.com/vantage-hq/vantage/internal/dashboard"
	"github.com/vantage-hq/vantage/internal/observability"
	"github.com/vantage-hq/vantage/internal/permissions"
	"github.com/vantage-hq/vantage/internal/roles"
	"github.com/vantage-hq/vantage/internal/shared"
	"github.com/vantage-hq/vantage/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	AuthHandler        *auth.Handler
	DashboardHandler   *dashboard.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *permissions.Handler
	Metrics            *observability.Metrics
	Throttle           ThrottleOptions
}

// NewRouter constructs the chi.Router with Vantage defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(auth.SubjectMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		for _, mw := range APIThrottle(params.Throttle) {
			r.Use(mw)
		}

		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Route("/v1/admin", func(r chi.Router) {
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
