package app

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/vantage-hq/vantage/internal/authz"
	"github.com/vantage-hq/vantage/internal/observability"
	"github.com/vantage-hq/vantage/internal/platform/httpx"
	"github.com/vantage-hq/vantage/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics
}

type responseWriterWithCommit struct {
	http.ResponseWriter
	sess          *shared.Session
	manager       *shared.SessionManager
	ctx           context.Context
	req           *http.Request
	headerWritten bool
}

func (w *responseWriterWithCommit) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		_ = w.manager.Commit(w.ctx, w.ResponseWriter, w.req, w.sess)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWithCommit) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// MiddlewareStack installs the Vantage middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	sessionMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := cfg.SessionManager.Load(ctx, r)
			if err != nil {
				cfg.Logger.Error("failed to load session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx = shared.ContextWithSession(ctx, sess)

			// Wrap to intercept WriteHeader
			wrapped := &responseWriterWithCommit{
				ResponseWriter: w,
				sess:           sess,
				manager:        cfg.SessionManager,
				ctx:            ctx,
				req:            r.WithContext(ctx),
			}

			next.ServeHTTP(wrapped, r.WithContext(ctx))
		})
	}

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		sessionMiddleware,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}

// ThrottleOptions tunes the API throttle pair. Zero values fall back to the
// standard 60 per-subject / 240 per-IP budget.
type ThrottleOptions struct {
	SubjectLimit int
	IPLimit      int
	Window       time.Duration
}

// APIThrottle enforces the API rate limits: one budget keyed by the
// authenticated subject (all guests share a single bucket) and a wider
// budget keyed by IP alone. Either limit answers with the throttled message.
func APIThrottle(opts ThrottleOptions) []func(http.Handler) http.Handler {
	subjectLimit := opts.SubjectLimit
	if subjectLimit <= 0 {
		subjectLimit = 60
	}
	ipLimit := opts.IPLimit
	if ipLimit <= 0 {
		ipLimit = 240
	}
	window := opts.Window
	if window <= 0 {
		window = time.Minute
	}

	throttled := httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusTooManyRequests, httpx.MsgThrottled)
	})

	bySubject := httprate.Limit(subjectLimit, window,
		httprate.WithKeyFuncs(subjectThrottleKey),
		throttled,
	)
	byIP := httprate.Limit(ipLimit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		throttled,
	)
	return []func(http.Handler) http.Handler{bySubject, byIP}
}

func subjectThrottleKey(r *http.Request) (string, error) {
	if subject, ok := authz.SubjectFromContext(r.Context()); ok {
		return "subject:" + strconv.FormatInt(subject.GetID(), 10), nil
	}
	return "subject:guest", nil
}
