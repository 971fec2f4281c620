package authz

import (
	"log/slog"
	"net/http"

	"github.com/vantage-hq/vantage/internal/platform/httpx"
)

// Middleware wires authorization enforcement for HTTP handlers. Every guarded
// entry point resolves the subject and consults the evaluator before any
// storage access happens in the handler.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
}

// RequireAbility rejects requests whose subject lacks the ability. An absent
// subject is unauthenticated, which is distinct from forbidden.
func (m Middleware) RequireAbility(ability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := SubjectFromContext(r.Context())
			if !ok {
				httpx.Unauthenticated(w)
				return
			}
			allowed, err := m.Evaluator.Allows(r.Context(), subject, ability)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz require ability", slog.String("ability", ability), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if !allowed {
				httpx.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSubject rejects unauthenticated requests without any ability check.
func (m Middleware) RequireSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SubjectFromContext(r.Context()); !ok {
			httpx.Unauthenticated(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
