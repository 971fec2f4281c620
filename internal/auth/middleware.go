package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vantage-hq/vantage/internal/authz"
	"github.com/vantage-hq/vantage/internal/shared"
)

// SubjectMiddleware resolves the session into an authorization subject and
// stores it in the request context. Requests with no usable session pass
// through without a subject; downstream enforcement rejects them as
// unauthenticated.
func SubjectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx := authz.ContextWithSubject(r.Context(), authz.SubjectID(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
