package authz

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vantage-hq/vantage/internal/shared"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func newTestMiddleware(store Store) Middleware {
	return Middleware{
		Evaluator: NewEvaluator(store),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRequireAbilityWithoutSubject(t *testing.T) {
	mw := newTestMiddleware(newStubStore())
	handler := mw.RequireAbility(shared.AbilityViewDashboard)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"message":"Unauthenticated."}`, res.Body.String())
}

func TestRequireAbilityDenied(t *testing.T) {
	store := newStubStore()
	mw := newTestMiddleware(store)
	handler := mw.RequireAbility(shared.AbilityManageUsers)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req = req.WithContext(ContextWithSubject(req.Context(), SubjectID(3)))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.JSONEq(t, `{"message":"This action is unauthorized."}`, res.Body.String())
}

func TestRequireAbilityAllowed(t *testing.T) {
	store := newStubStore()
	store.abilities[3] = []string{shared.AbilityManageUsers}
	mw := newTestMiddleware(store)
	handler := mw.RequireAbility(shared.AbilityManageUsers)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req = req.WithContext(ContextWithSubject(req.Context(), SubjectID(3)))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Body.String())
}
