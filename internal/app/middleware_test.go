package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-hq/vantage/internal/authz"
	_ "github.com/vantage-hq/vantage/testing"
)

func throttledHandler(opts ThrottleOptions) http.Handler {
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mws := APIThrottle(opts)
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

func TestAPIThrottleBySubject(t *testing.T) {
	handler := throttledHandler(ThrottleOptions{SubjectLimit: 2, IPLimit: 100, Window: time.Minute})

	do := func(subjectID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		req = req.WithContext(authz.ContextWithSubject(req.Context(), authz.SubjectID(subjectID)))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res
	}

	require.Equal(t, http.StatusOK, do(1).Code)
	require.Equal(t, http.StatusOK, do(1).Code)

	res := do(1)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.JSONEq(t, `{"message":"Too many requests. Please retry in a minute."}`, res.Body.String())

	// A different subject from the same address keeps its own budget.
	assert.Equal(t, http.StatusOK, do(2).Code)
}

func TestAPIThrottleByIP(t *testing.T) {
	handler := throttledHandler(ThrottleOptions{SubjectLimit: 100, IPLimit: 3, Window: time.Minute})

	do := func(subjectID int64, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
		req.RemoteAddr = addr
		req = req.WithContext(authz.ContextWithSubject(req.Context(), authz.SubjectID(subjectID)))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res
	}

	// Distinct subjects cannot dodge the per-address ceiling.
	require.Equal(t, http.StatusOK, do(1, "10.0.0.9:5000").Code)
	require.Equal(t, http.StatusOK, do(2, "10.0.0.9:5000").Code)
	require.Equal(t, http.StatusOK, do(3, "10.0.0.9:5000").Code)

	res := do(4, "10.0.0.9:5000")
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.JSONEq(t, `{"message":"Too many requests. Please retry in a minute."}`, res.Body.String())

	assert.Equal(t, http.StatusOK, do(5, "10.0.0.10:5000").Code)
}

func TestAPIThrottleGuestsShareOneBucket(t *testing.T) {
	handler := throttledHandler(ThrottleOptions{SubjectLimit: 1, IPLimit: 100, Window: time.Minute})

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.RemoteAddr = addr
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res
	}

	// Unauthenticated traffic is keyed on a single guest bucket, so a second
	// request is throttled even when it arrives from another address.
	require.Equal(t, http.StatusOK, do("10.0.0.20:5000").Code)
	res := do("10.0.0.21:5000")
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.JSONEq(t, `{"message":"Too many requests. Please retry in a minute."}`, res.Body.String())

	// An authenticated subject is unaffected by the guest bucket.
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req.RemoteAddr = "10.0.0.22:5000"
	req = req.WithContext(authz.ContextWithSubject(req.Context(), authz.SubjectID(7)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
