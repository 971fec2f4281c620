package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-hq/vantage/internal/shared"
	_ "github.com/vantage-hq/vantage/testing"
)

func newManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	sess.SetUser("42")
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, manager.CookieName(), cookies[0].Name)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	reloaded, err := manager.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, reloaded.ID)
	assert.Equal(t, "42", reloaded.User())
	assert.Equal(t, "dark", reloaded.Get("theme"))
}

func TestSessionDestroy(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("42")

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))
	cookie := res.Result().Cookies()[0]

	manager.Destroy(sess)
	res2 := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res2, req, sess))

	// The clearing cookie has MaxAge -1; a client replaying the old ID gets
	// an empty session because the backing entry is gone.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	reloaded, err := manager.Load(ctx, next)
	require.NoError(t, err)
	assert.Empty(t, reloaded.User())
	assert.Empty(t, reloaded.Get("theme"))
}

func TestUnknownCookieYieldsEmptySession(t *testing.T) {
	manager := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: "not-a-real-session"})

	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, sess.User())
	assert.Empty(t, sess.Get("anything"))
}
