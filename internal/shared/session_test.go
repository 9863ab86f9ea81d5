package shared

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", time.Hour, false), mr
}

func requestWithCookie(sm *SessionManager, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: value})
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	sess.SetUser(42)
	sess.Set("k", "v")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "hello"})

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	require.Len(t, res.Result().Cookies(), 1)

	loaded, err := sm.Load(ctx, requestWithCookie(sm, sess.ID))
	require.NoError(t, err)
	id, ok := loaded.User()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "v", loaded.Get("k"))

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "hello", flash.Message)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), loaded))

	again, err := sm.Load(ctx, requestWithCookie(sm, sess.ID))
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash(), "flash is consumed once")
}

func TestSessionUnknownCookieGetsFreshID(t *testing.T) {
	sm, _ := newTestManager(t)

	sess, err := sm.Load(context.Background(), requestWithCookie(sm, "attacker-chosen"))
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", sess.ID)
	_, ok := sess.User()
	assert.False(t, ok)
}

func TestSessionRenewDropsPreviousRecord(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID

	loaded, err := sm.Load(ctx, requestWithCookie(sm, oldID))
	require.NoError(t, err)
	sm.Renew(loaded)
	loaded.SetUser(7)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), loaded))

	assert.NotEqual(t, oldID, loaded.ID)
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+loaded.ID))
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))

	sm.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))

	assert.False(t, mr.Exists("session:"+sess.ID))
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCSRFTokenVerification(t *testing.T) {
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)

	token := csrf.EnsureToken(ctx, sess)
	require.NotEmpty(t, token)
	assert.Equal(t, token, csrf.EnsureToken(ctx, sess), "token is stable within a session")

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, token+"x"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)
}

func TestMiddlewareCommitsBeforeRedirect(t *testing.T) {
	manager, _ := newTestManager(t)

	handler := manager.Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SessionFromContext(r.Context()).AddFlash(FlashMessage{Kind: "success", Message: "saved"})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Equal(t, http.StatusSeeOther, res.Code)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	sess, err := manager.Load(context.Background(), next)
	require.NoError(t, err)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "saved", flash.Message)
}

func TestMiddlewareCommitsSilentHandlers(t *testing.T) {
	manager, mr := newTestManager(t)

	handler := manager.Middleware(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SessionFromContext(r.Context()).SetUser(9)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, res.Result().Cookies(), 1)
	assert.Len(t, mr.Keys(), 1)
}
