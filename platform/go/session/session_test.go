package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	return manager
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	manager := newManager(t)
	original := Session{
		UserID:     "u1",
		Email:      "pastor@example.com",
		Name:       "Pat",
		TenantID:   "church-1",
		TenantRole: "admin",
	}

	token, err := manager.Issue(original, time.Now().UTC())
	require.NoError(t, err)

	verified, err := manager.Verify(token)
	require.NoError(t, err)
	require.Equal(t, original, verified)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	manager := newManager(t)
	token, err := manager.Issue(Session{UserID: "u1"}, time.Now().UTC())
	require.NoError(t, err)

	_, err = manager.Verify(token + "x")
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewManager("other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	manager := newManager(t)
	token, err := manager.Issue(Session{UserID: "u1"}, time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = manager.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareAttachesSession(t *testing.T) {
	t.Parallel()

	manager := newManager(t)
	token, err := manager.Issue(Session{UserID: "u1", TenantID: "church-1"}, time.Now().UTC())
	require.NoError(t, err)

	var seen Session
	var ok bool
	handler := Middleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	require.Equal(t, "church-1", seen.TenantID)
}

func TestRequireRejectsAnonymous(t *testing.T) {
	t.Parallel()

	handler := Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareClearsBadCookie(t *testing.T) {
	t.Parallel()

	manager := newManager(t)
	handler := Middleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context())
		require.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CookieName, cookies[0].Name)
	require.Equal(t, -1, cookies[0].MaxAge)
}
