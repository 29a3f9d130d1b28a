package session

import (
	"context"
	"net/http"
	"time"
)

// CookieName holds the signed session token.
const CookieName = "chorus_session"

type ctxKey struct{}

// FromContext retrieves the session attached by Middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// IntoContext stores a session on the context; exposed for tests.
func IntoContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Middleware reads the session cookie, verifies it and attaches the session
// to the request context. Requests without a valid cookie pass through
// unauthenticated; Require gates the protected surface.
func Middleware(manager *Manager) func(http.Handler) http.Handler {
	if manager == nil {
		panic("session manager is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			s, err := manager.Verify(cookie.Value)
			if err != nil {
				// Expired or tampered cookie: clear it and continue anonymous.
				ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), s)))
		})
	}
}

// Require rejects unauthenticated requests with 401.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, "sign-in required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteCookie persists a freshly issued token on the response.
func WriteCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie, used on logout.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
