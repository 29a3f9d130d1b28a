package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the browser-session state: the signed-in user plus the active
// tenant. It is persisted as a signed JWT in an HTTP-only cookie and
// re-derived from that cookie on every request.
type Session struct {
	UserID string
	Email  string
	Name   string
	// TenantID is the active church; empty until one is selected.
	TenantID string
	// TenantRole is the user's role within the active church.
	TenantRole string
}

// ErrInvalidToken indicates the session token failed verification.
var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`
	TenantRole string `json:"tenant_role,omitempty"`
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a Manager. TTL zero selects 12h.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL reports how long issued tokens remain valid.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the session.
func (m *Manager) Issue(s Session, now time.Time) (string, error) {
	if strings.TrimSpace(s.UserID) == "" {
		return "", errors.New("user id is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email:      s.Email,
		Name:       s.Name,
		TenantID:   s.TenantID,
		TenantRole: s.TenantRole,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the embedded session.
func (m *Manager) Verify(token string) (Session, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return Session{
		UserID:     parsed.Subject,
		Email:      parsed.Email,
		Name:       parsed.Name,
		TenantID:   parsed.TenantID,
		TenantRole: parsed.TenantRole,
	}, nil
}
