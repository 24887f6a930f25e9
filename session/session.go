// Package session issues and verifies the signed tokens that carry a
// back-office login.
//
// A session is an HS256 JWT whose subject is the user ID and whose jti is a
// random UUID. It travels in the HTTP-only auth_token cookie. Logging out
// adds the jti to a Revoker until the token would have expired anyway.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/havelihousing/backoffice/id"
)

// CookieName is the cookie that carries the session token.
const CookieName = "auth_token"

const issuer = "haveli-backoffice"

var (
	ErrInvalidToken = errors.New("session: invalid or expired token")
	ErrRevoked      = errors.New("session: token has been revoked")
)

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject as a user ID.
func (c *Claims) UserID() (id.UserID, error) {
	return id.ParseUserID(c.Subject)
}

// Manager signs, verifies and revokes sessions.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoker Revoker
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRevoker sets where logged-out token IDs are kept. The default is an
// in-process MemoryRevoker.
func WithRevoker(r Revoker) Option {
	return func(m *Manager) {
		m.revoker = r
	}
}

// WithSecureCookie marks the cookie Secure, for deployments behind TLS.
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithClock replaces the time source. Tests use it to expire tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager. The secret must not be empty.
func NewManager(secret []byte, ttl time.Duration, opts ...Option) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session: ttl must be positive, got %s", ttl)
	}
	m := &Manager{
		secret:  secret,
		ttl:     ttl,
		revoker: NewMemoryRevoker(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL is the lifetime of an issued token.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a new token for userID.
func (m *Manager) Issue(userID id.UserID) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("session: sign: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature, expiry and issuer of token, then consults
// the revoker. Every rejection wraps ErrInvalidToken or ErrRevoked.
func (m *Manager) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}

	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("session: check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke invalidates claims until they expire.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	until := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if !until.After(m.now()) {
		return nil
	}
	if err := m.revoker.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

// Cookie wraps token in the session cookie.
func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	}
}

// ClearCookie returns a cookie that deletes the session cookie.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}
