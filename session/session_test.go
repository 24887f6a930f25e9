package session_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/session"
)

var secret = []byte("test-secret")

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	m, err := session.NewManager(secret, time.Hour)
	require.NoError(t, err)

	userID := id.NewUserID()
	token, issued, err := m.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.Verify(ctx, token)
	require.NoError(t, err)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestVerifyRejects(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	m, err := session.NewManager(secret, time.Hour, session.WithClock(clock))
	require.NoError(t, err)
	other, err := session.NewManager([]byte("another-secret"), time.Hour, session.WithClock(clock))
	require.NoError(t, err)

	valid, _, err := m.Issue(id.NewUserID())
	require.NoError(t, err)
	foreign, _, err := other.Issue(id.NewUserID())
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "haveli-backoffice",
		Subject:   id.NewUserID().String(),
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	later, err := session.NewManager(secret, time.Hour, session.WithClock(func() time.Time { return now.Add(2 * time.Hour) }))
	require.NoError(t, err)

	tests := []struct {
		name  string
		m     *session.Manager
		token string
	}{
		{"garbage", m, "not-a-token"},
		{"empty", m, ""},
		{"wrong secret", m, foreign},
		{"alg none", m, unsigned},
		{"expired", later, valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.m.Verify(ctx, tt.token)
			assert.ErrorIs(t, err, session.ErrInvalidToken)
		})
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	revoker := session.NewMemoryRevoker()
	m, err := session.NewManager(secret, time.Hour, session.WithRevoker(revoker))
	require.NoError(t, err)

	userID := id.NewUserID()
	token, _, err := m.Issue(userID)
	require.NoError(t, err)
	claims, err := m.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))
	assert.Equal(t, 1, revoker.Len())

	_, err = m.Verify(ctx, token)
	assert.ErrorIs(t, err, session.ErrRevoked)

	// Other sessions of the same user are unaffected.
	second, _, err := m.Issue(userID)
	require.NoError(t, err)
	_, err = m.Verify(ctx, second)
	assert.NoError(t, err)
}

func TestMemoryRevokerExpiry(t *testing.T) {
	ctx := context.Background()
	r := session.NewMemoryRevoker()

	require.NoError(t, r.Revoke(ctx, "gone", time.Now().Add(-time.Minute)))
	require.NoError(t, r.Revoke(ctx, "held", time.Now().Add(time.Hour)))

	revoked, err := r.IsRevoked(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = r.IsRevoked(ctx, "held")
	require.NoError(t, err)
	assert.True(t, revoked)

	// The next revocation prunes the expired entry.
	require.NoError(t, r.Revoke(ctx, "another", time.Now().Add(time.Hour)))
	assert.Equal(t, 2, r.Len())
}

func TestCookies(t *testing.T) {
	m, err := session.NewManager(secret, 24*time.Hour, session.WithSecureCookie(true))
	require.NoError(t, err)

	c := m.Cookie("tok")
	assert.Equal(t, session.CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 86400, c.MaxAge)

	cleared := m.ClearCookie()
	assert.Equal(t, session.CookieName, cleared.Name)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestNewManagerValidation(t *testing.T) {
	_, err := session.NewManager(nil, time.Hour)
	assert.Error(t, err)
	_, err = session.NewManager(secret, 0)
	assert.Error(t, err)
}

func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis test")
	}
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	r := session.NewRedisRevoker(rdb, "backoffice:test:"+uuid.NewString()+":")
	tokenID := uuid.NewString()

	revoked, err := r.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, tokenID, time.Now().Add(time.Minute)))
	revoked, err = r.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestConnectRevokerWithoutAddr(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, closeFn, err := session.ConnectRevoker(context.Background(), "", "", logger)
	require.NoError(t, err)
	require.NoError(t, closeFn())
	assert.IsType(t, &session.MemoryRevoker{}, r)
}
