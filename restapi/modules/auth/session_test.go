package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront/users-backend/restapi/modules/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newSessions(t *testing.T, clock *fakeClock) *auth.SessionTokenService {
	t.Helper()
	svc, err := auth.NewSessionTokenService(auth.SessionConfig{
		Secret: "test-secret",
		Issuer: "users-backend",
		Now:    clock.Now,
	})
	require.NoError(t, err)
	return svc
}

func TestNewSessionTokenService_RequiresSecret(t *testing.T) {
	_, err := auth.NewSessionTokenService(auth.SessionConfig{})
	assert.Error(t, err)
}

func TestSessionTokenService_IssueAndVerify(t *testing.T) {
	clock := newClock()
	svc := newSessions(t, clock)

	token, expiresAt, err := svc.Issue("1234")
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(24*time.Hour), expiresAt)
	assert.Equal(t, auth.DefaultSessionTTL, svc.TTL())

	subject, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "1234", subject)
}

func TestSessionTokenService_Expiry(t *testing.T) {
	clock := newClock()
	svc := newSessions(t, clock)

	token, _, err := svc.Issue("1234")
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, err = svc.Verify(token)
	assert.NoError(t, err)

	clock.Advance(time.Hour + time.Second)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestSessionTokenService_Rejects(t *testing.T) {
	clock := newClock()
	svc := newSessions(t, clock)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return tok
	}
	valid := jwt.RegisteredClaims{
		Subject:   "1234",
		Issuer:    "users-backend",
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not.a.jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other-secret"), valid)},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte("test-secret"), valid)},
		{"unsigned", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{"wrong issuer", sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
			Subject: "1234", Issuer: "someone-else", ExpiresAt: valid.ExpiresAt,
		})},
		{"missing subject", sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
			Issuer: "users-backend", ExpiresAt: valid.ExpiresAt,
		})},
		{"missing expiry", sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
			Subject: "1234", Issuer: "users-backend",
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestSessionTokenService_IssueRequiresSubject(t *testing.T) {
	svc := newSessions(t, newClock())
	_, _, err := svc.Issue("")
	assert.Error(t, err)
}
