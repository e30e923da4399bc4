package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long a session token stays valid
const DefaultSessionTTL = 24 * time.Hour

// SessionConfig configures a SessionTokenService
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
	Now    func() time.Time // defaults to time.Now
}

// SessionTokenService issues and verifies signed session tokens.
// It holds no per-session state.
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSessionTokenService validates cfg and builds the service
func NewSessionTokenService(cfg SessionConfig) (*SessionTokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SessionTokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens
func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subjectID and returns it with its expiry
func (s *SessionTokenService) Issue(subjectID string) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, errors.New("subject is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Verify checks the signature, algorithm, issuer and expiry of token and returns its subject.
// Expired tokens fail with ErrExpiredToken, every other failure with ErrInvalidToken.
func (s *SessionTokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
