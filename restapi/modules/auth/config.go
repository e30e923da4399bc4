package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Config holds the authentication settings read from the environment
type Config struct {
	JWTSecret         string
	JWTIssuer         string
	SessionTTL        time.Duration
	BcryptCost        int
	Cookie            CookieConfig
	ResetLinkBase     string
	ResetRequireToken bool
	SeedAccountsPath  string
}

// CookieConfig controls the attributes of the session cookies
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// LoadConfig reads the authentication settings. JWT_SECRET is mandatory.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "users-backend"),
		ResetLinkBase:    strings.TrimRight(getEnv("RESET_LINK_BASE", "http://localhost:3000/api/v1/users/verify"), "/"),
		SeedAccountsPath: getEnv("SEED_ACCOUNTS_PATH", ""),
		Cookie: CookieConfig{
			Domain: getEnv("COOKIE_DOMAIN", ""),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL: %q", getEnv("SESSION_TTL", ""))
	}
	cfg.SessionTTL = ttl

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", "0"))
	if err != nil || cost < 0 {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %q", getEnv("BCRYPT_COST", ""))
	}
	cfg.BcryptCost = cost

	if cfg.Cookie.Secure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "true")); err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	sameSite, err := parseSameSite(getEnv("COOKIE_SAMESITE", "none"))
	if err != nil {
		return nil, err
	}
	cfg.Cookie.SameSite = sameSite

	if cfg.ResetRequireToken, err = strconv.ParseBool(getEnv("RESET_REQUIRE_TOKEN", "false")); err != nil {
		return nil, fmt.Errorf("invalid RESET_REQUIRE_TOKEN: %w", err)
	}

	return cfg, nil
}

func parseSameSite(s string) (string, error) {
	switch strings.ToLower(s) {
	case "none":
		return fiber.CookieSameSiteNoneMode, nil
	case "lax":
		return fiber.CookieSameSiteLaxMode, nil
	case "strict":
		return fiber.CookieSameSiteStrictMode, nil
	default:
		return "", fmt.Errorf("invalid COOKIE_SAMESITE: %q", s)
	}
}
