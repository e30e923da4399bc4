package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/storefront/users-backend/graphql"
	"github.com/storefront/users-backend/internal/api"
	"github.com/storefront/users-backend/restapi"
	"github.com/storefront/users-backend/restapi/modules/auth"
	"github.com/storefront/users-backend/restapi/modules/auth/authtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()

	t.Setenv("CORS_ORIGINS", "")

	reg := prometheus.NewRegistry()
	metrics := auth.NewMetrics(reg)
	sessions, err := auth.NewSessionTokenService(auth.SessionConfig{Secret: "test-secret"})
	require.NoError(t, err)

	svc := auth.NewUserAccountService(auth.ServiceDeps{
		Store:         authtest.NewMemoryStore(),
		Hasher:        auth.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:        sessions,
		Notifier:      &authtest.RecordingNotifier{},
		Metrics:       metrics,
		Logger:        zap.NewNop(),
		ResetLinkBase: "http://localhost:3000/api/v1/users/verify",
	})

	schema, err := graphql.CreateSchema(svc)
	require.NoError(t, err)

	return api.NewFiberApp(restapi.Deps{
		Accounts: svc,
		Sessions: sessions,
		Metrics:  metrics,
		Cookies:  auth.CookieConfig{Secure: true, SameSite: fiber.CookieSameSiteNoneMode},
		Schema:   schema,
		Logger:   zap.NewNop(),
	}, reg)
}

type client struct {
	t       *testing.T
	app     *fiber.App
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.app.Test(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if set := resp.Cookies(); len(set) > 0 {
		c.cookies = set
	}
	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestCustomerJourney(t *testing.T) {
	c := &client{t: t, app: newApp(t)}

	resp, _ := c.do(http.MethodPost, "/api/v1/users", auth.RegisterInput{
		Name: "Ann", Email: "a@x.com", Password: "secret1", Mobile: "5550001", Role: "customer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := c.do(http.MethodPost, "/api/v1/users/login", auth.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", body["message"])
	require.Len(t, c.cookies, 2)

	resp, body = c.do(http.MethodGet, "/api/v1/users/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "You are not authorized.", body["message"])

	resp, body = c.do(http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "customer", body["role"])

	resp, body = c.do(http.MethodGet, "/api/v1/users/checkAuth", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "customer", body["role"])

	resp, body = c.do(http.MethodPost, "/api/v1/graphql", map[string]string{"query": "{ me { email } }"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@x.com", body["data"].(map[string]interface{})["me"].(map[string]interface{})["email"])

	resp, _ = c.do(http.MethodGet, "/api/v1/users/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	c := &client{t: t, app: newApp(t)}

	resp, body := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	resp, body = c.do(http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Kindly verify the endpoint.", body["error"])

	resp, _ = c.do(http.MethodGet, "/api/v1/users/logout", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newApp(t)
	c := &client{t: t, app: app}
	c.do(http.MethodPost, "/api/v1/users/login", auth.LoginRequest{Email: "ghost@x.com", Password: "pw"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "users_backend_logins_total")
}

func TestCORSPreflight(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	req.Header.Set(fiber.HeaderOrigin, api.DefaultCORSOrigins)
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodPost)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, api.DefaultCORSOrigins, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
}
