package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/storefront/users-backend/model"
	"github.com/storefront/users-backend/restapi/modules/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatedApp(f *serviceFixture) *fiber.App {
	app := fiber.New()
	authn := auth.Authenticate(f.sessions, f.metrics)

	app.Get("/private", authn, auth.RequireAuthenticated(), func(c *fiber.Ctx) error {
		id, _ := auth.SubjectID(c)
		ctxID, _ := auth.SubjectFromContext(c.UserContext())
		return c.JSON(fiber.Map{"subject": id, "ctx_subject": ctxID})
	})
	app.Get("/vendor", authn, auth.RequireVendorOrAdmin(f.svc, f.metrics), auth.VendorArea())
	app.Get("/admin", authn, auth.RequireAdmin(f.svc, f.metrics), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/optional", auth.OptionalAuthenticate(f.sessions), func(c *fiber.Ctx) error {
		id, ok := auth.SubjectID(c)
		return c.JSON(fiber.Map{"subject": id, "authenticated": ok})
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	body := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	return resp, body
}

func (f *serviceFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	res, err := f.svc.Login(context.Background(), email, password)
	require.NoError(t, err)
	return res.Token
}

func TestAuthenticate(t *testing.T) {
	f := newServiceFixture(t)
	app := gatedApp(f)
	p := f.register(t, "Ann", "ann@x.com", "pw", "1", model.RoleCustomer)
	token := f.login(t, "ann@x.com", "pw")

	t.Run("missing cookie is 403", func(t *testing.T) {
		resp, body := get(t, app, "/private", "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Access denied", body["message"])
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		resp, body := get(t, app, "/private", "forged")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", body["message"])
	})

	t.Run("valid token sets the subject", func(t *testing.T) {
		resp, body := get(t, app, "/private", token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, p.ID, body["subject"])
		assert.Equal(t, p.ID, body["ctx_subject"])
	})

	t.Run("expired token is 401", func(t *testing.T) {
		f.clock.Advance(auth.DefaultSessionTTL + 1)
		defer f.clock.Advance(-(auth.DefaultSessionTTL + 1))

		resp, _ := get(t, app, "/private", token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GateRejectionsTotal.WithLabelValues("authenticate", "missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GateRejectionsTotal.WithLabelValues("authenticate", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GateRejectionsTotal.WithLabelValues("authenticate", "expired")))
}

func TestOptionalAuthenticate(t *testing.T) {
	f := newServiceFixture(t)
	app := gatedApp(f)
	f.register(t, "Ann", "ann@x.com", "pw", "1", model.RoleCustomer)
	token := f.login(t, "ann@x.com", "pw")

	_, body := get(t, app, "/optional", "")
	assert.Equal(t, false, body["authenticated"])

	_, body = get(t, app, "/optional", "forged")
	assert.Equal(t, false, body["authenticated"])

	_, body = get(t, app, "/optional", token)
	assert.Equal(t, true, body["authenticated"])
}

func TestRoleGates(t *testing.T) {
	f := newServiceFixture(t)
	app := gatedApp(f)
	f.register(t, "C", "c@x.com", "pw", "1", model.RoleCustomer)
	f.register(t, "V", "v@x.com", "pw", "2", model.RoleVendor)
	f.register(t, "A", "a@x.com", "pw", "3", model.RoleAdmin)

	tokens := map[model.Role]string{
		model.RoleCustomer: f.login(t, "c@x.com", "pw"),
		model.RoleVendor:   f.login(t, "v@x.com", "pw"),
		model.RoleAdmin:    f.login(t, "a@x.com", "pw"),
	}

	tests := []struct {
		path string
		role model.Role
		want int
	}{
		{"/admin", model.RoleCustomer, http.StatusUnauthorized},
		{"/admin", model.RoleVendor, http.StatusUnauthorized},
		{"/admin", model.RoleAdmin, http.StatusOK},
		{"/vendor", model.RoleCustomer, http.StatusUnauthorized},
		{"/vendor", model.RoleVendor, http.StatusOK},
		{"/vendor", model.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path+" as "+string(tt.role), func(t *testing.T) {
			resp, body := get(t, app, tt.path, tokens[tt.role])
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "You are not authorized.", body["message"])
			}
		})
	}

	t.Run("role cookie is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: tokens[model.RoleCustomer]})
		req.AddCookie(&http.Cookie{Name: auth.RoleCookie, Value: "admin"})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("vanished account is 404", func(t *testing.T) {
		f.register(t, "G", "g@x.com", "pw", "4", model.RoleAdmin)
		token := f.login(t, "g@x.com", "pw")
		ghost, err := f.svc.Authorize(context.Background(), mustSubject(t, f, token), model.RoleAdmin)
		require.NoError(t, err)
		require.NoError(t, f.svc.DeleteAccount(context.Background(), ghost.Key))

		resp, body := get(t, app, "/admin", token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "User not found", body["message"])
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.GateRejectionsTotal.WithLabelValues("require_admin", "forbidden")))
}

func mustSubject(t *testing.T, f *serviceFixture, token string) string {
	t.Helper()
	id, err := f.sessions.Verify(token)
	require.NoError(t, err)
	return id
}

func TestCacheControl(t *testing.T) {
	app := fiber.New()
	app.Get("/", auth.CacheControl(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
}
