// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/storefront/users-backend/restapi/modules/auth"
	"go.uber.org/zap"
)

// Deps carries everything the routes are built from
type Deps struct {
	Accounts *auth.UserAccountService
	Sessions auth.TokenVerifier
	Metrics  *auth.Metrics
	Cookies  auth.CookieConfig
	Schema   graphql.Schema
	Logger   *zap.Logger
}

// SetupRoutes configures the account routes under /api/v1/users and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, deps Deps) {
	svc, logger := deps.Accounts, deps.Logger
	authn := auth.Authenticate(deps.Sessions, deps.Metrics)

	api := app.Group("/api/v1")

	api.Post("/graphql", auth.OptionalAuthenticate(deps.Sessions), GraphQLHandler(deps.Schema))

	users := api.Group("/users")

	// Public routes
	users.Get("/checkAuth", auth.CheckAuth(svc, logger))
	users.Post("/", auth.Register(svc, logger))
	users.Post("/login", auth.Login(svc, deps.Cookies, logger))
	users.Post("/forgot", auth.ForgotPassword(svc, logger))
	users.Get("/verify/:token", auth.VerifyResetToken(svc, logger))
	users.Post("/reset", auth.ResetPassword(svc, logger))

	// Session routes
	users.Get("/logout", authn, auth.CacheControl(), auth.Logout(svc, deps.Cookies))
	users.Get("/admin", authn, auth.RequireAdmin(svc, deps.Metrics), auth.ListAccounts(svc, logger))
	users.Post("/admin/seed", authn, auth.RequireAdmin(svc, deps.Metrics), auth.ApplySeedFromBody(svc, logger))
	users.Post("/admin/seed/upload", authn, auth.RequireAdmin(svc, deps.Metrics), auth.ApplySeedFromUpload(svc, logger))
	users.Get("/vendor", authn, auth.RequireVendorOrAdmin(svc, deps.Metrics), auth.VendorArea())
	users.Get("/", authn, auth.GetProfile(svc, logger))
	users.Put("/:id", authn, auth.UpdateProfile(svc, logger))
	users.Delete("/:id", authn, auth.DeleteAccount(svc, deps.Cookies, logger))

	logger.Info("API routes initialized successfully")
}
