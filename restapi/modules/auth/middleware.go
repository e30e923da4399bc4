package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/storefront/users-backend/model"
)

// TokenCookie and RoleCookie name the session cookies
const (
	TokenCookie = "token"
	RoleCookie  = "role"
)

// c.Locals keys set by the gates
const (
	localSubjectID = "subject_id"
	localAccount   = "account"
)

type ctxKey int

const subjectKey ctxKey = iota

// TokenVerifier resolves a session token to its subject
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authorizer loads the account behind a subject and checks its role
type Authorizer interface {
	Authorize(ctx context.Context, subjectID string, roles ...model.Role) (*model.User, error)
}

// WithSubject returns a copy of ctx carrying subjectID
func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectKey, subjectID)
}

// SubjectFromContext returns the subject stored by WithSubject
func SubjectFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(subjectKey).(string)
	return id, ok && id != ""
}

// SubjectID returns the subject set by Authenticate
func SubjectID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(localSubjectID).(string)
	return id, ok && id != ""
}

func setSubject(c *fiber.Ctx, subjectID string) {
	c.Locals(localSubjectID, subjectID)
	c.SetUserContext(WithSubject(c.UserContext(), subjectID))
}

func reject(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(model.MessageResponse{Message: MessageFor(err)})
}

// Authenticate validates the session cookie and blocks guests.
// Only the token is checked here; no account lookup happens at this stage.
func Authenticate(tokens TokenVerifier, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TokenCookie)
		if token == "" {
			metrics.rejected("authenticate", "missing")
			return reject(c, ErrMissingCredential)
		}

		subjectID, err := tokens.Verify(token)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, ErrExpiredToken) {
				reason = "expired"
			}
			metrics.rejected("authenticate", reason)
			return reject(c, ErrAuthentication)
		}

		setSubject(c, subjectID)
		return c.Next()
	}
}

// OptionalAuthenticate identifies the caller if a valid token is present but does not block guests
func OptionalAuthenticate(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TokenCookie)
		if token == "" {
			return c.Next()
		}

		// Invalid or expired tokens are treated as guest access
		if subjectID, err := tokens.Verify(token); err == nil {
			setSubject(c, subjectID)
		}
		return c.Next()
	}
}

// RequireAuthenticated passes only when Authenticate has stored a subject
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SubjectID(c); !ok {
			return reject(c, ErrAuthentication)
		}
		return c.Next()
	}
}

// RequireRole loads the caller's account on every request and checks its stored role.
// The role cookie is never consulted.
func RequireRole(authz Authorizer, metrics *Metrics, roles ...model.Role) fiber.Handler {
	gate := gateName(roles)
	return func(c *fiber.Ctx) error {
		subjectID, ok := SubjectID(c)
		if !ok {
			metrics.rejected(gate, "unauthenticated")
			return reject(c, ErrAuthentication)
		}

		user, err := authz.Authorize(c.UserContext(), subjectID, roles...)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				metrics.rejected(gate, "not_found")
			case errors.Is(err, ErrForbidden):
				metrics.rejected(gate, "forbidden")
			}
			return reject(c, err)
		}

		c.Locals(localAccount, user)
		return c.Next()
	}
}

// Account returns the account loaded by RequireRole
func Account(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(localAccount).(*model.User)
	return user, ok && user != nil
}

// RequireVendorOrAdmin admits vendors and admins
func RequireVendorOrAdmin(authz Authorizer, metrics *Metrics) fiber.Handler {
	return RequireRole(authz, metrics, model.RoleVendor, model.RoleAdmin)
}

// RequireAdmin admits admins only
func RequireAdmin(authz Authorizer, metrics *Metrics) fiber.Handler {
	return RequireRole(authz, metrics, model.RoleAdmin)
}

// CacheControl disables caching of the response
func CacheControl() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}

func gateName(roles []model.Role) string {
	name := "require"
	for _, r := range roles {
		name += "_" + string(r)
	}
	return name
}
