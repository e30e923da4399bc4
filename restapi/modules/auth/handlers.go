// Package auth provides authentication handlers for Fiber.
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/storefront/users-backend/model"
	"github.com/storefront/users-backend/util"
	"go.uber.org/zap"
)

// ============================================================================
// SESSION HANDLERS
// ============================================================================

// Register handles public account registration
func Register(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterInput
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}

		profile, err := svc.Register(c.UserContext(), req)
		if err != nil {
			return respondError(c, logger, "Failed to register account", err)
		}

		return c.Status(fiber.StatusCreated).JSON(model.AccountResponse{
			Message: "Your account has been created successfully.",
			User:    profile,
		})
	}
}

// Login checks the credentials and sets the session cookies
func Login(svc *UserAccountService, cookies CookieConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}

		result, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, logger, "Failed to log in", err)
		}

		SetSessionCookies(c, cookies, result.Token, result.Profile.Role, result.ExpiresAt)

		return c.JSON(model.AccountResponse{
			Message: "Login successful",
			User:    result.Profile,
		})
	}
}

// Logout clears the session cookies of an authenticated caller
func Logout(svc *UserAccountService, cookies CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subjectID, _ := SubjectID(c)
		if err := svc.Logout(subjectID); err != nil {
			return reject(c, err)
		}

		ClearSessionCookies(c, cookies)
		return c.JSON(model.MessageResponse{Message: "Logged out successfully"})
	}
}

// CheckAuth reports the stored role of the session owner
func CheckAuth(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := svc.CheckAuth(c.UserContext(), c.Cookies(TokenCookie))
		if err != nil {
			return respondError(c, logger, "Failed to check authentication", err)
		}

		return c.JSON(model.CheckAuthResponse{
			Message: "Authentication successful",
			Role:    role,
		})
	}
}

// ============================================================================
// PASSWORD RESET HANDLERS
// ============================================================================

// ForgotPassword emails a reset link to the account holder
func ForgotPassword(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ForgotPasswordRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}

		if err := svc.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
			return respondError(c, logger, "Failed to request password reset", err)
		}

		return c.JSON(model.MessageResponse{
			Message: "Password reset link has been sent to your email address",
		})
	}
}

// VerifyResetToken resolves the reset token in the path to its email
func VerifyResetToken(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, err := svc.VerifyResetToken(c.UserContext(), c.Params("token"))
		if err != nil {
			return respondError(c, logger, "Failed to verify reset token", err)
		}

		return c.JSON(model.ResetVerificationResponse{
			Message: "Reset token verified successfully",
			Email:   email,
		})
	}
}

// ResetPassword stores a new password
func ResetPassword(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ResetPasswordInput
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}

		if err := svc.ResetPassword(c.UserContext(), req); err != nil {
			return respondError(c, logger, "Failed to reset password", err)
		}

		return c.JSON(model.MessageResponse{Message: "Password reset successfully"})
	}
}

// ============================================================================
// PROFILE HANDLERS
// ============================================================================

// GetProfile returns the profile of the session owner
func GetProfile(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subjectID, _ := SubjectID(c)
		profile, err := svc.GetProfile(c.UserContext(), subjectID)
		if err != nil {
			return respondError(c, logger, "Failed to fetch profile", err)
		}
		return c.JSON(profile)
	}
}

// UpdateProfile changes the profile named by the :id path parameter
func UpdateProfile(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UpdateProfileInput
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}

		profile, err := svc.UpdateProfile(c.UserContext(), util.SanitizeKey(c.Params("id")), req)
		if err != nil {
			return respondError(c, logger, "Failed to update profile", err)
		}

		return c.JSON(model.UpdatedAccountResponse{
			Message:     "User profile updated successfully",
			UpdatedUser: profile,
		})
	}
}

// DeleteAccount removes the account named by the :id path parameter and clears the session cookies
func DeleteAccount(svc *UserAccountService, cookies CookieConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteAccount(c.UserContext(), util.SanitizeKey(c.Params("id"))); err != nil {
			return respondError(c, logger, "Failed to delete account", err)
		}

		ClearSessionCookies(c, cookies)
		return c.JSON(model.MessageResponse{Message: "User deleted successfully"})
	}
}

// ============================================================================
// ROLE-GATED HANDLERS
// ============================================================================

// ListAccounts returns every non-admin account
func ListAccounts(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profiles, err := svc.ListNonAdminAccounts(c.UserContext())
		if err != nil {
			return respondError(c, logger, "Failed to list accounts", err)
		}
		return c.JSON(model.AccountListResponse{AllUsers: profiles})
	}
}

// VendorArea confirms vendor-or-admin access for the caller
func VendorArea() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := Account(c)
		if !ok {
			return reject(c, ErrAuthentication)
		}
		return c.JSON(model.CheckAuthResponse{
			Message: "Vendor access granted",
			Role:    user.Role,
		})
	}
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// SetSessionCookies sets the token and role cookies, both expiring with the session
func SetSessionCookies(c *fiber.Ctx, cfg CookieConfig, token string, role model.Role, expires time.Time) {
	c.Cookie(sessionCookie(cfg, TokenCookie, token, expires))
	c.Cookie(sessionCookie(cfg, RoleCookie, string(role), expires))
}

// ClearSessionCookies expires the token and role cookies
func ClearSessionCookies(c *fiber.Ctx, cfg CookieConfig) {
	for _, name := range []string{TokenCookie, RoleCookie} {
		cookie := sessionCookie(cfg, name, "", time.Now().Add(-1*time.Hour))
		cookie.MaxAge = -1
		c.Cookie(cookie)
	}
}

func sessionCookie(cfg CookieConfig, name, value string, expires time.Time) *fiber.Cookie {
	sameSite := cfg.SameSite
	if sameSite == "" {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite,
	}
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(model.MessageResponse{Message: "Invalid request body"})
}

// respondError writes the mapped status and message for err. Server-side failures are logged
// and never expose their cause.
func respondError(c *fiber.Ctx, logger *zap.Logger, msg string, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		util.LogError(logger, msg, err)
	}
	return c.Status(status).JSON(model.MessageResponse{Message: MessageFor(err)})
}
