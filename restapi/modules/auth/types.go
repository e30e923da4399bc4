// Package auth provides authentication and authorization types for the REST API.
package auth

import (
	"strings"
	"time"

	"github.com/storefront/users-backend/model"
)

// RegisterInput is the body of the registration request
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
	Role     string `json:"role"`
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
}

func (in *RegisterInput) validate() error {
	switch {
	case in.Name == "":
		return Invalid("Name is required")
	case in.Email == "":
		return Invalid("Email is required")
	case in.Password == "":
		return Invalid("Password is required")
	case in.Mobile == "":
		return Invalid("Mobile is required")
	}
	return nil
}

// LoginRequest defines the body of the login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   model.Profile
}

// ForgotPasswordRequest starts the reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordInput completes the reset flow. Token is optional unless
// the service is configured to require it.
type ResetPasswordInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token,omitempty"`
}

// UpdateProfileInput carries profile changes. Empty fields keep their current value.
type UpdateProfileInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

func (in *UpdateProfileInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
