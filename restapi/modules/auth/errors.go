package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors returned by the account service and the gates.
// The duplicate errors also match ErrValidation.
var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateEmail    = &validationError{msg: "duplicate email"}
	ErrDuplicateMobile   = &validationError{msg: "duplicate mobile"}
	ErrNotFound          = errors.New("user not found")
	ErrMissingCredential = errors.New("missing session token")
	ErrAuthentication    = errors.New("authentication failed")
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token expired")
	ErrForbidden         = errors.New("role not permitted")
	ErrInvalidCredential = errors.New("invalid password")
	ErrUnauthenticated   = errors.New("no authenticated subject")
	ErrHashing           = errors.New("password hashing failed")
	ErrInternal          = errors.New("internal error")
)

// clientMessages holds the response text for each sentinel
var clientMessages = []struct {
	err error
	msg string
}{
	{ErrDuplicateEmail, "User with this email already exists"},
	{ErrDuplicateMobile, "Mobile number must be unique"},
	{ErrNotFound, "User not found"},
	{ErrMissingCredential, "Access denied"},
	{ErrInvalidToken, "Reset token does not match"},
	{ErrAuthentication, "Invalid token"},
	{ErrExpiredToken, "Invalid token"},
	{ErrForbidden, "You are not authorized."},
	{ErrInvalidCredential, "Invalid password"},
	{ErrUnauthenticated, "User not authenticated"},
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

// fieldError is a validation failure with a client-facing message
type fieldError struct {
	msg string
}

func (e *fieldError) Error() string { return e.msg }

func (e *fieldError) Unwrap() error { return ErrValidation }

// Invalid returns a validation error carrying msg
func Invalid(msg string) error {
	return &fieldError{msg: msg}
}

// StatusFor maps an error onto the HTTP status used by the REST API.
// Session token failures never reach handlers directly; the gates turn them into
// ErrAuthentication. A bare ErrInvalidToken therefore means a reset token that
// matched no account, which is reported as 404.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrMissingCredential):
		return fiber.StatusForbidden
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredential), errors.Is(err, ErrUnauthenticated):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidToken):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrForbidden), errors.Is(err, ErrExpiredToken):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// MessageFor returns the client-facing message for err.
// Internal failures collapse to a generic message.
func MessageFor(err error) string {
	if StatusFor(err) >= fiber.StatusInternalServerError {
		return "Internal server error"
	}

	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.msg
	}

	for _, m := range clientMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}
