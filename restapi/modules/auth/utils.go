// Package auth provides authentication and authorization for the user service.
//
//revive:disable-next-line:var-naming
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
// PASSWORD HASHING
// ============================================================================

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. A zero Cost uses bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

// Hash generates a salted bcrypt hash of the password
func (b BcryptHasher) Hash(plaintext string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", Invalid("Password must be at most 72 bytes")
		}
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(bytes), nil
}

// Verify compares a password with a hash. A malformed hash is a mismatch.
func (b BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// ============================================================================
// RESET TOKEN GENERATION
// ============================================================================

// resetTokenBytes is the amount of entropy in a reset token (256 bits)
const resetTokenBytes = 32

// ResetTokenGenerator produces single-use password reset tokens
type ResetTokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator draws reset tokens from crypto/rand
type RandomTokenGenerator struct{}

// Generate returns a URL-safe, unpadded base64 token
func (RandomTokenGenerator) Generate() (string, error) {
	return GenerateSecureToken(resetTokenBytes)
}

// GenerateSecureToken generates a cryptographically secure random token of length bytes
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		length = resetTokenBytes
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
