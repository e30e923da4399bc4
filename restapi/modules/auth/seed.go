// Package auth provides startup seeding of accounts from a YAML file.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/storefront/users-backend/database"
	"github.com/storefront/users-backend/model"
	"gopkg.in/yaml.v2"
)

// SeedConfig represents the YAML structure of the seed file
type SeedConfig struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// SeedAccount represents one account in the seed file.
// Exactly one of Password and PasswordHash must be set.
type SeedAccount struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Mobile       string `yaml:"mobile"`
	Role         string `yaml:"role"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
	IsPrime      bool   `yaml:"is_prime"`
}

// SeedResult tracks the outcome of a seed apply
type SeedResult struct {
	Created   []string `json:"created"`
	Updated   []string `json:"updated"`
	Unchanged []string `json:"unchanged"`
	Errors    []string `json:"errors"`
}

// LoadSeedConfig reads and parses the seed file
func LoadSeedConfig(filepath string) (*SeedConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeedConfig(data)
}

// ParseSeedConfig parses and validates seed YAML
func ParseSeedConfig(data []byte) (*SeedConfig, error) {
	var config SeedConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSeedConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &config, nil
}

// validateSeedConfig ensures the configuration is valid and normalizes emails
func validateSeedConfig(config *SeedConfig) error {
	seenEmails := make(map[string]bool)
	seenMobiles := make(map[string]bool)

	for i := range config.Accounts {
		acct := &config.Accounts[i]
		acct.Email = normalizeEmail(acct.Email)

		if acct.Email == "" {
			return fmt.Errorf("email is required for account #%d", i+1)
		}
		if acct.Name == "" {
			return fmt.Errorf("name is required for %s", acct.Email)
		}
		if acct.Mobile == "" {
			return fmt.Errorf("mobile is required for %s", acct.Email)
		}
		if _, err := model.ParseRole(acct.Role); err != nil {
			return fmt.Errorf("%v for %s", err, acct.Email)
		}
		if (acct.Password == "") == (acct.PasswordHash == "") {
			return fmt.Errorf("exactly one of password and password_hash is required for %s", acct.Email)
		}

		if seenEmails[acct.Email] {
			return fmt.Errorf("duplicate email: %s", acct.Email)
		}
		seenEmails[acct.Email] = true

		if seenMobiles[acct.Mobile] {
			return fmt.Errorf("duplicate mobile: %s", acct.Mobile)
		}
		seenMobiles[acct.Mobile] = true
	}
	return nil
}

// ApplySeed creates missing accounts and brings name, mobile, role and prime status of
// existing ones in line with the file. Passwords of existing accounts are left alone and
// accounts absent from the file are never removed.
func ApplySeed(ctx context.Context, store UserStore, hasher PasswordHasher, config *SeedConfig) (*SeedResult, error) {
	result := &SeedResult{
		Created:   []string{},
		Updated:   []string{},
		Unchanged: []string{},
		Errors:    []string{},
	}

	for _, acct := range config.Accounts {
		role, err := model.ParseRole(acct.Role)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Skipped %s: %v", acct.Email, err))
			continue
		}

		existing, err := store.FindByEmail(ctx, acct.Email)
		switch {
		case err == nil:
			if !seedDiffers(existing, acct, role) {
				result.Unchanged = append(result.Unchanged, acct.Email)
				continue
			}
			existing.Name = acct.Name
			existing.Mobile = acct.Mobile
			existing.Role = role
			existing.IsPrime = acct.IsPrime
			if _, err := store.Update(ctx, existing); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to update %s: %v", acct.Email, err))
				continue
			}
			result.Updated = append(result.Updated, acct.Email)

		case errors.Is(err, database.ErrNotFound):
			hash := acct.PasswordHash
			if hash == "" {
				if hash, err = hasher.Hash(acct.Password); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Failed to hash password for %s: %v", acct.Email, err))
					continue
				}
			}

			user := model.NewUser(acct.Name, acct.Email, acct.Mobile, role)
			user.PasswordHash = hash
			user.IsPrime = acct.IsPrime
			if _, err := store.Create(ctx, user); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to create %s: %v", acct.Email, err))
				continue
			}
			result.Created = append(result.Created, acct.Email)

		default:
			return nil, fmt.Errorf("failed to look up %s: %w", acct.Email, err)
		}
	}

	return result, nil
}

func seedDiffers(u *model.User, acct SeedAccount, role model.Role) bool {
	return u.Name != acct.Name || u.Mobile != acct.Mobile || u.Role != role || u.IsPrime != acct.IsPrime
}
