// Package model provides data models for the storefront user service.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

// Supported roles
const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Roles lists every valid role
var Roles = []Role{RoleCustomer, RoleVendor, RoleAdmin}

// ParseRole converts a raw role string into a Role.
// An empty string is rejected; callers must always pick a role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Roles {
		if r == valid {
			return r, nil
		}
	}
	if r == "" {
		return "", fmt.Errorf("role is required")
	}
	return "", fmt.Errorf("invalid role '%s'", s)
}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}

// User represents an account document in the users collection
type User struct {
	Key          string    `json:"_key,omitempty"`
	Rev          string    `json:"_rev,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"password_hash"`
	Role         Role      `json:"role"`
	IsPrime      bool      `json:"is_prime"`
	ResetToken   string    `json:"reset_token,omitempty"` // present only while a reset is pending
	Addresses    []string  `json:"addresses"`
	Cards        []string  `json:"cards"`
	Wishlists    []string  `json:"wishlists"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new user with default values
func NewUser(name, email, mobile string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		Name:      name,
		Email:     email,
		Mobile:    mobile,
		Role:      role,
		Addresses: []string{},
		Cards:     []string{},
		Wishlists: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if user is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasRole reports whether the user holds one of the given roles
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Profile is the client-facing view of a User.
// It never carries the password hash, the reset token or the document revision.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	Role      Role      `json:"role"`
	IsPrime   bool      `json:"is_prime"`
	Addresses []string  `json:"addresses"`
	Cards     []string  `json:"cards"`
	Wishlists []string  `json:"wishlists"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile returns the public representation of the user
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.Key,
		Name:      u.Name,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Role:      u.Role,
		IsPrime:   u.IsPrime,
		Addresses: nonNil(u.Addresses),
		Cards:     nonNil(u.Cards),
		Wishlists: nonNil(u.Wishlists),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
