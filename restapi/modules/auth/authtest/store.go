// Package authtest provides in-memory collaborators for testing the auth package.
package authtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storefront/users-backend/database"
	"github.com/storefront/users-backend/model"
)

// MemoryStore is an in-memory UserStore that enforces the same uniqueness rules as the
// ArangoDB indexes. Err, when set, is returned by every method.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int

	Err error
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*model.User)}
}

// Get returns a copy of the stored user, bypassing Err
func (s *MemoryStore) Get(id string) (*model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return clone(u), true
}

// Len returns the number of stored users
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// FindByID implements auth.UserStore
func (s *MemoryStore) FindByID(_ context.Context, id string) (*model.User, error) {
	return s.findOne(func(u *model.User) bool { return u.Key == id })
}

// FindByEmail implements auth.UserStore
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return s.findOne(func(u *model.User) bool { return u.Email == email })
}

// FindByResetToken implements auth.UserStore
func (s *MemoryStore) FindByResetToken(_ context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, database.ErrNotFound
	}
	return s.findOne(func(u *model.User) bool { return u.ResetToken == token })
}

// EmailExists implements auth.UserStore
func (s *MemoryStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, func(u *model.User) bool { return u.Email == email })
}

// MobileExists implements auth.UserStore
func (s *MemoryStore) MobileExists(ctx context.Context, mobile string) (bool, error) {
	return s.exists(ctx, func(u *model.User) bool { return u.Mobile == mobile })
}

// Create implements auth.UserStore
func (s *MemoryStore) Create(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.checkUnique(user, ""); err != nil {
		return nil, err
	}

	s.nextID++
	stored := clone(user)
	stored.Key = fmt.Sprintf("%d", 1000+s.nextID)
	stored.Rev = "1"
	s.users[stored.Key] = stored
	return clone(stored), nil
}

// Update implements auth.UserStore. Like the database it writes profile fields only.
func (s *MemoryStore) Update(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if _, ok := s.users[user.Key]; !ok {
		return nil, database.ErrNotFound
	}
	if err := s.checkUnique(user, user.Key); err != nil {
		return nil, err
	}

	stored := s.users[user.Key]
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Mobile = user.Mobile
	stored.Role = user.Role
	stored.IsPrime = user.IsPrime
	stored.UpdatedAt = time.Now().UTC()
	return clone(stored), nil
}

// SetResetToken implements auth.UserStore
func (s *MemoryStore) SetResetToken(_ context.Context, key, token string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[key]
	if !ok {
		return nil, database.ErrNotFound
	}
	u.ResetToken = token
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

// ResetPassword implements auth.UserStore with the same conditional semantics as the database
func (s *MemoryStore) ResetPassword(_ context.Context, email, passwordHash, token string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if token != "" && u.ResetToken != token {
			return nil, database.ErrNotFound
		}
		u.PasswordHash = passwordHash
		u.ResetToken = ""
		u.UpdatedAt = time.Now().UTC()
		return clone(u), nil
	}
	return nil, database.ErrNotFound
}

// Delete implements auth.UserStore
func (s *MemoryStore) Delete(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	delete(s.users, id)
	return u, nil
}

// ListNonAdmin implements auth.UserStore
func (s *MemoryStore) ListNonAdmin(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	users := []*model.User{}
	for _, u := range s.users {
		if u.Role != model.RoleAdmin {
			users = append(users, clone(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Key < users[j].Key })
	return users, nil
}

func (s *MemoryStore) findOne(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *MemoryStore) exists(_ context.Context, match func(*model.User) bool) (bool, error) {
	_, err := s.findOne(match)
	switch {
	case err == nil:
		return true, nil
	case err == database.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func (s *MemoryStore) checkUnique(user *model.User, selfKey string) error {
	for key, u := range s.users {
		if key == selfKey {
			continue
		}
		if u.Email == user.Email {
			return fmt.Errorf("%w: unique constraint violated", database.ErrDuplicateEmail)
		}
		if u.Mobile == user.Mobile {
			return fmt.Errorf("%w: unique constraint violated", database.ErrDuplicateMobile)
		}
	}
	return nil
}

func clone(u *model.User) *model.User {
	c := *u
	c.Addresses = append([]string{}, u.Addresses...)
	c.Cards = append([]string{}, u.Cards...)
	c.Wishlists = append([]string{}, u.Wishlists...)
	return &c
}
