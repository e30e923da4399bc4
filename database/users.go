package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/storefront/users-backend/model"
)

// Persistence errors. Callers match them with errors.Is.
var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateMobile = errors.New("mobile already registered")
)

// UserRepository stores accounts in the users collection
type UserRepository struct {
	db arangodb.Database
}

// NewUserRepository returns a repository backed by an initialized connection
func NewUserRepository(conn DBConnection) *UserRepository {
	return &UserRepository{db: conn.Database}
}

// FindByID loads a user by document key
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `FOR u IN users FILTER u._key == @key LIMIT 1 RETURN u`
	return r.queryOne(ctx, query, map[string]interface{}{"key": id})
}

// FindByEmail loads a user by email address
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `FOR u IN users FILTER u.email == @email LIMIT 1 RETURN u`
	return r.queryOne(ctx, query, map[string]interface{}{"email": email})
}

// FindByResetToken loads the user holding a pending reset token
func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	query := `FOR u IN users FILTER u.reset_token == @token LIMIT 1 RETURN u`
	return r.queryOne(ctx, query, map[string]interface{}{"token": token})
}

// EmailExists reports whether an account already uses the email
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

// MobileExists reports whether an account already uses the mobile number
func (r *UserRepository) MobileExists(ctx context.Context, mobile string) (bool, error) {
	return r.exists(ctx, "mobile", mobile)
}

// Create inserts a new account and returns the stored document
func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT {
			name: @name,
			email: @email,
			mobile: @mobile,
			password_hash: @password_hash,
			role: @role,
			is_prime: @is_prime,
			addresses: @addresses,
			cards: @cards,
			wishlists: @wishlists,
			created_at: @created_at,
			updated_at: @updated_at
		} INTO users
		RETURN NEW
	`
	bindVars := map[string]interface{}{
		"name":          user.Name,
		"email":         user.Email,
		"mobile":        user.Mobile,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"is_prime":      user.IsPrime,
		"addresses":     nonNil(user.Addresses),
		"cards":         nonNil(user.Cards),
		"wishlists":     nonNil(user.Wishlists),
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}

	created, err := r.queryOne(ctx, query, bindVars)
	if err != nil {
		return nil, classifyWriteError(err)
	}
	return created, nil
}

// updateProfileQuery never touches password_hash or reset_token; those change only through
// ResetPassword and SetResetToken so a concurrent reset cannot be overwritten.
const updateProfileQuery = `
	FOR u IN users
	FILTER u._key == @key
	UPDATE u WITH {
		name: @name,
		email: @email,
		mobile: @mobile,
		role: @role,
		is_prime: @is_prime,
		updated_at: @updated_at
	} IN users
	RETURN NEW
`

const setResetTokenQuery = `
	FOR u IN users
	FILTER u._key == @key
	UPDATE u WITH {
		reset_token: @reset_token,
		updated_at: @updated_at
	} IN users
	RETURN NEW
`

// Update writes the profile fields of an existing account: name, email, mobile, role and
// prime status. The password hash and reset token are left as stored.
func (r *UserRepository) Update(ctx context.Context, user *model.User) (*model.User, error) {
	bindVars := map[string]interface{}{
		"key":        user.Key,
		"name":       user.Name,
		"email":      user.Email,
		"mobile":     user.Mobile,
		"role":       user.Role,
		"is_prime":   user.IsPrime,
		"updated_at": time.Now().UTC(),
	}

	updated, err := r.queryOne(ctx, updateProfileQuery, bindVars)
	if err != nil {
		return nil, classifyWriteError(err)
	}
	return updated, nil
}

// SetResetToken stores a pending reset token on the account key and nothing else
func (r *UserRepository) SetResetToken(ctx context.Context, key, token string) (*model.User, error) {
	return r.queryOne(ctx, setResetTokenQuery, map[string]interface{}{
		"key":         key,
		"reset_token": token,
		"updated_at":  time.Now().UTC(),
	})
}

// ResetPassword stores a new password hash and drops any pending reset token in one statement.
// With a non-empty token the update only applies when the stored token matches, so a token
// can be consumed at most once. ErrNotFound means no document matched.
func (r *UserRepository) ResetPassword(ctx context.Context, email, passwordHash, token string) (*model.User, error) {
	filter := `FILTER u.email == @email`
	bindVars := map[string]interface{}{
		"email":         email,
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	}
	if token != "" {
		filter += ` AND u.reset_token == @token`
		bindVars["token"] = token
	}

	query := fmt.Sprintf(`
		FOR u IN users
		%s
		LIMIT 1
		UPDATE u WITH {
			password_hash: @password_hash,
			reset_token: null,
			updated_at: @updated_at
		} IN users OPTIONS { keepNull: false }
		RETURN NEW
	`, filter)

	return r.queryOne(ctx, query, bindVars)
}

// Delete removes an account and returns the removed document
func (r *UserRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	query := `FOR u IN users FILTER u._key == @key REMOVE u IN users RETURN OLD`
	return r.queryOne(ctx, query, map[string]interface{}{"key": id})
}

// ListNonAdmin returns every account whose role is not admin, oldest first
func (r *UserRepository) ListNonAdmin(ctx context.Context) ([]*model.User, error) {
	query := `FOR u IN users FILTER u.role != @admin SORT u.created_at ASC RETURN u`
	cursor, err := r.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"admin": model.RoleAdmin},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	users := []*model.User{}
	for cursor.HasMore() {
		var user model.User
		if _, err := cursor.ReadDocument(ctx, &user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, nil
}

func (r *UserRepository) exists(ctx context.Context, field, value string) (bool, error) {
	query := fmt.Sprintf(`FOR u IN users FILTER u.%s == @value LIMIT 1 RETURN 1`, field)
	cursor, err := r.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"value": value},
	})
	if err != nil {
		return false, err
	}
	defer cursor.Close()
	return cursor.HasMore(), nil
}

func (r *UserRepository) queryOne(ctx context.Context, query string, bindVars map[string]interface{}) (*model.User, error) {
	cursor, err := r.db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, ErrNotFound
	}

	var user model.User
	if _, err := cursor.ReadDocument(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// classifyWriteError maps unique index violations onto the duplicate sentinels.
// ArangoDB reports them as "unique constraint violated - in index <name> ...".
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "unique constraint violated") {
		return err
	}
	switch {
	case strings.Contains(msg, idxUsersEmailUnique):
		return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
	case strings.Contains(msg, idxUsersMobileUnique):
		return fmt.Errorf("%w: %v", ErrDuplicateMobile, err)
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
