package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/storefront/users-backend/database"
	"github.com/storefront/users-backend/model"
	"github.com/storefront/users-backend/util"
	"go.uber.org/zap"
)

// UserStore persists accounts. Implementations report missing documents with
// database.ErrNotFound and unique index violations with database.ErrDuplicateEmail
// or database.ErrDuplicateMobile. Update writes profile fields only; the password hash and
// reset token change solely through ResetPassword and SetResetToken.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetToken(ctx context.Context, token string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MobileExists(ctx context.Context, mobile string) (bool, error)
	Create(ctx context.Context, user *model.User) (*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)
	SetResetToken(ctx context.Context, key, token string) (*model.User, error)
	ResetPassword(ctx context.Context, email, passwordHash, token string) (*model.User, error)
	Delete(ctx context.Context, id string) (*model.User, error)
	ListNonAdmin(ctx context.Context) ([]*model.User, error)
}

// SessionTokens issues and verifies session tokens
type SessionTokens interface {
	Issue(subjectID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// ServiceDeps wires the collaborators of a UserAccountService
type ServiceDeps struct {
	Store       UserStore
	Hasher      PasswordHasher
	Tokens      SessionTokens
	ResetTokens ResetTokenGenerator
	Notifier    Notifier
	Metrics     *Metrics
	Logger      *zap.Logger

	ResetLinkBase     string
	ResetRequireToken bool
}

// UserAccountService implements the account operations behind the REST API
type UserAccountService struct {
	store       UserStore
	hasher      PasswordHasher
	tokens      SessionTokens
	resetTokens ResetTokenGenerator
	notifier    Notifier
	metrics     *Metrics
	logger      *zap.Logger

	resetLinkBase     string
	resetRequireToken bool
}

// NewUserAccountService builds the service. Hasher and ResetTokens default to bcrypt and crypto/rand.
func NewUserAccountService(deps ServiceDeps) *UserAccountService {
	if deps.Hasher == nil {
		deps.Hasher = BcryptHasher{}
	}
	if deps.ResetTokens == nil {
		deps.ResetTokens = RandomTokenGenerator{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &UserAccountService{
		store:             deps.Store,
		hasher:            deps.Hasher,
		tokens:            deps.Tokens,
		resetTokens:       deps.ResetTokens,
		notifier:          deps.Notifier,
		metrics:           deps.Metrics,
		logger:            deps.Logger,
		resetLinkBase:     deps.ResetLinkBase,
		resetRequireToken: deps.ResetRequireToken,
	}
}

// Register creates a new account. Email and mobile must both be unused.
func (s *UserAccountService) Register(ctx context.Context, in RegisterInput) (model.Profile, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return model.Profile{}, err
	}

	role, err := model.ParseRole(in.Role)
	if err != nil {
		return model.Profile{}, Invalid(err.Error())
	}

	// advisory checks; the unique indexes decide under concurrency
	exists, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		return model.Profile{}, storeError(err, "USER_REGISTER_FAILED", "EmailExists")
	}
	if exists {
		return model.Profile{}, ErrDuplicateEmail
	}

	exists, err = s.store.MobileExists(ctx, in.Mobile)
	if err != nil {
		return model.Profile{}, storeError(err, "USER_REGISTER_FAILED", "MobileExists")
	}
	if exists {
		return model.Profile{}, ErrDuplicateMobile
	}

	hash, err := s.hash(in.Password, "USER_REGISTER_FAILED")
	if err != nil {
		return model.Profile{}, err
	}

	user := model.NewUser(in.Name, in.Email, in.Mobile, role)
	user.PasswordHash = hash

	created, err := s.store.Create(ctx, user)
	if err != nil {
		return model.Profile{}, storeError(err, "USER_REGISTER_FAILED", "Create")
	}

	s.metrics.registered(string(role))
	s.logger.Info("Account registered", zap.String("id", created.Key), zap.String("role", string(role)))
	return created.Profile(), nil
}

// Login checks the credentials and issues a session token
func (s *UserAccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.login("invalid_request")
		return nil, Invalid("Email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.metrics.login("unknown_email")
			return nil, ErrNotFound
		}
		return nil, storeError(err, "USER_LOGIN_FAILED", "FindByEmail")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.login("bad_password")
		return nil, ErrInvalidCredential
	}

	token, expiresAt, err := s.tokens.Issue(user.Key)
	if err != nil {
		return nil, oops.Code("USER_LOGIN_FAILED").With("operation", "Issue").Wrap(err)
	}

	s.metrics.login("success")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Profile: user.Profile()}, nil
}

// Logout ends the session of subjectID. Sessions are stateless, so this only validates
// that a subject is present; the handler clears the cookies.
func (s *UserAccountService) Logout(subjectID string) error {
	if subjectID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// CheckAuth verifies a session token and returns the role stored on the account
func (s *UserAccountService) CheckAuth(ctx context.Context, token string) (model.Role, error) {
	if token == "" {
		return "", ErrAuthentication
	}

	subjectID, err := s.tokens.Verify(token)
	if err != nil {
		return "", ErrAuthentication
	}

	user, err := s.store.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrAuthentication
		}
		return "", storeError(err, "USER_CHECK_AUTH_FAILED", "FindByID")
	}
	return user.Role, nil
}

// RequestPasswordReset stores a fresh reset token on the account and emails the reset link.
// Delivery failures are logged and do not fail the request.
func (s *UserAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return Invalid("Email is required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.metrics.resetRequested("unknown_email")
			return ErrNotFound
		}
		return storeError(err, "RESET_REQUEST_FAILED", "FindByEmail")
	}

	token, err := s.resetTokens.Generate()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").With("operation", "Generate").Wrap(err)
	}

	if _, err := s.store.SetResetToken(ctx, user.Key, token); err != nil {
		return storeError(err, "RESET_REQUEST_FAILED", "SetResetToken")
	}

	if s.notifier == nil {
		s.metrics.resetRequested("not_sent")
		s.logger.Warn("No notifier configured, reset email not sent", zap.String("id", user.Key))
		return nil
	}

	if err := s.sendResetEmail(ctx, user, token); err != nil {
		s.metrics.resetRequested("send_failed")
		util.LogError(s.logger, "Failed to send password reset email",
			oops.Code("RESET_EMAIL_FAILED").With("id", user.Key).Wrap(err))
		return nil
	}

	s.metrics.resetRequested("sent")
	return nil
}

// VerifyResetToken returns the email of the account holding token
func (s *UserAccountService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	user, err := s.store.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", storeError(err, "RESET_VERIFY_FAILED", "FindByResetToken")
	}
	return user.Email, nil
}

// ResetPassword stores a new password and clears any pending reset token.
// When a token is presented, or the service requires one, the update only applies if the
// stored token matches, which consumes it.
func (s *UserAccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		return Invalid("Email and password are required")
	}

	if _, err := s.store.FindByEmail(ctx, in.Email); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return storeError(err, "RESET_PASSWORD_FAILED", "FindByEmail")
	}

	if s.resetRequireToken && in.Token == "" {
		return ErrInvalidToken
	}

	hash, err := s.hash(in.Password, "RESET_PASSWORD_FAILED")
	if err != nil {
		return err
	}

	if _, err := s.store.ResetPassword(ctx, in.Email, hash, in.Token); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			if in.Token != "" {
				return ErrInvalidToken
			}
			return ErrNotFound
		}
		return storeError(err, "RESET_PASSWORD_FAILED", "ResetPassword")
	}

	s.logger.Info("Password reset", zap.Bool("token_checked", in.Token != ""))
	return nil
}

// GetProfile returns the profile of the account id
func (s *UserAccountService) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	user, err := s.find(ctx, id, "USER_GET_FAILED")
	if err != nil {
		return model.Profile{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile changes name, email and mobile of the account id
func (s *UserAccountService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (model.Profile, error) {
	in.normalize()

	user, err := s.find(ctx, id, "USER_UPDATE_FAILED")
	if err != nil {
		return model.Profile{}, err
	}

	if in.Email != "" && in.Email != user.Email {
		exists, err := s.store.EmailExists(ctx, in.Email)
		if err != nil {
			return model.Profile{}, storeError(err, "USER_UPDATE_FAILED", "EmailExists")
		}
		if exists {
			return model.Profile{}, ErrDuplicateEmail
		}
		user.Email = in.Email
	}

	if in.Mobile != "" && in.Mobile != user.Mobile {
		exists, err := s.store.MobileExists(ctx, in.Mobile)
		if err != nil {
			return model.Profile{}, storeError(err, "USER_UPDATE_FAILED", "MobileExists")
		}
		if exists {
			return model.Profile{}, ErrDuplicateMobile
		}
		user.Mobile = in.Mobile
	}

	if in.Name != "" {
		user.Name = in.Name
	}

	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return model.Profile{}, storeError(err, "USER_UPDATE_FAILED", "Update")
	}
	return updated.Profile(), nil
}

// DeleteAccount removes the account id
func (s *UserAccountService) DeleteAccount(ctx context.Context, id string) error {
	id = util.SanitizeKey(id)
	if !util.IsValidKey(id) {
		return ErrNotFound
	}

	if _, err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, "USER_DELETE_FAILED", "Delete")
	}

	s.logger.Info("Account deleted", zap.String("id", id))
	return nil
}

// ListNonAdminAccounts returns the profiles of every customer and vendor
func (s *UserAccountService) ListNonAdminAccounts(ctx context.Context) ([]model.Profile, error) {
	users, err := s.store.ListNonAdmin(ctx)
	if err != nil {
		return nil, storeError(err, "USER_LIST_FAILED", "ListNonAdmin")
	}

	profiles := make([]model.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// Authorize loads the account of subjectID and checks that it holds one of roles
func (s *UserAccountService) Authorize(ctx context.Context, subjectID string, roles ...model.Role) (*model.User, error) {
	user, err := s.find(ctx, subjectID, "USER_AUTHORIZE_FAILED")
	if err != nil {
		return nil, err
	}
	if !user.HasRole(roles...) {
		return nil, ErrForbidden
	}
	return user, nil
}

// SeedAccounts applies a seed file through the service's store and hasher
func (s *UserAccountService) SeedAccounts(ctx context.Context, config *SeedConfig) (*SeedResult, error) {
	result, err := ApplySeed(ctx, s.store, s.hasher, config)
	if err != nil {
		return nil, storeError(err, "USER_SEED_FAILED", "ApplySeed")
	}
	s.logger.Info("Seed applied",
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *UserAccountService) find(ctx context.Context, id, code string) (*model.User, error) {
	id = util.SanitizeKey(id)
	if !util.IsValidKey(id) {
		return nil, ErrNotFound
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, code, "FindByID")
	}
	return user, nil
}

func (s *UserAccountService) hash(password, code string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return "", err
		}
		return "", oops.Code(code).With("operation", "Hash").Wrap(errors.Join(ErrHashing, err))
	}
	return hash, nil
}

// sendResetEmail hands the reset off to an out-of-process notifier when one is configured,
// otherwise renders the link here and sends it directly
func (s *UserAccountService) sendResetEmail(ctx context.Context, user *model.User, token string) error {
	if rn, ok := s.notifier.(ResetNotifier); ok {
		return rn.SendPasswordReset(ctx, user.Email)
	}

	body, err := renderResetEmail(ResetEmailData{Name: user.Name, ResetLink: resetLink(s.resetLinkBase, token)})
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, user.Email, resetEmailSubject, body)
}

// storeError translates persistence errors into the service taxonomy and
// wraps anything unexpected with an oops code
func storeError(err error, code, operation string) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, database.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, database.ErrDuplicateMobile):
		return ErrDuplicateMobile
	}
	return oops.Code(code).With("operation", operation).Wrap(err)
}
