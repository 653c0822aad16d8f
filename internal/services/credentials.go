package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stagegate/stagegate-backend/internal/autherrs"
	"github.com/stagegate/stagegate-backend/internal/config"
	"github.com/stagegate/stagegate-backend/internal/identity"
	"github.com/stagegate/stagegate-backend/internal/models"
	"github.com/stagegate/stagegate-backend/internal/retry"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is the single rejection for unknown email,
	// missing password hash, and hash mismatch alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is logged internally; clients see the same
	// generic rejection as ErrInvalidCredentials.
	ErrEmailNotVerified = errors.New("email not verified")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// CredentialService validates email/password pairs and owns credential
// registration and email verification.
type CredentialService struct {
	store identity.Store
	cfg   *config.Config
}

func NewCredentialService(store identity.Store, cfg *config.Config) *CredentialService {
	return &CredentialService{store: store, cfg: cfg}
}

// Verify authenticates an email/password pair. It returns the user only when
// the password matches and the email has been verified; every failure mode a
// caller could distinguish collapses into ErrInvalidCredentials.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	// Shape failures are rejected before any storage access.
	if !validEmailShape(email) || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := retry.Do(ctx, s.cfg.RetryMaxAttempts, s.cfg.RetryBaseDelay,
		func(ctx context.Context) (*models.User, error) {
			return s.store.FindUserByEmail(ctx, email)
		})
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, autherrs.Wrap(autherrs.KindDatabaseError, "credential lookup failed", err)
	}

	// OAuth-only accounts have no hash and cannot sign in with a password.
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.EmailVerifiedAt == nil {
		return nil, ErrEmailNotVerified
	}
	return user, nil
}

// Register creates a credential user. The account starts unverified and
// cannot sign in until the email is confirmed.
func (s *CredentialService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if !validEmailShape(email) {
		return nil, errors.New("a valid email is required")
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	_, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return nil, autherrs.Wrap(autherrs.KindDatabaseError, "registration lookup failed", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, autherrs.Wrap(autherrs.KindSignInFailed, "failed to hash password", err)
	}
	hashStr := string(hash)

	user := &models.User{
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: &hashStr,
		Role:         models.RoleUser,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, autherrs.Wrap(autherrs.KindDatabaseError, "failed to create user", err)
	}
	return user, nil
}

// ConfirmEmail marks a credential user's email as verified.
func (s *CredentialService) ConfirmEmail(ctx context.Context, email string) error {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return autherrs.Wrap(autherrs.KindDatabaseError, "verification lookup failed", err)
	}
	if user.EmailVerifiedAt != nil {
		return nil
	}
	if err := s.store.MarkEmailVerified(ctx, user.ID, time.Now()); err != nil {
		return autherrs.Wrap(autherrs.KindDatabaseError, "failed to mark email verified", err)
	}
	return nil
}

func validEmailShape(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
