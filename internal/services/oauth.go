package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/stagegate/stagegate-backend/internal/autherrs"
	"github.com/stagegate/stagegate-backend/internal/identity"
	"github.com/stagegate/stagegate-backend/internal/models"
)

// ProviderIdentity is the verified payload of an external-provider callback.
type ProviderIdentity struct {
	Provider          string
	ProviderAccountID string
	Email             string
	Name              string
	RawProfile        []byte
}

// OAuthService reconciles provider identities with local user records.
type OAuthService struct {
	store identity.Store
}

func NewOAuthService(store identity.Store) *OAuthService {
	return &OAuthService{store: store}
}

// Resolve produces an authenticated user for a provider callback: an existing
// link wins, then an email match gets a new linked account attached, and
// otherwise a fresh user is created. Every user leaving this method has a
// non-nil EmailVerifiedAt; provider identities are implicitly trusted.
func (s *OAuthService) Resolve(ctx context.Context, id ProviderIdentity) (*models.User, error) {
	if id.Provider == "" || id.ProviderAccountID == "" || !validEmailShape(id.Email) {
		return nil, autherrs.New(autherrs.KindCallbackError, "incomplete provider identity")
	}

	user, err := s.store.FindUserByAccount(ctx, id.Provider, id.ProviderAccountID)
	if err == nil {
		if err := s.ensureVerified(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return nil, autherrs.Wrap(autherrs.KindOAuthFailed, "linked account lookup failed", err)
	}

	user, err = s.store.FindUserByEmail(ctx, id.Email)
	switch {
	case err == nil:
		// Known email, new provider: attach the account to the existing user.
	case errors.Is(err, identity.ErrNotFound):
		now := time.Now()
		user = &models.User{
			Email:           strings.ToLower(id.Email),
			Name:            id.Name,
			EmailVerifiedAt: &now,
			Role:            models.RoleUser,
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, autherrs.Wrap(autherrs.KindOAuthFailed, "failed to create user", err)
		}
	default:
		return nil, autherrs.Wrap(autherrs.KindOAuthFailed, "user lookup failed", err)
	}

	account := &models.LinkedAccount{
		UserID:            user.ID,
		Provider:          id.Provider,
		ProviderAccountID: id.ProviderAccountID,
	}
	if len(id.RawProfile) > 0 {
		account.Profile = datatypes.JSON(id.RawProfile)
	}
	if err := s.store.CreateLinkedAccount(ctx, account); err != nil {
		return nil, autherrs.Wrap(autherrs.KindOAuthFailed, "failed to link account", err)
	}
	user.Accounts = append(user.Accounts, *account)

	if err := s.ensureVerified(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ensureVerified enforces the invariant that OAuth-originated users always
// carry a verified email, including pre-existing credential users whose
// email was confirmed implicitly by the provider.
func (s *OAuthService) ensureVerified(ctx context.Context, user *models.User) error {
	if user.EmailVerifiedAt != nil {
		return nil
	}
	now := time.Now()
	if err := s.store.MarkEmailVerified(ctx, user.ID, now); err != nil {
		return autherrs.Wrap(autherrs.KindOAuthFailed, "failed to verify email", err)
	}
	user.EmailVerifiedAt = &now
	return nil
}
