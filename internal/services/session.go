package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagegate/stagegate-backend/internal/autherrs"
	"github.com/stagegate/stagegate-backend/internal/config"
	"github.com/stagegate/stagegate-backend/internal/dto"
	"github.com/stagegate/stagegate-backend/internal/identity"
	"github.com/stagegate/stagegate-backend/internal/models"
	"github.com/stagegate/stagegate-backend/internal/retry"
	"github.com/stagegate/stagegate-backend/internal/token"
)

// SessionService builds, refreshes, and signs session claims. It runs only in
// the full execution context; the route guard never sees this type.
type SessionService struct {
	store identity.Store
	cfg   *config.Config
	now   func() time.Time
}

func NewSessionService(store identity.Store, cfg *config.Config) *SessionService {
	return &SessionService{store: store, cfg: cfg, now: time.Now}
}

// IssueClaims constructs fresh claims from a resolved user at sign-in.
// The user's accounts must already be loaded for IsOAuth to be accurate.
func (s *SessionService) IssueClaims(user *models.User) token.Claims {
	now := s.now()
	return token.Claims{
		Sub:       user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		IsOAuth:   user.IsOAuth(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.JWTAccessExpiry),
	}
}

// RefreshClaims re-reads the user (with linked accounts, one logical read)
// and overwrites the mutable claim fields with current values. This is how
// role changes reach an active session without re-authentication. Refresh is
// best-effort: on any failure the previous claims are returned unmodified and
// the condition is logged; the session stays valid until natural expiry.
func (s *SessionService) RefreshClaims(ctx context.Context, existing token.Claims) token.Claims {
	id, err := uuid.Parse(existing.Sub)
	if err != nil {
		(&autherrs.Error{
			Kind:    autherrs.KindSessionError,
			Message: "session refresh skipped: malformed subject",
			Err:     err,
			UserID:  existing.Sub,
		}).Log()
		return existing
	}

	user, err := retry.Do(ctx, s.cfg.RetryMaxAttempts, s.cfg.RetryBaseDelay,
		func(ctx context.Context) (*models.User, error) {
			return s.store.FindUserByID(ctx, id, true)
		})
	if err != nil {
		(&autherrs.Error{
			Kind:    autherrs.KindSessionError,
			Message: "session refresh failed, keeping previous claims",
			Err:     err,
			UserID:  existing.Sub,
			Email:   existing.Email,
		}).Log()
		return existing
	}

	refreshed := existing
	refreshed.Email = user.Email
	refreshed.Name = user.Name
	refreshed.Role = string(user.Role)
	refreshed.IsOAuth = user.IsOAuth()
	return refreshed
}

// SignToken serializes claims into the signed session token handed to clients.
func (s *SessionService) SignToken(c token.Claims) (string, error) {
	signed, err := token.Sign(c, s.cfg.JWTSecret)
	if err != nil {
		return "", autherrs.Wrap(autherrs.KindJWTError, "failed to sign session token", err)
	}
	return signed, nil
}

// Project maps claims into the client-facing session view.
func (s *SessionService) Project(c token.Claims) dto.Session {
	return dto.Session{
		UserID:    c.Sub,
		Email:     c.Email,
		Name:      c.Name,
		Role:      c.Role,
		IsOAuth:   c.IsOAuth,
		ExpiresAt: c.ExpiresAt,
	}
}
