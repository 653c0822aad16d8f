// Package identity is the only package allowed to touch persistent storage.
// Everything above it consumes the Store interface.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stagegate/stagegate-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("identity: record not found")

// Store is the identity persistence boundary consumed by the auth services.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindUserByID optionally expands the user's linked accounts in the same
	// logical read.
	FindUserByID(ctx context.Context, id uuid.UUID, expandAccounts bool) (*models.User, error)
	FindUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	CreateLinkedAccount(ctx context.Context, account *models.LinkedAccount) error
	UpdateUserRole(ctx context.Context, id uuid.UUID, role models.Role) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
}
