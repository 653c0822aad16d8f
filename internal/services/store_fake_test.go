package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stagegate/stagegate-backend/internal/config"
	"github.com/stagegate/stagegate-backend/internal/identity"
	"github.com/stagegate/stagegate-backend/internal/models"
)

// fakeStore is an in-memory identity.Store for service tests. Error fields
// override the corresponding call when set.
type fakeStore struct {
	users    map[uuid.UUID]*models.User
	accounts []*models.LinkedAccount

	findEmailErr  error
	findIDErr     error
	createUserErr error
	createAccErr  error
	updateRoleErr error
	markErr       error

	findEmailCalls int
	findIDCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeStore) addUser(u *models.User) *models.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addAccount(a *models.LinkedAccount) *models.LinkedAccount {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.accounts = append(f.accounts, a)
	return a
}

func (f *fakeStore) accountsFor(userID uuid.UUID) []models.LinkedAccount {
	var out []models.LinkedAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.findEmailCalls++
	if f.findEmailErr != nil {
		return nil, f.findEmailErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeStore) FindUserByID(_ context.Context, id uuid.UUID, expandAccounts bool) (*models.User, error) {
	f.findIDCalls++
	if f.findIDErr != nil {
		return nil, f.findIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	copied := *u
	if expandAccounts {
		copied.Accounts = f.accountsFor(id)
	}
	return &copied, nil
}

func (f *fakeStore) FindUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error) {
	for _, a := range f.accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			return f.FindUserByID(ctx, a.UserID, true)
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	if f.createUserErr != nil {
		return f.createUserErr
	}
	f.addUser(user)
	return nil
}

func (f *fakeStore) CreateLinkedAccount(_ context.Context, account *models.LinkedAccount) error {
	if f.createAccErr != nil {
		return f.createAccErr
	}
	f.addAccount(account)
	return nil
}

func (f *fakeStore) UpdateUserRole(_ context.Context, id uuid.UUID, role models.Role) error {
	if f.updateRoleErr != nil {
		return f.updateRoleErr
	}
	u, ok := f.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeStore) MarkEmailVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	u, ok := f.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.EmailVerifiedAt = &at
	return nil
}

func testCfg() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		RetryMaxAttempts: 2,
		RetryBaseDelay:   time.Millisecond,
	}
}
