package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/stagegate-backend/internal/models"
	"github.com/stagegate/stagegate-backend/internal/token"
)

func sessionFixture(t *testing.T) (*fakeStore, *SessionService, *models.User) {
	t.Helper()
	store := newFakeStore()
	user := verifiedUser(t, store, "dana@example.com", "correct horse")
	return store, NewSessionService(store, testCfg()), user
}

func TestIssueClaims(t *testing.T) {
	_, svc, user := sessionFixture(t)

	claims := svc.IssueClaims(user)
	assert.Equal(t, user.ID.String(), claims.Sub)
	assert.Equal(t, "dana@example.com", claims.Email)
	assert.Equal(t, "Dana", claims.Name)
	assert.Equal(t, "USER", claims.Role)
	assert.False(t, claims.IsOAuth)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestIssueClaimsOAuth(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	user := store.addUser(&models.User{Email: "o@example.com", EmailVerifiedAt: &now})
	store.addAccount(&models.LinkedAccount{UserID: user.ID, Provider: "google", ProviderAccountID: "g-1"})
	svc := NewSessionService(store, testCfg())

	loaded, err := store.FindUserByID(context.Background(), user.ID, true)
	require.NoError(t, err)

	claims := svc.IssueClaims(loaded)
	assert.True(t, claims.IsOAuth)
}

func TestRefreshClaimsIdempotent(t *testing.T) {
	_, svc, user := sessionFixture(t)

	claims := svc.IssueClaims(user)
	once := svc.RefreshClaims(context.Background(), claims)
	twice := svc.RefreshClaims(context.Background(), once)
	assert.Equal(t, once, twice, "refreshing an unchanged user is idempotent")
	assert.Equal(t, claims.IssuedAt, twice.IssuedAt)
	assert.Equal(t, claims.ExpiresAt, twice.ExpiresAt)
}

func TestRefreshClaimsPropagatesRoleChange(t *testing.T) {
	store, svc, user := sessionFixture(t)
	claims := svc.IssueClaims(user)
	require.Equal(t, "USER", claims.Role)

	require.NoError(t, store.UpdateUserRole(context.Background(), user.ID, models.RoleAdmin))

	refreshed := svc.RefreshClaims(context.Background(), claims)
	assert.Equal(t, "ADMIN", refreshed.Role, "role change lands on the very next refresh")
	assert.Equal(t, claims.Sub, refreshed.Sub)
	assert.Equal(t, claims.ExpiresAt, refreshed.ExpiresAt, "expiry is never extended by refresh")
}

func TestRefreshClaimsKeepsStaleOnLookupFailure(t *testing.T) {
	store, svc, user := sessionFixture(t)
	claims := svc.IssueClaims(user)

	store.findIDErr = errors.New("dial tcp: connection refused")
	refreshed := svc.RefreshClaims(context.Background(), claims)
	assert.Equal(t, claims, refreshed, "refresh is best-effort; stale claims survive")
}

func TestRefreshClaimsKeepsStaleWhenUserDeleted(t *testing.T) {
	store, svc, user := sessionFixture(t)
	claims := svc.IssueClaims(user)

	delete(store.users, user.ID)
	refreshed := svc.RefreshClaims(context.Background(), claims)
	assert.Equal(t, claims, refreshed, "session stays valid until natural expiry")
}

func TestRefreshClaimsMalformedSubject(t *testing.T) {
	_, svc, _ := sessionFixture(t)

	claims := token.Claims{Sub: "not-a-uuid", Role: "USER"}
	assert.Equal(t, claims, svc.RefreshClaims(context.Background(), claims))
}

func TestSignTokenRoundTrip(t *testing.T) {
	_, svc, user := sessionFixture(t)
	claims := svc.IssueClaims(user)

	signed, err := svc.SignToken(claims)
	require.NoError(t, err)

	parsed, err := token.Parse(signed, testCfg().JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, claims.Sub, parsed.Sub)
	assert.Equal(t, claims.Role, parsed.Role)
	assert.Equal(t, claims.IssuedAt.Unix(), parsed.IssuedAt.Unix())
	assert.Equal(t, claims.ExpiresAt.Unix(), parsed.ExpiresAt.Unix())
}

func TestProject(t *testing.T) {
	_, svc, user := sessionFixture(t)
	claims := svc.IssueClaims(user)

	session := svc.Project(claims)
	assert.Equal(t, claims.Sub, session.UserID)
	assert.Equal(t, claims.Email, session.Email)
	assert.Equal(t, claims.Role, session.Role)
	assert.Equal(t, claims.ExpiresAt, session.ExpiresAt)
}
