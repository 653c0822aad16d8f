package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/stagegate-backend/internal/config"
	"github.com/stagegate/stagegate-backend/internal/identity"
	"github.com/stagegate/stagegate-backend/internal/models"
	"github.com/stagegate/stagegate-backend/internal/services"
)

// stubStore serves a single user for refresh lookups; every other operation
// is unused by the middleware chain under test.
type stubStore struct {
	user *models.User
	err  error
}

func (s *stubStore) FindUserByID(_ context.Context, id uuid.UUID, _ bool) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != id {
		return nil, identity.ErrNotFound
	}
	copied := *s.user
	return &copied, nil
}

func (s *stubStore) FindUserByEmail(context.Context, string) (*models.User, error) {
	return nil, identity.ErrNotFound
}

func (s *stubStore) FindUserByAccount(context.Context, string, string) (*models.User, error) {
	return nil, identity.ErrNotFound
}

func (s *stubStore) CreateUser(context.Context, *models.User) error { return nil }

func (s *stubStore) CreateLinkedAccount(context.Context, *models.LinkedAccount) error { return nil }

func (s *stubStore) UpdateUserRole(context.Context, uuid.UUID, models.Role) error { return nil }

func (s *stubStore) MarkEmailVerified(context.Context, uuid.UUID, time.Time) error { return nil }

func rolesTestApp(cfg *config.Config, store identity.Store) *fiber.App {
	sessions := services.NewSessionService(store, cfg)
	app := fiber.New()
	app.Get("/api/admin/ping",
		JWTProtected(cfg),
		SessionRefresh(sessions),
		RequireRoles("ADMIN", "GATEKEEPER"),
		func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func rolesTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		RetryMaxAttempts: 1,
		RetryBaseDelay:   time.Millisecond,
	}
}

func storedUser(role models.Role) *models.User {
	return &models.User{
		ID:    uuid.MustParse("2dd929f2-8d0a-4b3e-9a3f-0f4f4f6d8e11"),
		Email: "dana@example.com",
		Name:  "Dana",
		Role:  role,
	}
}

func TestRequireRolesDemotedAdminLosesAccess(t *testing.T) {
	cfg := rolesTestConfig()
	// Token still says ADMIN; the store has since demoted the user.
	app := rolesTestApp(cfg, &stubStore{user: storedUser(models.RoleUser)})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, cfg, "ADMIN", time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRolesPromotionTakesEffectImmediately(t *testing.T) {
	cfg := rolesTestConfig()
	app := rolesTestApp(cfg, &stubStore{user: storedUser(models.RoleAdmin)})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, cfg, "USER", time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesKeepsTokenRoleWhenRefreshFails(t *testing.T) {
	cfg := rolesTestConfig()
	// Refresh is best-effort: a store outage must not lock admins out.
	app := rolesTestApp(cfg, &stubStore{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, cfg, "ADMIN", time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesWithoutRefreshUsesTokenClaims(t *testing.T) {
	cfg := rolesTestConfig()
	app := fiber.New()
	app.Get("/api/admin/ping",
		JWTProtected(cfg),
		RequireRoles("ADMIN"),
		func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, cfg, "ADMIN", time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
