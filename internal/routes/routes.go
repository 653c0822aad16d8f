package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/stagegate/stagegate-backend/internal/config"
	"github.com/stagegate/stagegate-backend/internal/handlers"
	"github.com/stagegate/stagegate-backend/internal/middleware"
	"github.com/stagegate/stagegate-backend/internal/routeguard"
	"github.com/stagegate/stagegate-backend/internal/services"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	policy routeguard.Policy,
	sessions *services.SessionService,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Route guard runs app-wide in front of everything, including the portal
	// page space proxied through this service. It only reads claims.
	app.Use(middleware.RouteGuard(policy, cfg))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify", authHandler.VerifyEmail)
	auth.Post("/callback/:provider", authHandler.OAuthCallback)

	// Full-context routes: token validated, then claims refreshed from the
	// identity store on every request.
	session := api.Group("/auth",
		middleware.JWTProtected(cfg),
		middleware.SessionRefresh(sessions),
	)
	session.Get("/session", authHandler.Session)
	session.Post("/logout", authHandler.Logout)

	admin := api.Group("/admin",
		middleware.JWTProtected(cfg),
		middleware.SessionRefresh(sessions),
		middleware.RequireRoles("ADMIN", "GATEKEEPER"),
	)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
}
