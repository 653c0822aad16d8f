package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/stagegate/stagegate-backend/internal/config"
	"github.com/stagegate/stagegate-backend/internal/routeguard"
	"github.com/stagegate/stagegate-backend/internal/token"
)

// SessionCookie is the cookie carrying the signed session token for the
// portal page routes.
const SessionCookie = "session_token"

// RouteGuard binds the pure route evaluator to fiber. Token signature
// validation happens here; the evaluator itself only ever sees decoded
// claims and performs no I/O.
func RouteGuard(policy routeguard.Policy, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var claims *token.Claims
		if raw := sessionToken(c); raw != "" {
			if parsed, err := token.Parse(raw, cfg.JWTSecret); err == nil {
				claims = &parsed
			}
		}

		origin := c.Protocol() + "://" + c.Hostname()
		decision := policy.Evaluate(origin, c.Path(), string(c.Request().URI().QueryString()), claims)
		if decision.Allow {
			return c.Next()
		}
		return c.Redirect(decision.RedirectURL, fiber.StatusTemporaryRedirect)
	}
}

func sessionToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Cookies(SessionCookie)
}
