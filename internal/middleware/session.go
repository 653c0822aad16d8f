package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagegate/stagegate-backend/internal/services"
	"github.com/stagegate/stagegate-backend/internal/token"
)

const claimsLocal = "session_claims"

// SessionRefresh re-derives the mutable claim fields from the identity store
// on every full-context request. Refresh is best-effort: on failure the
// request proceeds with the previous claims. When the claims changed, the
// re-signed token is exposed in X-Session-Token for the client to adopt.
func SessionRefresh(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return c.Next()
		}

		refreshed := sessions.RefreshClaims(c.UserContext(), claims)
		c.Locals(claimsLocal, refreshed)

		if refreshed != claims {
			if signed, err := sessions.SignToken(refreshed); err == nil {
				c.Set("X-Session-Token", signed)
			}
		}
		return c.Next()
	}
}

// RefreshedClaims returns the claims placed by SessionRefresh, falling back
// to the raw token claims when the refresh middleware did not run.
func RefreshedClaims(c *fiber.Ctx) (token.Claims, bool) {
	if claims, ok := c.Locals(claimsLocal).(token.Claims); ok {
		return claims, true
	}
	return ClaimsFromContext(c)
}
