package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagegate/stagegate-backend/internal/dto"
)

// RequireRoles gates an API group on the role carried in the session claims.
// The check is claims-only, but it reads the claims SessionRefresh stored so
// that a role change in the identity store takes effect on the next request,
// not at token expiry. Without the refresh middleware it falls back to the
// raw token claims.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := RefreshedClaims(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Insufficient permissions",
		})
	}
}
