package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stagegate/stagegate-backend/internal/config"
	"github.com/stagegate/stagegate-backend/internal/dto"
	"github.com/stagegate/stagegate-backend/internal/token"
)

// JWTProtected validates the session token for full-context routes.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// ClaimsFromContext extracts the typed claims placed by JWTProtected.
func ClaimsFromContext(c *fiber.Ctx) (token.Claims, bool) {
	t, ok := c.Locals("user").(*jwt.Token)
	if !ok || t == nil {
		return token.Claims{}, false
	}
	mapClaims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return token.Claims{}, false
	}
	return token.FromMap(mapClaims), true
}
