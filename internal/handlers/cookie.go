package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stagegate/stagegate-backend/internal/middleware"
)

func setSessionCookie(c *fiber.Ctx, signed string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    signed,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
