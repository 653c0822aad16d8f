// Package token defines the session claim set and its signed JWT form.
// It deliberately has no storage or service imports so the route guard can
// depend on it from the restricted execution context.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// Claims is the decoded session token payload. Immutable once issued except
// through an explicit refresh that re-derives it from the identity store.
type Claims struct {
	Sub       string
	Email     string
	Name      string
	Role      string
	IsOAuth   bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the claims are past their natural expiry.
func (c Claims) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Sign serializes claims into an HS256-signed JWT.
func Sign(c Claims, secret string) (string, error) {
	mapClaims := jwt.MapClaims{
		"sub":      c.Sub,
		"email":    c.Email,
		"name":     c.Name,
		"role":     c.Role,
		"is_oauth": c.IsOAuth,
		"iat":      c.IssuedAt.Unix(),
		"exp":      c.ExpiresAt.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return t.SignedString([]byte(secret))
}

// Parse validates the signature and expiry of a signed token and decodes it.
func Parse(signed, secret string) (Claims, error) {
	parsed, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return FromMap(mapClaims), nil
}

// FromMap converts already-validated JWT map claims into typed Claims. Used
// by middleware that receives the token from the JWT validation layer.
func FromMap(m jwt.MapClaims) Claims {
	c := Claims{}
	c.Sub, _ = m["sub"].(string)
	c.Email, _ = m["email"].(string)
	c.Name, _ = m["name"].(string)
	c.Role, _ = m["role"].(string)
	c.IsOAuth, _ = m["is_oauth"].(bool)
	if iat, ok := m["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := m["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return c
}
