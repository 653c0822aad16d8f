package routeguard

import (
	"net/url"
	"strings"

	"github.com/stagegate/stagegate-backend/internal/token"
)

// Decision is the guard's verdict for one request. RedirectURL is set only
// when Allow is false.
type Decision struct {
	Allow       bool
	RedirectURL string
}

// Evaluate is a pure function over (path, query, cached claims). A nil
// claims pointer means no authenticated session. Redirect URLs are absolute,
// built from the request origin plus a literal path; user input only ever
// appears URL-encoded inside the callbackUrl query parameter.
func (p Policy) Evaluate(origin, path, rawQuery string, claims *token.Claims) Decision {
	// Provider callbacks pass through regardless of auth state.
	if strings.HasPrefix(path, p.APIAuthPrefix) {
		return Decision{Allow: true}
	}

	loggedIn := claims != nil

	if p.isAuthRoute(path) {
		if loggedIn {
			return p.redirect(origin, p.DefaultRedirect, nil)
		}
		return Decision{Allow: true}
	}

	if !loggedIn {
		if p.isPublic(path) {
			return Decision{Allow: true}
		}
		callback := path
		if rawQuery != "" {
			callback += "?" + rawQuery
		}
		q := url.Values{}
		q.Set("callbackUrl", callback)
		return p.redirect(origin, p.LoginRoute, q)
	}

	for _, perm := range p.Permissions {
		if perm.Matches(path) {
			if !roleAllowed(perm.Roles, claims.Role) {
				return p.redirect(origin, p.DefaultRedirect, nil)
			}
			break
		}
	}
	return Decision{Allow: true}
}

func (p Policy) isPublic(path string) bool {
	for _, route := range p.PublicRoutes {
		if path == route {
			return true
		}
	}
	return false
}

func (p Policy) isAuthRoute(path string) bool {
	for _, route := range p.AuthRoutes {
		if path == route {
			return true
		}
	}
	return false
}

func (p Policy) redirect(origin, path string, query url.Values) Decision {
	u := url.URL{Path: path}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return Decision{RedirectURL: origin + u.String()}
}

func roleAllowed(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
