// Package routeguard decides allow/redirect for incoming paths using only
// the cached session claims. It runs in the restricted execution context:
// nothing in this package performs I/O, touches storage, or blocks. The
// split is enforced by construction — the package has no way to reach the
// identity store.
package routeguard

import "strings"

// RoutePermission maps a route matcher to the set of roles allowed through.
// Rules are evaluated in order; the first match wins.
type RoutePermission struct {
	Name    string
	Matches func(path string) bool
	Roles   []string
}

// Policy is the immutable route-access configuration, built once at startup
// and injected into the guard.
type Policy struct {
	// PublicRoutes are reachable without authentication (exact match).
	PublicRoutes []string
	// AuthRoutes are the sign-in surfaces; authenticated users are bounced
	// to DefaultRedirect when they hit one.
	AuthRoutes []string
	// APIAuthPrefix covers the unauthenticated auth API surface, provider
	// callbacks included, and is always allowed.
	APIAuthPrefix   string
	LoginRoute      string
	DefaultRedirect string
	Permissions     []RoutePermission
}

// DefaultPolicy is the portal's route-access table. Routes not matched by
// any permission rule are open to every authenticated role; this default-open
// behavior is intentional.
func DefaultPolicy() Policy {
	return Policy{
		PublicRoutes:    []string{"/", "/about", "/api/health"},
		AuthRoutes:      []string{"/auth/login", "/auth/register", "/auth/error", "/auth/reset"},
		APIAuthPrefix:   "/api/auth",
		LoginRoute:      "/auth/login",
		DefaultRedirect: "/dashboard",
		Permissions: []RoutePermission{
			{
				Name:    "project editing",
				Matches: anyOf(prefix("/projects/create"), projectEdit),
				Roles:   []string{"ADMIN", "GATEKEEPER", "PROJECT_LEAD"},
			},
			{
				Name:    "admin area",
				Matches: prefix("/admin"),
				Roles:   []string{"ADMIN", "GATEKEEPER"},
			},
			{
				Name:    "reviews",
				Matches: anyOf(prefix("/reviews"), segmentContains("review")),
				Roles:   []string{"ADMIN", "GATEKEEPER", "REVIEWER"},
			},
			{
				Name:    "reports",
				Matches: prefix("/reports"),
				Roles:   []string{"ADMIN", "GATEKEEPER", "PROJECT_LEAD", "REVIEWER"},
			},
		},
	}
}

func prefix(p string) func(string) bool {
	return func(path string) bool { return strings.HasPrefix(path, p) }
}

func anyOf(matchers ...func(string) bool) func(string) bool {
	return func(path string) bool {
		for _, m := range matchers {
			if m(path) {
				return true
			}
		}
		return false
	}
}

// segmentContains matches when any path segment contains sub.
func segmentContains(sub string) func(string) bool {
	return func(path string) bool {
		for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
			if strings.Contains(seg, sub) {
				return true
			}
		}
		return false
	}
}

// projectEdit matches /projects/<id>/edit and anything beneath it.
func projectEdit(path string) bool {
	rest, ok := strings.CutPrefix(path, "/projects/")
	if !ok {
		return false
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return false
	}
	return parts[1] == "edit" || strings.HasPrefix(parts[1], "edit/")
}
