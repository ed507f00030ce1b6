package apiclient

import (
	"net/http"
	"strings"
)

// AuthMode is the credential a route expects.
type AuthMode int

const (
	AuthBearer AuthMode = iota
	AuthNone
	AuthSigV4
)

func (m AuthMode) String() string {
	switch m {
	case AuthNone:
		return "none"
	case AuthSigV4:
		return "sigv4"
	default:
		return "bearer"
	}
}

// Route binds a method and path pattern to an auth mode. Patterns use
// {name} for a single path segment; an empty Method matches any method.
type Route struct {
	Method  string
	Pattern string
	Mode    AuthMode
}

// Routes is the per-route auth table. Lookups fall back to bearer auth.
type Routes struct {
	entries []Route
}

func NewRoutes(routes ...Route) *Routes {
	return &Routes{entries: routes}
}

// DefaultRoutes is the table for the ACTA gateway: the liveness probe is
// open, the two IAM-authorized project listings are signed, and every other
// route takes the identity token.
func DefaultRoutes() *Routes {
	return NewRoutes(
		Route{Method: http.MethodGet, Pattern: "/health", Mode: AuthNone},
		Route{Method: http.MethodGet, Pattern: "/pm-projects/all-projects", Mode: AuthSigV4},
		Route{Method: http.MethodGet, Pattern: "/projects-for-pm/{email}", Mode: AuthSigV4},
	)
}

// Lookup returns the auth mode of the first matching route.
func (r *Routes) Lookup(method, path string) AuthMode {
	if r == nil {
		return AuthBearer
	}
	path = stripQuery(path)
	for _, route := range r.entries {
		if route.Method != "" && !strings.EqualFold(route.Method, method) {
			continue
		}
		if _, ok := MatchPattern(route.Pattern, path); ok {
			return route.Mode
		}
	}
	return AuthBearer
}

// MatchPattern matches path against pattern segment by segment and returns
// the values bound to {name} placeholders.
func MatchPattern(pattern, path string) (map[string]string, bool) {
	ps := splitPath(pattern)
	xs := splitPath(stripQuery(path))
	if len(ps) != len(xs) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range ps {
		if name, ok := placeholder(seg); ok {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}

// HasPlaceholders reports whether pattern binds any parameter.
func HasPlaceholders(pattern string) bool {
	for _, seg := range splitPath(pattern) {
		if _, ok := placeholder(seg); ok {
			return true
		}
	}
	return false
}

func placeholder(seg string) (string, bool) {
	if len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func stripQuery(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}
