// Package guard decides, per navigation, whether a route may be shown given
// only whether a credential is present. It never performs I/O and never
// refreshes credentials.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-console/internal/errors"
)

type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

type Decision struct {
	Action   Action
	Location string
}

func (d Decision) Allowed() bool {
	return d.Action == Allow
}

// Classification partitions every route into public or protected. AuthOnly
// routes are public routes hidden from authenticated users. PassThrough
// prefixes (assets) are never gated.
type Classification struct {
	public      []string
	authOnly    []string
	passThrough []string
	login       string
	dashboard   string
}

type Routes struct {
	Public      []string
	AuthOnly    []string
	PassThrough []string
	Login       string
	Dashboard   string
}

// DefaultRoutes is the console's classification
func DefaultRoutes() Routes {
	return Routes{
		Public:      []string{"/", "/login", "/register", "/forgot-password", "/reset-password"},
		AuthOnly:    []string{"/login", "/register"},
		PassThrough: []string{"/static/", "/favicon.ico"},
		Login:       "/login",
		Dashboard:   "/dashboard",
	}
}

// NewClassification validates that AuthOnly is a subset of Public, that the
// login route is public and the dashboard protected, and that no gated
// route hides behind a pass-through prefix.
func NewClassification(r Routes) (*Classification, error) {
	c := &Classification{
		public:      normalizeAll(r.Public),
		authOnly:    normalizeAll(r.AuthOnly),
		passThrough: r.PassThrough,
		login:       normalize(r.Login),
		dashboard:   normalize(r.Dashboard),
	}

	for _, route := range c.authOnly {
		if !contains(c.public, route) {
			return nil, errors.Wrapf(errors.ErrInvalidClassification, "auth-only route %q is not public", route)
		}
	}
	for _, route := range append(append([]string{}, c.public...), c.login, c.dashboard) {
		if c.isPassThrough(route) {
			return nil, errors.Wrapf(errors.ErrInvalidClassification, "route %q overlaps a pass-through prefix", route)
		}
	}
	if !c.IsPublic(c.login) {
		return nil, errors.Wrapf(errors.ErrInvalidClassification, "login route %q must be public", c.login)
	}
	if c.IsPublic(c.dashboard) {
		return nil, errors.Wrapf(errors.ErrInvalidClassification, "dashboard route %q must be protected", c.dashboard)
	}
	return c, nil
}

func MustClassification(r Routes) *Classification {
	c, err := NewClassification(r)
	if err != nil {
		panic(err)
	}
	return c
}

// Decide is total over every path.
//
//	protected, no credential     -> redirect to login
//	auth-only, credential        -> redirect to dashboard
//	anything else                -> allow
func (c *Classification) Decide(path string, credentialPresent bool) Decision {
	if c.isPassThrough(path) {
		return Decision{Action: Allow}
	}

	path = normalize(path)
	switch {
	case !c.IsPublic(path) && !credentialPresent:
		return Decision{Action: Redirect, Location: c.LoginLocation(path)}
	case c.IsAuthOnly(path) && credentialPresent:
		return Decision{Action: Redirect, Location: c.dashboard}
	}
	return Decision{Action: Allow}
}

// LoginLocation is the login route carrying the page to return to
func (c *Classification) LoginLocation(from string) string {
	if from == "" || from == "/" || from == c.login {
		return c.login
	}
	return c.login + "?redirect=" + url.QueryEscape(from)
}

func (c *Classification) Login() string     { return c.login }
func (c *Classification) Dashboard() string { return c.dashboard }

func (c *Classification) IsPublic(path string) bool {
	return matchesAny(c.public, normalize(path))
}

func (c *Classification) IsAuthOnly(path string) bool {
	return matchesAny(c.authOnly, normalize(path))
}

func (c *Classification) isPassThrough(path string) bool {
	for _, prefix := range c.passThrough {
		if path == prefix || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware gates each request through Decide. presence reports whether
// the request's session holds a live access credential.
func Middleware(c *Classification, presence func(r *http.Request) bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			d := c.Decide(r.URL.Path, presence(r))
			if !d.Allowed() {
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}

// matches is exact, or a path-segment prefix. "/" only matches itself.
func matches(route, path string) bool {
	if path == route {
		return true
	}
	if route == "/" {
		return false
	}
	return strings.HasPrefix(path, route+"/")
}

func matchesAny(routes []string, path string) bool {
	for _, route := range routes {
		if matches(route, path) {
			return true
		}
	}
	return false
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func normalizeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, normalize(p))
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
