package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/guard"
	"github.com/jrsteele09/go-auth-console/internal/config"
	"github.com/jrsteele09/go-auth-console/internal/errors"
	"github.com/jrsteele09/go-auth-console/server/loginsession"
	"github.com/jrsteele09/go-auth-console/session"
	"github.com/jrsteele09/go-auth-console/sqlitedb"
)

// sessionCookieName identifies the browser's workspace. It never carries
// credential material.
const sessionCookieName = "console_session"

// WorkspaceBuilder wires workspaces from config. A nil db keeps sessions
// in memory only.
func WorkspaceBuilder(c config.Config, db *sqlitedb.DB) loginsession.Builder {
	b := loginsession.Builder{
		APIBaseURL: c.GetAPIBaseURL(),
		HTTPClient: &http.Client{}, // one connection pool for every workspace
		Timeout:    c.GetRequestTimeout(),
		Lifetimes: credentials.Lifetimes{
			Access:  c.GetDefaultAccessTokenExpiry(),
			Refresh: c.GetDefaultRefreshTokenExpiry(),
		},
		Roles: auth.NewRolesCache(c.GetRolesCacheTTL()),
	}
	if db != nil {
		b.NewStore = func(id string) credentials.Store { return db.Credentials(id) }
		b.NewSnapshots = func(id string) session.SnapshotRepo { return db.Snapshots(id) }
	}
	return b
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.config.GetDefaultRefreshTokenExpiry().Seconds()),
	})
}

// sessionID returns the id from a well-formed session cookie
func sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

// lookupWorkspace finds the workspace for id, rebuilding it from the
// backing store when it is not in memory.
func (s *Server) lookupWorkspace(id string) (*loginsession.Workspace, error) {
	ws, err := s.workspaces.GetOrBuild(id, s.builder.Build)
	if err != nil {
		return nil, errors.Wrapf(err, "[server lookupWorkspace] %s", id)
	}
	return ws, nil
}

// workspace returns the request's workspace, starting a new one and setting
// the cookie when the browser has none.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*loginsession.Workspace, error) {
	if id, ok := sessionID(r); ok {
		return s.lookupWorkspace(id)
	}

	id := uuid.NewString()
	ws, err := s.lookupWorkspace(id)
	if err != nil {
		return nil, err
	}
	s.setSessionCookie(w, r, id)
	return ws, nil
}

// existingWorkspace returns the workspace behind the request's cookie when
// one is cached or its store still holds credential material. Unknown ids
// get no workspace.
func (s *Server) existingWorkspace(r *http.Request) (*loginsession.Workspace, bool) {
	id, ok := sessionID(r)
	if !ok {
		return nil, false
	}
	if ws, err := s.workspaces.Get(id); err == nil {
		return ws, true
	}
	if store := s.builder.Store(id); !store.Present() && store.RefreshToken() == "" {
		return nil, false
	}
	ws, err := s.lookupWorkspace(id)
	if err != nil {
		s.logger.Err(err).Msg("could not load workspace")
		return nil, false
	}
	return ws, true
}

// credentialPresent reports whether the request's workspace holds a live
// access credential. A browser without a session has none.
func (s *Server) credentialPresent(r *http.Request) bool {
	ws, ok := s.existingWorkspace(r)
	return ok && ws.Store.Present()
}

func (s *Server) GuardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return guard.Middleware(s.guard, s.credentialPresent)(next)
}
