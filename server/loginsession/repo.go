package loginsession

import (
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-auth-console/apiclient"
	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/session"
)

// Workspace is everything one browser session needs: its own credential
// store, refreshing API client, session state and auth flows.
type Workspace struct {
	ID      string
	Store   credentials.Store
	Client  *apiclient.Client
	Session *session.State
	Auth    *auth.Service

	CreatedAt time.Time
	lastSeen  atomic.Int64 // unix nanoseconds
}

func (w *Workspace) LastSeen() time.Time {
	return time.Unix(0, w.lastSeen.Load())
}

func (w *Workspace) touch() {
	w.lastSeen.Store(credentials.NowTimeFunc().UnixNano())
}

type Repo interface {
	Upsert(sessionID string, ws *Workspace) error
	Get(sessionID string) (*Workspace, error)
	GetOrBuild(sessionID string, build func(sessionID string) (*Workspace, error)) (*Workspace, error)
	Delete(sessionID string) error
	EvictIdle(before time.Time) int
}
