package loginsession

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-console/apiclient"
	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/session"
)

// Builder wires a Workspace for a session id. Nil store constructors fall
// back to memory.
type Builder struct {
	APIBaseURL   string
	HTTPClient   *http.Client
	Timeout      time.Duration
	Lifetimes    credentials.Lifetimes
	Roles        *auth.RolesCache
	NewStore     func(sessionID string) credentials.Store
	NewSnapshots func(sessionID string) session.SnapshotRepo
}

// Store opens the credential store for id without wiring a workspace
func (b Builder) Store(sessionID string) credentials.Store {
	if b.NewStore != nil {
		return b.NewStore(sessionID)
	}
	return credentials.NewMemoryStore()
}

// Build wires the workspace and restores any persisted session for id
func (b Builder) Build(sessionID string) (*Workspace, error) {
	store := b.Store(sessionID)
	var snapshots session.SnapshotRepo
	if b.NewSnapshots != nil {
		snapshots = b.NewSnapshots(sessionID)
	}

	clientOpts := []apiclient.Option{apiclient.WithLifetimes(b.Lifetimes)}
	if b.HTTPClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(b.HTTPClient))
	}
	if b.Timeout > 0 {
		clientOpts = append(clientOpts, apiclient.WithTimeout(b.Timeout))
	}
	client := apiclient.New(b.APIBaseURL, store, clientOpts...)

	state := session.New(store, snapshots)
	client.OnSessionExpired(state.Expire)

	authOpts := []auth.Option{auth.WithLifetimes(b.Lifetimes)}
	if b.Roles != nil {
		authOpts = append(authOpts, auth.WithRolesCache(b.Roles))
	}

	if err := state.Restore(); err != nil {
		return nil, fmt.Errorf("[loginsession Build] restore session %s: %w", sessionID, err)
	}

	return &Workspace{
		ID:        sessionID,
		Store:     store,
		Client:    client,
		Session:   state,
		Auth:      auth.NewService(client, state, authOpts...),
		CreatedAt: credentials.NowTimeFunc(),
	}, nil
}
