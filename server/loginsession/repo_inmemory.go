package loginsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-console/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace // sessionID -> workspace
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		workspaces: make(map[string]*Workspace),
	}
}

// Upsert creates or replaces a workspace
func (r *InMemoryRepo) Upsert(sessionID string, ws *Workspace) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if ws == nil {
		return fmt.Errorf("workspace is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ws.touch()
	r.workspaces[sessionID] = ws
	return nil
}

// Get retrieves a workspace and marks it as seen
func (r *InMemoryRepo) Get(sessionID string) (*Workspace, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[sessionID]
	if !ok {
		return nil, errors.ErrWorkspaceNotFound
	}
	ws.touch()
	return ws, nil
}

// GetOrBuild returns the workspace for sessionID, building and storing it
// under the lock when absent so concurrent first requests share one.
func (r *InMemoryRepo) GetOrBuild(sessionID string, build func(sessionID string) (*Workspace, error)) (*Workspace, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.workspaces[sessionID]; ok {
		ws.touch()
		return ws, nil
	}

	ws, err := build(sessionID)
	if err != nil {
		return nil, err
	}
	ws.touch()
	r.workspaces[sessionID] = ws
	return ws, nil
}

// Delete removes a workspace
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.workspaces, sessionID) // Already gone is not an error
	return nil
}

// EvictIdle drops workspaces not seen since before. Durable state stays in
// the backing store and is restored on the next request.
func (r *InMemoryRepo) EvictIdle(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, ws := range r.workspaces {
		if ws.LastSeen().Before(before) {
			delete(r.workspaces, id)
			evicted++
		}
	}
	return evicted
}
