package session

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-console/internal/errors"
	"github.com/jrsteele09/go-auth-console/users"
)

// Snapshot is the persisted projection of a session. IsAuthenticated is
// informational only; it is recomputed from the credential store on load.
type Snapshot struct {
	User            *users.UserSummary `json:"user"`
	IsAuthenticated bool               `json:"isAuthenticated"`
	SavedAt         time.Time          `json:"savedAt"`
}

// SnapshotRepo persists one session's snapshot. Load returns
// errors.ErrNotFound when nothing has been saved.
type SnapshotRepo interface {
	Load() (Snapshot, error)
	Save(s Snapshot) error
	Delete() error
}

// InMemorySnapshotRepo is an in-memory implementation of SnapshotRepo
type InMemorySnapshotRepo struct {
	mu   sync.RWMutex
	snap *Snapshot
}

var _ SnapshotRepo = (*InMemorySnapshotRepo)(nil)

func NewInMemorySnapshotRepo() *InMemorySnapshotRepo {
	return &InMemorySnapshotRepo{}
}

func (r *InMemorySnapshotRepo) Load() (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return Snapshot{}, errors.ErrNotFound
	}
	return *r.snap, nil
}

func (r *InMemorySnapshotRepo) Save(s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = &s
	return nil
}

func (r *InMemorySnapshotRepo) Delete() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = nil
	return nil
}
