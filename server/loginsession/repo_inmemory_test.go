package loginsession_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/internal/errors"
	"github.com/jrsteele09/go-auth-console/server/loginsession"
	"github.com/jrsteele09/go-auth-console/session"
	"github.com/jrsteele09/go-auth-console/users"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo(t *testing.T) {
	repo := loginsession.NewInMemoryRepo()

	_, err := repo.Get("missing")
	require.ErrorIs(t, err, errors.ErrWorkspaceNotFound)
	require.Error(t, repo.Upsert("", &loginsession.Workspace{}))

	ws, err := loginsession.Builder{APIBaseURL: "http://127.0.0.1:1"}.Build("s-1")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert("s-1", ws))

	got, err := repo.Get("s-1")
	require.NoError(t, err)
	require.Same(t, ws, got)

	require.NoError(t, repo.Delete("s-1"))
	require.NoError(t, repo.Delete("s-1"))
	_, err = repo.Get("s-1")
	require.ErrorIs(t, err, errors.ErrWorkspaceNotFound)
}

func TestInMemoryRepo_GetOrBuildBuildsOnce(t *testing.T) {
	repo := loginsession.NewInMemoryRepo()
	var builds atomic.Int32
	build := func(id string) (*loginsession.Workspace, error) {
		builds.Add(1)
		return &loginsession.Workspace{ID: id}, nil
	}

	var wg sync.WaitGroup
	got := make([]*loginsession.Workspace, 8)
	errs := make([]error, len(got))
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = repo.GetOrBuild("s-1", build)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, builds.Load())
	for _, ws := range got {
		require.Same(t, got[0], ws)
	}

	_, err := repo.GetOrBuild("s-2", func(string) (*loginsession.Workspace, error) {
		return nil, errors.ErrInternal
	})
	require.ErrorIs(t, err, errors.ErrInternal)
	_, err = repo.Get("s-2")
	require.ErrorIs(t, err, errors.ErrWorkspaceNotFound)
}

func TestInMemoryRepo_EvictIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	credentials.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { credentials.NowTimeFunc = time.Now })

	repo := loginsession.NewInMemoryRepo()
	old := &loginsession.Workspace{ID: "old"}
	require.NoError(t, repo.Upsert("old", old))
	require.True(t, now.Equal(old.LastSeen()))
	now = now.Add(time.Hour)
	require.NoError(t, repo.Upsert("new", &loginsession.Workspace{ID: "new"}))

	require.Equal(t, 1, repo.EvictIdle(now.Add(-30*time.Minute)))
	_, err := repo.Get("old")
	require.Error(t, err)
	_, err = repo.Get("new")
	require.NoError(t, err)
}

func TestBuilder_RestoresPersistedSession(t *testing.T) {
	store := credentials.NewMemoryStore()
	snapshots := session.NewInMemorySnapshotRepo()
	user := users.UserSummary{ID: "user-1", Email: "awa@example.com"}
	require.NoError(t, store.Set(credentials.Credential{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, snapshots.Save(session.Snapshot{User: &user, IsAuthenticated: true}))

	b := loginsession.Builder{
		APIBaseURL:   "http://127.0.0.1:1",
		Lifetimes:    credentials.DefaultLifetimes(),
		NewStore:     func(string) credentials.Store { return store },
		NewSnapshots: func(string) session.SnapshotRepo { return snapshots },
	}
	ws, err := b.Build("s-1")
	require.NoError(t, err)
	require.Equal(t, "s-1", ws.ID)
	require.Equal(t, "user-1", ws.Session.User().ID)
	require.True(t, ws.Session.Snapshot().IsAuthenticated)
	require.Same(t, ws.Client.Store(), ws.Store)
}
