package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/session"
	"github.com/jrsteele09/go-auth-console/users"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

var testUser = users.UserSummary{
	ID:          "user-1",
	Email:       "awa@example.com",
	DisplayName: "Awa Diop",
	Role:        users.RoleClient,
}

var testCred = credentials.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}

// flakyStore wraps a MemoryStore and fails on demand
type flakyStore struct {
	*credentials.MemoryStore
	failSet   bool
	failClear bool
}

func (f *flakyStore) Set(c credentials.Credential) error {
	if f.failSet {
		return errDiskFull
	}
	return f.MemoryStore.Set(c)
}

func (f *flakyStore) Clear() error {
	if f.failClear {
		_ = f.MemoryStore.Clear()
		return errDiskFull
	}
	return f.MemoryStore.Clear()
}

type flakySnapshots struct {
	*session.InMemorySnapshotRepo
	failSave bool
}

func (f *flakySnapshots) Save(s session.Snapshot) error {
	if f.failSave {
		return errDiskFull
	}
	return f.InMemorySnapshotRepo.Save(s)
}

type testFixture struct {
	store     *flakyStore
	snapshots *flakySnapshots
	state     *session.State
	seen      []session.Session
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		store:     &flakyStore{MemoryStore: credentials.NewMemoryStore()},
		snapshots: &flakySnapshots{InMemorySnapshotRepo: session.NewInMemorySnapshotRepo()},
	}
	f.state = session.New(f.store, f.snapshots)
	f.state.Subscribe(func(s session.Session) { f.seen = append(f.seen, s) })
	return f
}

func TestState_Login(t *testing.T) {
	f := setupTestFixture(t)

	require.False(t, f.state.Snapshot().IsAuthenticated)
	require.NoError(t, f.state.Login(testUser, testCred))

	snap := f.state.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, testUser, *snap.User)
	require.Equal(t, "access-1", f.store.Get().AccessToken)

	persisted, err := f.snapshots.Load()
	require.NoError(t, err)
	require.Equal(t, testUser.ID, persisted.User.ID)

	require.Len(t, f.seen, 1)
	require.True(t, f.seen[0].IsAuthenticated)
}

func TestState_LoginRollback(t *testing.T) {
	t.Run("store write fails", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.failSet = true

		require.ErrorIs(t, f.state.Login(testUser, testCred), errDiskFull)
		require.Nil(t, f.state.Snapshot().User)
		require.False(t, f.state.Snapshot().IsAuthenticated)
		require.Empty(t, f.seen)
	})

	t.Run("snapshot write fails", func(t *testing.T) {
		f := setupTestFixture(t)
		f.snapshots.failSave = true

		require.ErrorIs(t, f.state.Login(testUser, testCred), errDiskFull)
		require.Nil(t, f.store.Get(), "credential is rolled back")
		require.Nil(t, f.state.Snapshot().User)
		require.Empty(t, f.seen)
	})

	t.Run("snapshot write fails while logged in", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.state.Login(testUser, testCred))

		f.snapshots.failSave = true
		other := users.UserSummary{ID: "user-2", Email: "other@example.com"}
		require.Error(t, f.state.Login(other, credentials.Credential{AccessToken: "access-2", RefreshToken: "refresh-2"}))

		require.Equal(t, "access-1", f.store.Get().AccessToken)
		require.Equal(t, testUser.ID, f.state.User().ID)
	})

	t.Run("snapshot write fails after access expired", func(t *testing.T) {
		now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		credentials.NowTimeFunc = func() time.Time { return now }
		t.Cleanup(func() { credentials.NowTimeFunc = time.Now })

		f := setupTestFixture(t)
		require.NoError(t, f.store.Set(credentials.Credential{
			AccessToken:   "access-0",
			RefreshToken:  "refresh-0",
			Expiry:        now.Add(time.Hour),
			RefreshExpiry: now.Add(24 * time.Hour),
		}))

		now = now.Add(2 * time.Hour)
		require.Nil(t, f.store.Get())
		require.Equal(t, "refresh-0", f.store.RefreshToken())

		f.snapshots.failSave = true
		require.ErrorIs(t, f.state.Login(testUser, testCred), errDiskFull)

		require.Equal(t, "refresh-0", f.store.RefreshToken(), "refresh credential survives the rollback")
		require.Nil(t, f.store.Get())
	})
}

func TestState_Logout(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.state.Login(testUser, testCred))

	f.store.failClear = true
	f.state.Logout()

	snap := f.state.Snapshot()
	require.Nil(t, snap.User)
	require.False(t, snap.IsAuthenticated)
	require.Empty(t, f.store.RefreshToken())

	_, err := f.snapshots.Load()
	require.Error(t, err)

	last := f.seen[len(f.seen)-1]
	require.Nil(t, last.User)
}

func TestState_Expire(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.state.Login(testUser, testCred))

	f.state.Expire()
	require.Nil(t, f.state.User())
	require.False(t, f.state.IsAuthenticated())
}

func TestState_Restore(t *testing.T) {
	t.Run("valid snapshot", func(t *testing.T) {
		store := credentials.NewMemoryStore()
		snapshots := session.NewInMemorySnapshotRepo()
		require.NoError(t, store.Set(testCred))
		require.NoError(t, snapshots.Save(session.Snapshot{User: &testUser, IsAuthenticated: true}))

		state := session.New(store, snapshots)
		require.NoError(t, state.Restore())
		require.Equal(t, testUser.ID, state.User().ID)
		require.True(t, state.Snapshot().IsAuthenticated)
	})

	t.Run("snapshot without credentials is discarded", func(t *testing.T) {
		snapshots := session.NewInMemorySnapshotRepo()
		require.NoError(t, snapshots.Save(session.Snapshot{User: &testUser, IsAuthenticated: true}))

		state := session.New(credentials.NewMemoryStore(), snapshots)
		require.NoError(t, state.Restore())
		require.Nil(t, state.User())
		require.False(t, state.Snapshot().IsAuthenticated)

		_, err := snapshots.Load()
		require.Error(t, err)
	})

	t.Run("nothing persisted", func(t *testing.T) {
		state := session.New(credentials.NewMemoryStore(), nil)
		require.NoError(t, state.Restore())
		require.Nil(t, state.User())
	})
}

func TestState_SetLoadingAndSubscribe(t *testing.T) {
	f := setupTestFixture(t)

	var count int
	cancel := f.state.Subscribe(func(session.Session) { count++ })

	f.state.SetLoading(true)
	require.True(t, f.state.Snapshot().IsLoading)
	f.state.SetLoading(true)
	require.Equal(t, 1, count, "no notification without a change")

	cancel()
	f.state.SetLoading(false)
	require.Equal(t, 1, count)
	require.False(t, f.state.Snapshot().IsLoading)
}
