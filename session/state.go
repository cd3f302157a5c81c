package session

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/internal/errors"
	"github.com/jrsteele09/go-auth-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session is what the UI renders from
type Session struct {
	User            *users.UserSummary
	IsAuthenticated bool
	IsLoading       bool
}

// State keeps the user projection consistent with a credential store.
// IsAuthenticated is never stored; every read asks the store.
type State struct {
	mu        sync.Mutex
	store     credentials.Store
	snapshots SnapshotRepo
	user      *users.UserSummary
	loading   bool

	subsMu      sync.Mutex
	subscribers map[int]func(Session)
	nextSubID   int

	logger zerolog.Logger
}

type Option func(*State)

func WithLogger(l zerolog.Logger) Option {
	return func(s *State) { s.logger = l }
}

func New(store credentials.Store, snapshots SnapshotRepo, opts ...Option) *State {
	if snapshots == nil {
		snapshots = NewInMemorySnapshotRepo()
	}
	s := &State{
		store:       store,
		snapshots:   snapshots,
		subscribers: make(map[int]func(Session)),
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login stores the credential and the user together. If any part fails the
// previous credential and projection are put back and the error returned.
func (s *State) Login(user users.UserSummary, cred credentials.Credential) error {
	s.mu.Lock()

	prevCred := s.store.Load()
	prevUser := s.user

	if err := s.store.Set(cred); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("[State Login] store credential: %w", err)
	}

	snap := Snapshot{User: &user, IsAuthenticated: true, SavedAt: credentials.NowTimeFunc()}
	if err := s.snapshots.Save(snap); err != nil {
		s.rollback(prevCred, prevUser)
		s.mu.Unlock()
		return fmt.Errorf("[State Login] persist session: %w", err)
	}

	s.user = &user
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *State) rollback(prevCred *credentials.Credential, prevUser *users.UserSummary) {
	var err error
	if prevCred != nil {
		err = s.store.Set(*prevCred)
	} else {
		err = s.store.Clear()
	}
	if err != nil {
		s.logger.Err(err).Msg("failed to roll back credential store")
	}
	s.user = prevUser
}

// Logout clears the session unconditionally. Storage failures are logged and
// never stop the local state from being reset.
func (s *State) Logout() {
	s.reset("logout")
}

// Expire is called when the refresh credential has been rejected
func (s *State) Expire() {
	s.reset("session expired")
}

func (s *State) reset(reason string) {
	s.mu.Lock()
	if err := s.store.Clear(); err != nil {
		s.logger.Err(err).Str("reason", reason).Msg("failed to clear credential store")
	}
	if err := s.snapshots.Delete(); err != nil {
		s.logger.Err(err).Str("reason", reason).Msg("failed to delete session snapshot")
	}
	s.user = nil
	s.loading = false
	s.mu.Unlock()

	s.logger.Debug().Str("reason", reason).Msg("session cleared")
	s.notify()
}

// Restore re-validates a persisted snapshot against the credential store.
// A snapshot with no credential material behind it is discarded.
func (s *State) Restore() error {
	snap, err := s.snapshots.Load()
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[State Restore] %w", err)
	}

	s.mu.Lock()
	valid := snap.User != nil && (s.store.Present() || s.store.RefreshToken() != "")
	if valid {
		u := *snap.User
		s.user = &u
	} else {
		s.user = nil
		if err := s.snapshots.Delete(); err != nil {
			s.logger.Err(err).Msg("failed to delete stale session snapshot")
		}
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	changed := s.loading != loading
	s.loading = loading
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *State) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Session{
		IsAuthenticated: s.store.Present(),
		IsLoading:       s.loading,
	}
	if s.user != nil {
		u := *s.user
		out.User = &u
	}
	return out
}

func (s *State) User() *users.UserSummary {
	return s.Snapshot().User
}

func (s *State) IsAuthenticated() bool {
	return s.store.Present()
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (s *State) Subscribe(fn func(Session)) func() {
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subscribers, id)
		s.subsMu.Unlock()
	}
}

func (s *State) notify() {
	snap := s.Snapshot()

	s.subsMu.Lock()
	subs := make([]func(Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
