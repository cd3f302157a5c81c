package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/internal/errors"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

// refresher is the single-flight state machine. While Refreshing, requests
// that hit a 401 queue a waiter; every waiter receives the outcome of the
// one refresh call when it settles.
type refresher struct {
	mu      sync.Mutex
	state   refreshState
	waiters []chan error
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is returned by POST /auth/refresh. A missing refresh token
// means the backend does not rotate it.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// recoverAuth returns nil when the caller should replay its request with the
// credential now in the store.
func (c *Client) recoverAuth(ctx context.Context, sent string) error {
	r := &c.refresher

	r.mu.Lock()
	if r.state == stateRefreshing {
		wait := make(chan error, 1)
		r.waiters = append(r.waiters, wait)
		r.mu.Unlock()

		select {
		case err := <-wait:
			return err
		case <-ctx.Done():
			return &TransportError{Op: "await refresh", Err: ctx.Err()}
		}
	}

	// A refresh settled after this request went out; replay with the new credential.
	if cur := c.store.Get(); cur != nil && cur.AccessToken != sent {
		r.mu.Unlock()
		return nil
	}

	r.state = stateRefreshing
	r.mu.Unlock()

	return c.runRefresh(ctx)
}

func (c *Client) runRefresh(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = c.expire(fmt.Errorf("refresh panicked: %v", p))
			c.settle(err)
			panic(p)
		}
		c.settle(err)
	}()
	return c.refresh(ctx)
}

// settle returns the machine to Idle and drains the waiters exactly once
func (c *Client) settle(outcome error) {
	r := &c.refresher

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.state = stateIdle
	r.mu.Unlock()

	for _, w := range waiters {
		w <- outcome
	}
}

// refresh trades the refresh credential for a new pair. It runs detached
// from the initiating request's cancellation so one abandoned request cannot
// fail every waiter.
func (c *Client) refresh(ctx context.Context) error {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		return c.expire(errors.ErrNoRefreshCredential)
	}

	ctx = context.WithoutCancel(ctx)

	payload, err := json.Marshal(RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return c.expire(err)
	}

	res, _, err := c.send(ctx, http.MethodPost, RefreshPath, payload, false)
	if err != nil {
		return c.expire(err)
	}
	if !res.ok() {
		return c.expire(newAPIError(res.status, res.body))
	}

	var tokens RefreshResponse
	if err := json.Unmarshal(res.body, &tokens); err != nil {
		return c.expire(&TransportError{Op: "decode refresh", Err: err})
	}
	if tokens.AccessToken == "" {
		return c.expire(errors.Wrapf(errors.ErrInvalidToken, "refresh response without access token"))
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}

	if err := c.store.Set(credentials.New(tokens.AccessToken, tokens.RefreshToken, c.lifetimes)); err != nil {
		return c.expire(err)
	}

	c.logger.Debug().Msg("access credential refreshed")
	return nil
}

// expire clears the store, runs the session-expired hooks and returns the
// error every waiter will receive.
func (c *Client) expire(cause error) error {
	if err := c.store.Clear(); err != nil {
		c.logger.Err(err).Msg("failed to clear credential store after refresh failure")
	}

	c.hooksMu.Lock()
	hooks := append([]func(){}, c.expiredHooks...)
	c.hooksMu.Unlock()
	for _, hook := range hooks {
		hook()
	}

	c.logger.Info().Err(cause).Msg("session expired")
	return &SessionExpiredError{Cause: cause}
}
