package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout = 10 * time.Second
	RefreshPath    = "/auth/refresh"

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// DefaultNoRefreshPaths answer 401 for bad input rather than an expired
// credential, so a 401 from them is returned as is.
var DefaultNoRefreshPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/logout",
	"/auth/forgot-password",
	"/auth/reset-password",
}

// Client calls the backend API with the current access credential attached
// and recovers once from an expired access credential by refreshing it.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	store     credentials.Store
	lifetimes credentials.Lifetimes
	noRefresh map[string]struct{}
	logger    zerolog.Logger

	refresher    refresher
	hooksMu      sync.Mutex
	expiredHooks []func()
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func New(baseURL string, store credentials.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{},
		timeout:   DefaultTimeout,
		store:     store,
		lifetimes: credentials.DefaultLifetimes(),
		noRefresh: map[string]struct{}{RefreshPath: {}},
		logger:    log.Logger,
	}
	for _, path := range DefaultNoRefreshPaths {
		c.noRefresh[path] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionExpired registers fn to run after a failed refresh
func (c *Client) OnSessionExpired(fn func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.expiredHooks = append(c.expiredHooks, fn)
}

func (c *Client) Store() credentials.Store {
	return c.store
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends body as JSON and decodes a 2xx response into out (if non-nil).
//
// A 401 on the first attempt starts, or joins, the single in-flight refresh
// and the request is replayed once. A 401 on the replay is returned as an
// *APIError. Non-2xx responses are *APIError, a rejected refresh is
// *SessionExpiredError and anything that kept a response from being read is
// *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	res, sent, err := c.send(ctx, method, path, payload, true)
	if err != nil {
		return err
	}

	if res.status == http.StatusUnauthorized && !c.skipsRefresh(path) {
		if err := c.recoverAuth(ctx, sent); err != nil {
			return err
		}
		res, _, err = c.send(ctx, method, path, payload, true)
		if err != nil {
			return err
		}
	}

	return c.decode(method, path, res, out)
}

func (c *Client) skipsRefresh(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	_, ok := c.noRefresh[path]
	return ok
}

// send performs one HTTP exchange, bounded by the client timeout, and
// returns the access token it attached
func (c *Client) send(ctx context.Context, method, path string, payload []byte, withAuth bool) (*response, string, error) {
	url := c.baseURL + path

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, "", &TransportError{Op: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)

	var sent string
	if withAuth {
		if cred := c.store.Get(); cred != nil {
			cred.SetAuthHeader(req)
			sent = cred.AccessToken
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("api request failed")
		return nil, sent, &TransportError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, sent, &TransportError{Op: "read " + method, URL: url, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	return &response{status: resp.StatusCode, header: resp.Header, body: body}, sent, nil
}

func (c *Client) decode(method, path string, res *response, out any) error {
	if !res.ok() {
		return newAPIError(res.status, res.body)
	}
	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return &TransportError{Op: "decode " + method, URL: c.baseURL + path, Err: err}
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient] encode request body: %w", err)
	}
	return payload, nil
}
