package apiclient

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/rs/zerolog"
)

type Option func(*Client)

// WithHTTPClient sends through hc, which may be shared between clients.
// hc is never modified; WithTimeout bounds each exchange instead.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLifetimes(l credentials.Lifetimes) Option {
	return func(c *Client) { c.lifetimes = l }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSessionExpiredHook registers fn to run after a failed refresh has
// cleared the credential store.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.expiredHooks = append(c.expiredHooks, fn) }
}
