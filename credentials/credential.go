package credentials

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-console/internal/errors"
	"golang.org/x/oauth2"
)

// NowTimeFunc is the clock used for every expiry check. Tests override it.
var NowTimeFunc = time.Now

const tokenTypeBearer = "Bearer"

// Credential is the access/refresh pair issued by the backend. The two
// values expire independently; a zero expiry never elapses.
type Credential struct {
	AccessToken   string
	RefreshToken  string
	Expiry        time.Time
	RefreshExpiry time.Time
}

// Lifetimes are applied when a token carries no exp claim of its own
type Lifetimes struct {
	Access  time.Duration
	Refresh time.Duration
}

func DefaultLifetimes() Lifetimes {
	return Lifetimes{Access: time.Hour, Refresh: 7 * 24 * time.Hour}
}

// New builds a credential pair, taking each expiry from the token's JWT exp
// claim when present and from the configured lifetime otherwise.
func New(accessToken, refreshToken string, l Lifetimes) Credential {
	now := NowTimeFunc()
	return Credential{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		Expiry:        expiryFor(accessToken, now, l.Access),
		RefreshExpiry: expiryFor(refreshToken, now, l.Refresh),
	}
}

// FromToken converts an oauth2 token, keeping its expiry when it has one
func FromToken(t *oauth2.Token, l Lifetimes) Credential {
	c := New(t.AccessToken, t.RefreshToken, l)
	if !t.Expiry.IsZero() {
		c.Expiry = t.Expiry
	}
	return c
}

func expiryFor(token string, now time.Time, lifetime time.Duration) time.Time {
	if token == "" {
		return time.Time{}
	}
	if exp, ok := ExpiryFromJWT(token); ok {
		return exp
	}
	if lifetime <= 0 {
		return time.Time{}
	}
	return now.Add(lifetime)
}

func (c Credential) Validate() error {
	if c.AccessToken == "" {
		return errors.Wrapf(errors.ErrRequired, "access token")
	}
	if c.RefreshToken == "" {
		return errors.Wrapf(errors.ErrRequired, "refresh token")
	}
	return nil
}

func (c Credential) AccessExpired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

func (c Credential) RefreshExpired(now time.Time) bool {
	return c.RefreshToken == "" || (!c.RefreshExpiry.IsZero() && !now.Before(c.RefreshExpiry))
}

// Token exposes the access side as an oauth2 bearer token
func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    tokenTypeBearer,
		Expiry:       c.Expiry,
	}
}

func (c Credential) SetAuthHeader(r *http.Request) {
	c.Token().SetAuthHeader(r)
}
