package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jrsteele09/go-auth-console/apiclient"
	"github.com/jrsteele09/go-auth-console/users"
)

const (
	DefaultRolesCacheTTL = 5 * time.Minute
	rolesMaxRetries      = 3
	rolesCacheKey        = "roles"
)

// RolesCache holds the role list for every workspace
type RolesCache struct {
	lru *expirable.LRU[string, []users.Role]
}

func NewRolesCache(ttl time.Duration) *RolesCache {
	if ttl <= 0 {
		ttl = DefaultRolesCacheTTL
	}
	return &RolesCache{lru: expirable.NewLRU[string, []users.Role](1, nil, ttl)}
}

func (c *RolesCache) get() ([]users.Role, bool) {
	return c.lru.Get(rolesCacheKey)
}

func (c *RolesCache) add(roles []users.Role) {
	c.lru.Add(rolesCacheKey, roles)
}

func (c *RolesCache) Purge() {
	c.lru.Purge()
}

// RolesBackOff doubles from one second up to thirty
func RolesBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Roles returns the assignable roles, served from cache for five minutes.
// Server errors and transport failures are retried up to three times; client
// errors and session expiry are returned at once.
func (s *Service) Roles(ctx context.Context) ([]users.Role, error) {
	if roles, ok := s.roles.get(); ok {
		return roles, nil
	}

	var roles []users.Role
	op := func() error {
		err := s.client.Get(ctx, PathRoles, &roles)
		switch apiclient.Classify(err) {
		case apiclient.KindNone, apiclient.KindTransport:
			return err
		case apiclient.KindAPI:
			if apiclient.StatusOf(err) >= http.StatusInternalServerError {
				return err
			}
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn().Err(err).Dur("retry_in", wait).Msg("roles request failed")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.rolesBackOff(), rolesMaxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}

	s.roles.add(roles)
	return roles, nil
}

// checkRole accepts only a role ID the backend lists. A miss purges the
// cache and asks once more, since roles may have been added since it filled.
func (s *Service) checkRole(ctx context.Context, id string) error {
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			s.roles.Purge()
		}
		roles, err := s.Roles(ctx)
		if err != nil {
			return statusMapping{}.mapError(err)
		}
		if _, ok := users.FindRole(roles, id); ok {
			return nil
		}
	}
	return &ValidationError{Fields: map[string]string{FieldRole: msgSelectRole}}
}
