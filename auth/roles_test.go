package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jrsteele09/go-auth-console/apiclient"
	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/users"
	"github.com/stretchr/testify/require"
)

func TestService_Roles(t *testing.T) {
	t.Run("cached after the first call", func(t *testing.T) {
		f := setupTestFixture(t)

		roles, err := f.service.Roles(context.Background())
		require.NoError(t, err)
		require.Len(t, roles, 3)
		require.Equal(t, users.RoleAdmin, roles[0].Name)

		_, err = f.service.Roles(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, f.backend.RolesCalls())
	})

	t.Run("retries server errors", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.RolesFailures = 2

		roles, err := f.service.Roles(context.Background())
		require.NoError(t, err)
		require.Len(t, roles, 3)
		require.Equal(t, 3, f.backend.RolesCalls())
	})

	t.Run("gives up after three retries", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.RolesFailures = 10

		_, err := f.service.Roles(context.Background())
		require.Equal(t, apiclient.KindAPI, apiclient.Classify(err))
		require.Equal(t, 4, f.backend.RolesCalls())
	})

	t.Run("shared cache", func(t *testing.T) {
		f := setupTestFixture(t)
		cache := auth.NewRolesCache(time.Minute)
		a := auth.NewService(f.client, f.state, auth.WithRolesCache(cache))
		b := auth.NewService(f.client, f.state, auth.WithRolesCache(cache))

		_, err := a.Roles(context.Background())
		require.NoError(t, err)
		_, err = b.Roles(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, f.backend.RolesCalls())

		cache.Purge()
		_, err = b.Roles(context.Background())
		require.NoError(t, err)
		require.Equal(t, 2, f.backend.RolesCalls())
	})
}

func TestRolesBackOff(t *testing.T) {
	b := auth.RolesBackOff()
	b.Reset()

	var waits []time.Duration
	for i := 0; i < 7; i++ {
		waits = append(waits, b.NextBackOff())
	}
	require.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}, waits)
	require.NotEqual(t, backoff.Stop, waits[len(waits)-1])
}
