package credentials_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return raw
}

func TestExpiryFromJWT(t *testing.T) {
	exp := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	t.Run("reads exp claim", func(t *testing.T) {
		got, ok := credentials.ExpiryFromJWT(mintToken(t, exp))
		require.True(t, ok)
		require.True(t, exp.Equal(got))
	})

	t.Run("opaque token", func(t *testing.T) {
		_, ok := credentials.ExpiryFromJWT("opaque-token")
		require.False(t, ok)
	})

	t.Run("no exp claim", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("k"))
		require.NoError(t, err)
		_, ok := credentials.ExpiryFromJWT(raw)
		require.False(t, ok)
	})
}

func TestNew_PrefersJWTExpiry(t *testing.T) {
	setClock(t)
	exp := baseTime.Add(15 * time.Minute)

	c := credentials.New(mintToken(t, exp), testRefreshToken, credentials.DefaultLifetimes())
	require.True(t, exp.Equal(c.Expiry))
	require.Equal(t, baseTime.Add(7*24*time.Hour), c.RefreshExpiry)
}
