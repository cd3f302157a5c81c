package credentials_test

import (
	"encoding/base64"
	"testing"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNewSealer(t *testing.T) {
	t.Run("empty key is pass-through", func(t *testing.T) {
		s, err := credentials.NewSealer("")
		require.NoError(t, err)
		sealed, err := s.Seal(testRefreshToken)
		require.NoError(t, err)
		require.Equal(t, testRefreshToken, sealed)
	})

	t.Run("short key", func(t *testing.T) {
		_, err := credentials.NewSealer(base64.StdEncoding.EncodeToString([]byte("too-short")))
		require.ErrorIs(t, err, errors.ErrInvalidStorageKey)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := credentials.NewSealer("%%%")
		require.ErrorIs(t, err, errors.ErrInvalidStorageKey)
	})
}

func TestAEADSealer(t *testing.T) {
	key, err := credentials.GenerateKey()
	require.NoError(t, err)
	s, err := credentials.NewSealer(key)
	require.NoError(t, err)

	sealed, err := s.Seal(testRefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, testRefreshToken, sealed)

	again, err := s.Seal(testRefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonces are random")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, testRefreshToken, opened)

	t.Run("wrong key", func(t *testing.T) {
		otherKey, err := credentials.GenerateKey()
		require.NoError(t, err)
		other, err := credentials.NewSealer(otherKey)
		require.NoError(t, err)

		_, err = other.Open(sealed)
		require.ErrorIs(t, err, errors.ErrCorruptRecord)
	})

	t.Run("empty stays empty", func(t *testing.T) {
		out, err := s.Seal("")
		require.NoError(t, err)
		require.Empty(t, out)
	})
}
