package sqlitedb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/rs/zerolog/log"
)

// CredentialStore is the credentials.Store of one browser session. Both
// tokens live in one row so a Set replaces the pair in a single statement.
type CredentialStore struct {
	d         *DB
	sessionID string
}

var _ credentials.Store = (*CredentialStore)(nil)

func (d *DB) Credentials(sessionID string) *CredentialStore {
	return &CredentialStore{d: d, sessionID: sessionID}
}

func (s *CredentialStore) load() (*credentials.Credential, error) {
	var (
		access, refresh       string
		accessExp, refreshExp int64
	)
	err := s.d.db.QueryRow(`
		SELECT access_token, refresh_token, access_expires_at, refresh_expires_at
		FROM credential WHERE session_id = ?`, s.sessionID,
	).Scan(&access, &refresh, &accessExp, &refreshExp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c := &credentials.Credential{
		Expiry:        fromMillis(accessExp),
		RefreshExpiry: fromMillis(refreshExp),
	}
	if c.AccessToken, err = s.d.sealer.Open(access); err != nil {
		return nil, err
	}
	if c.RefreshToken, err = s.d.sealer.Open(refresh); err != nil {
		return nil, err
	}
	return c, nil
}

// Get never fails; storage errors read as "no credential"
func (s *CredentialStore) Get() *credentials.Credential {
	c, err := s.load()
	if err != nil {
		log.Err(err).Str("session_id", s.sessionID).Msg("failed to read credential")
		return nil
	}
	if c == nil || c.AccessExpired(credentials.NowTimeFunc()) {
		return nil
	}
	return c
}

func (s *CredentialStore) Load() *credentials.Credential {
	c, err := s.load()
	if err != nil {
		log.Err(err).Str("session_id", s.sessionID).Msg("failed to read credential")
		return nil
	}
	return c
}

func (s *CredentialStore) RefreshToken() string {
	c, err := s.load()
	if err != nil {
		log.Err(err).Str("session_id", s.sessionID).Msg("failed to read refresh credential")
		return ""
	}
	if c == nil || c.RefreshExpired(credentials.NowTimeFunc()) {
		return ""
	}
	return c.RefreshToken
}

func (s *CredentialStore) Set(c credentials.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("[CredentialStore Set] %w", err)
	}

	access, err := s.d.sealer.Seal(c.AccessToken)
	if err != nil {
		return fmt.Errorf("[CredentialStore Set] seal access: %w", err)
	}
	refresh, err := s.d.sealer.Seal(c.RefreshToken)
	if err != nil {
		return fmt.Errorf("[CredentialStore Set] seal refresh: %w", err)
	}

	_, err = s.d.db.Exec(`
		INSERT INTO credential (session_id, access_token, refresh_token, access_expires_at, refresh_expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			access_expires_at = excluded.access_expires_at,
			refresh_expires_at = excluded.refresh_expires_at,
			updated_at = excluded.updated_at`,
		s.sessionID, access, refresh, toMillis(c.Expiry), toMillis(c.RefreshExpiry), toMillis(credentials.NowTimeFunc()),
	)
	if err != nil {
		return fmt.Errorf("[CredentialStore Set] %w", err)
	}
	return nil
}

func (s *CredentialStore) Clear() error {
	if _, err := s.d.db.Exec(`DELETE FROM credential WHERE session_id = ?`, s.sessionID); err != nil {
		return fmt.Errorf("[CredentialStore Clear] %w", err)
	}
	return nil
}

func (s *CredentialStore) Present() bool {
	return s.Get() != nil
}
