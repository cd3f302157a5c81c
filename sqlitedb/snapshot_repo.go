package sqlitedb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/internal/errors"
	"github.com/jrsteele09/go-auth-console/session"
)

// SnapshotRepo is the session.SnapshotRepo of one browser session
type SnapshotRepo struct {
	d         *DB
	sessionID string
}

var _ session.SnapshotRepo = (*SnapshotRepo)(nil)

func (d *DB) Snapshots(sessionID string) *SnapshotRepo {
	return &SnapshotRepo{d: d, sessionID: sessionID}
}

func (r *SnapshotRepo) Load() (session.Snapshot, error) {
	var payload string
	err := r.d.db.QueryRow(`SELECT payload FROM snapshot WHERE session_id = ?`, r.sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, errors.ErrNotFound
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("[SnapshotRepo Load] %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return session.Snapshot{}, errors.Wrapf(errors.ErrCorruptRecord, "[SnapshotRepo Load] %v", err)
	}
	return snap, nil
}

func (r *SnapshotRepo) Save(s session.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("[SnapshotRepo Save] %w", err)
	}
	_, err = r.d.db.Exec(`
		INSERT INTO snapshot (session_id, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		r.sessionID, string(payload), toMillis(credentials.NowTimeFunc()),
	)
	if err != nil {
		return fmt.Errorf("[SnapshotRepo Save] %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Delete() error {
	if _, err := r.d.db.Exec(`DELETE FROM snapshot WHERE session_id = ?`, r.sessionID); err != nil {
		return fmt.Errorf("[SnapshotRepo Delete] %w", err)
	}
	return nil
}
