// Package sqlitedb persists per-browser credentials and session snapshots so
// that console sessions survive a restart.
package sqlitedb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-console/credentials"
	_ "modernc.org/sqlite"
)

type DB struct {
	db     *sql.DB
	sealer credentials.Sealer
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// a throwaway database.
func Open(path string, sealer credentials.Sealer) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("[sqlitedb Open] failed to connect to database: %w", err)
	}
	// Serialise writers; sqlite allows one at a time and :memory: is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("[sqlitedb Open] couldn't enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("[sqlitedb Open] failed to init database: %w", err)
	}

	if sealer == nil {
		sealer = credentials.PlainSealer{}
	}
	return &DB{db: db, sealer: sealer}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func initSchema(db *sql.DB) error {
	if err := initTable(db, "credential", `
		CREATE TABLE IF NOT EXISTS credential (
			session_id          TEXT PRIMARY KEY,
			access_token        TEXT NOT NULL,
			refresh_token       TEXT NOT NULL,
			access_expires_at   INTEGER NOT NULL,
			refresh_expires_at  INTEGER NOT NULL,
			updated_at          INTEGER NOT NULL
		);`,
	); err != nil {
		return err
	}

	if err := initTable(db, "snapshot", `
		CREATE TABLE IF NOT EXISTS snapshot (
			session_id  TEXT PRIMARY KEY,
			payload     TEXT NOT NULL,
			saved_at    INTEGER NOT NULL
		);`,
	); err != nil {
		return err
	}

	return nil
}

func initTable(db *sql.DB, name string, sql string) error {
	if _, err := db.Exec(sql); err != nil {
		return fmt.Errorf("failed to init '%s' table schema: %v", name, err)
	}
	return nil
}

// PurgeExpired removes sessions whose refresh credential has expired,
// together with their snapshots and any snapshot left without credentials.
func (d *DB) PurgeExpired(now time.Time) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("[sqlitedb PurgeExpired] begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM credential WHERE refresh_expires_at != 0 AND refresh_expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("[sqlitedb PurgeExpired] credentials: %w", err)
	}
	n, _ := res.RowsAffected()

	if _, err := tx.Exec(`DELETE FROM snapshot WHERE session_id NOT IN (SELECT session_id FROM credential)`); err != nil {
		return 0, fmt.Errorf("[sqlitedb PurgeExpired] snapshots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("[sqlitedb PurgeExpired] commit: %w", err)
	}
	return n, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
