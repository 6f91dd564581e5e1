package store

import (
	"database/sql"
	"fmt"
	"strings"

	"knowvault/internal/logging"
)

// migration is a single idempotent schema change applied in order and
// recorded in schema_meta so it never runs twice.
type migration struct {
	name string
	run  func(*sql.Tx) error
}

// migrations lists schema evolution steps beyond the baseline created by
// initSchema. New columns/tables added after the baseline schema was fixed
// belong here, each guarded by its own applied-migrations record so an
// existing on-disk database picks them up exactly once on next open.
var migrations = []migration{
	{
		name: "entries_source_column",
		run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE entries ADD COLUMN source TEXT DEFAULT ''`)
			if err != nil && !isDuplicateColumn(err) {
				return err
			}
			return nil
		},
	},
	{
		name: "knowledge_access_count",
		run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE knowledge ADD COLUMN access_count INTEGER DEFAULT 0`)
			if err != nil && !isDuplicateColumn(err) {
				return err
			}
			return nil
		},
	},
}

// RunMigrations applies every migration not yet recorded in schema_meta, in
// declaration order, each inside its own transaction so a failure partway
// through does not mark the migration applied.
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("migrations: ensure schema_meta: %w", err)
	}

	for _, m := range migrations {
		key := "migration:" + m.name
		var applied string
		err := db.QueryRow(`SELECT value FROM schema_meta WHERE key = ?`, key).Scan(&applied)
		if err == nil {
			continue // already applied
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("migrations: check %s: %w", m.name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrations: begin %s: %w", m.name, err)
		}
		if err := m.run(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrations: run %s: %w", m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_meta(key, value) VALUES (?, 'applied')`, key); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrations: record %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrations: commit %s: %w", m.name, err)
		}
		logging.StoreDebug("migration applied: %s", m.name)
	}
	return nil
}

// isDuplicateColumn tolerates re-running an ALTER TABLE ADD COLUMN against
// a database that already has the column, which SQLite reports as an error
// rather than a no-op.
func isDuplicateColumn(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
