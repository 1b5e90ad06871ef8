package storage

import (
	"database/sql"
	"fmt"
)

// schemaVersion is bumped whenever the table layout changes
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	readiness   INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matrices (
	project_id   TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
	data         TEXT NOT NULL,
	generated_at INTEGER NOT NULL DEFAULT 0,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS diagnoses (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	registry_version TEXT NOT NULL,
	readiness        INTEGER NOT NULL,
	gaps             TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_diagnoses_project ON diagnoses(project_id, created_at);
`

// initializeSchema creates all tables on a fresh database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		return nil
	})
}

// runMigrations brings an existing database up to the current version
func (db *DB) runMigrations() error {
	var current int
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err != nil {
		// Pre-versioning database, recreate the version marker
		return db.initializeSchema()
	}

	if current > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", current, schemaVersion)
	}

	// No migrations between 1 and 1 yet
	return nil
}
