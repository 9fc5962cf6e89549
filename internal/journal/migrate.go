package journal

import (
	"database/sql"
	"errors"
	"fmt"
)

// SchemaVersion is the journal schema this package writes.
const SchemaVersion = 1

var schema = []struct {
	name string
	stmt string
}{
	{"sessions table", `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			world TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT
		);
	`},
	{"events table", `
		CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			seq INTEGER NOT NULL,
			round INTEGER NOT NULL,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			source TEXT NOT NULL,
			actor TEXT NOT NULL,
			target TEXT NOT NULL,
			scopes TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);
	`},
	{"turns table", `
		CREATE TABLE IF NOT EXISTS turns (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			turn INTEGER NOT NULL,
			round INTEGER NOT NULL,
			character_id TEXT NOT NULL,
			executed INTEGER NOT NULL,
			penalized INTEGER NOT NULL,
			reason TEXT NOT NULL,
			quit INTEGER NOT NULL,
			remaining INTEGER NOT NULL,
			PRIMARY KEY (session_id, turn)
		);
	`},
	{"outcomes table", `
		CREATE TABLE IF NOT EXISTS outcomes (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			character_id TEXT NOT NULL,
			name TEXT NOT NULL,
			room TEXT NOT NULL,
			status TEXT NOT NULL,
			action_points INTEGER NOT NULL,
			inventory TEXT NOT NULL,
			tags TEXT NOT NULL,
			PRIMARY KEY (session_id, character_id)
		);
	`},
	{"idx_events_session_round", `CREATE INDEX IF NOT EXISTS idx_events_session_round ON events(session_id, round);`},
}

// Migrate brings db up to SchemaVersion. It is safe to call on every start.
func Migrate(db *sql.DB) error {
	if db == nil {
		return errors.New("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current sql.NullInt64
	err = db.QueryRow(`SELECT MAX(version) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read schema version: %w", err)
	}
	if current.Valid && current.Int64 >= SchemaVersion {
		return nil
	}

	transaction, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer transaction.Rollback()

	for _, step := range schema {
		if _, err := transaction.Exec(step.stmt); err != nil {
			return fmt.Errorf("migrate: create %s: %w", step.name, err)
		}
	}

	_, err = transaction.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}
