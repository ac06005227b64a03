package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL DEFAULT '',
		start_at        TEXT NOT NULL,
		end_at          TEXT NOT NULL,
		all_day         INTEGER NOT NULL DEFAULT 0,
		status          TEXT NOT NULL DEFAULT 'proposed'
		                CHECK(status IN ('proposed','scheduled','in_progress','done','blocked','canceled')),
		priority        TEXT NOT NULL DEFAULT 'P2'
		                CHECK(priority IN ('P1','P2','P3')),
		deadline        TEXT,
		owner           TEXT NOT NULL DEFAULT '',
		assignees       TEXT NOT NULL DEFAULT '[]',
		project         TEXT,
		dependencies    TEXT NOT NULL DEFAULT '[]',
		description     TEXT NOT NULL DEFAULT '',
		instructions    TEXT NOT NULL DEFAULT '',
		transcript_refs TEXT NOT NULL DEFAULT '[]',
		ai_notes        TEXT,
		reminders       TEXT NOT NULL DEFAULT '[]',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_status ON events(status)`,
	`CREATE INDEX IF NOT EXISTS idx_events_project ON events(project)`,

	`CREATE TABLE IF NOT EXISTS settings (
		id                   TEXT PRIMARY KEY DEFAULT 'default',
		timezone             TEXT NOT NULL DEFAULT 'America/Los_Angeles',
		working_hours_start  TEXT NOT NULL DEFAULT '08:00',
		working_hours_end    TEXT NOT NULL DEFAULT '17:00',
		default_slot_minutes INTEGER NOT NULL DEFAULT 60,
		max_hours_per_day    INTEGER NOT NULL DEFAULT 5,
		deep_work_in_morning INTEGER NOT NULL DEFAULT 1
	)`,

	// Seed default settings
	`INSERT OR IGNORE INTO settings (id) VALUES ('default')`,

	// Key/value area backing the local snapshot adapter
	`CREATE TABLE IF NOT EXISTS local_storage (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	// Add links (CRM reference and files) to events
	`ALTER TABLE events ADD COLUMN links TEXT`,
}
