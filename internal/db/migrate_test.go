package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func columnNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(`PRAGMA table_info(` + table + `)`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull, pk int
		var dflt sql.NullString
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// OpenDB already migrated once.
	err := Migrate(db)
	require.NoError(t, err)

	err = Migrate(db)
	require.NoError(t, err)
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{"events", "settings", "local_storage"}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_events_start",
		"idx_events_status",
		"idx_events_project",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign keys should be enabled")
}

func TestMigrate_WALModeRequested(t *testing.T) {
	// In-memory SQLite uses "memory" journal mode; WAL only applies to file DBs.
	db := openTestDB(t)

	var mode string
	err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "memory", mode)
}

func TestMigrate_SeedsDefaultSettings(t *testing.T) {
	db := openTestDB(t)

	var tz, start, end string
	var slot, maxHours, deepWork int
	err := db.QueryRow(`SELECT timezone, working_hours_start, working_hours_end,
		default_slot_minutes, max_hours_per_day, deep_work_in_morning
		FROM settings WHERE id = 'default'`).Scan(&tz, &start, &end, &slot, &maxHours, &deepWork)
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", tz)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "17:00", end)
	assert.Equal(t, 60, slot)
	assert.Equal(t, 5, maxHours)
	assert.Equal(t, 1, deepWork)
}

func TestMigrate_EventsLinksColumn(t *testing.T) {
	db := openTestDB(t)
	assert.Contains(t, columnNames(t, db, "events"), "links")
}

func TestMigrate_EventsCheckConstraints(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO events (id, start_at, end_at, status, created_at, updated_at)
		VALUES ('e1', '2025-01-01T09:00:00Z', '2025-01-01T10:00:00Z', 'INVALID', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	assert.Error(t, err, "invalid status should be rejected by CHECK constraint")

	_, err = db.Exec(`INSERT INTO events (id, start_at, end_at, priority, created_at, updated_at)
		VALUES ('e1', '2025-01-01T09:00:00Z', '2025-01-01T10:00:00Z', 'P0', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	assert.Error(t, err, "invalid priority should be rejected by CHECK constraint")

	_, err = db.Exec(`INSERT INTO events (id, start_at, end_at, created_at, updated_at)
		VALUES ('e1', '2025-01-01T09:00:00Z', '2025-01-01T10:00:00Z', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	require.NoError(t, err)

	var status, priority, assignees string
	err = db.QueryRow(`SELECT status, priority, assignees FROM events WHERE id = 'e1'`).Scan(&status, &priority, &assignees)
	require.NoError(t, err)
	assert.Equal(t, "proposed", status)
	assert.Equal(t, "P2", priority)
	assert.Equal(t, "[]", assignees)
}

func TestMigrate_LocalStorageKeyUnique(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO local_storage (key, value, updated_at) VALUES ('k', 'v1', '2025-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO local_storage (key, value, updated_at) VALUES ('k', 'v2', '2025-01-01T00:00:00Z')`)
	assert.Error(t, err, "duplicate key should violate primary key")
}
