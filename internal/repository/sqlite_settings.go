package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/takeoff/internal/db"
	"github.com/alexanderramin/takeoff/internal/domain"
)

const settingsRowID = "default"

// SQLiteSettingsRepo implements SettingsRepo using a SQLite database.
type SQLiteSettingsRepo struct {
	db db.DBTX
}

// NewSQLiteSettingsRepo creates a new SQLiteSettingsRepo.
func NewSQLiteSettingsRepo(conn db.DBTX) *SQLiteSettingsRepo {
	return &SQLiteSettingsRepo{db: conn}
}

func (r *SQLiteSettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	query := `SELECT timezone, working_hours_start, working_hours_end,
		default_slot_minutes, max_hours_per_day, deep_work_in_morning
		FROM settings WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, settingsRowID)

	var s domain.Settings
	var deepWork int
	err := row.Scan(
		&s.Timezone,
		&s.WorkingHours.Start,
		&s.WorkingHours.End,
		&s.DefaultSlotMinutes,
		&s.MaxHoursPerDay,
		&deepWork,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("settings: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning settings: %w", err)
	}
	s.DeepWorkInMorning = intToBool(deepWork)
	return &s, nil
}

func (r *SQLiteSettingsRepo) Upsert(ctx context.Context, s *domain.Settings) error {
	query := `INSERT OR REPLACE INTO settings (id, timezone, working_hours_start, working_hours_end,
		default_slot_minutes, max_hours_per_day, deep_work_in_morning)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		settingsRowID,
		s.Timezone,
		s.WorkingHours.Start,
		s.WorkingHours.End,
		s.DefaultSlotMinutes,
		s.MaxHoursPerDay,
		boolToInt(s.DeepWorkInMorning),
	)
	if err != nil {
		return fmt.Errorf("upserting settings: %w", err)
	}
	return nil
}
