package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_Get_DefaultSeededRow(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteSettingsRepo(db)

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.BackendDefaultSettings(), *got)
}

func TestSettingsRepo_Upsert_UpdatesRow(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteSettingsRepo(db)
	ctx := context.Background()

	updated := domain.Settings{
		Timezone:           "Europe/Berlin",
		WorkingHours:       domain.WorkingHours{Start: "09:00", End: "18:30"},
		DefaultSlotMinutes: 45,
		MaxHoursPerDay:     7,
		DeepWorkInMorning:  false,
	}
	require.NoError(t, repo.Upsert(ctx, &updated))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, *got)
}

func TestSettingsRepo_Get_NotFoundWhenDefaultDeleted(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteSettingsRepo(db)

	_, err := db.Exec(`DELETE FROM settings WHERE id = 'default'`)
	require.NoError(t, err)

	_, err = repo.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
