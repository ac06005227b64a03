package store

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSettings_LoadDefaultsWhenAbsent(t *testing.T) {
	s := NewLocalSettingsStore(persist.NewSettingsFile(persist.NewMemoryStorage()))
	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Loaded())
	assert.Equal(t, domain.DefaultSettings(), s.Current())
	assert.Equal(t, "America/Los_Angeles", s.Location().String())
}

func TestLocalSettings_PartialRecordKeepsDefaults(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	require.NoError(t, storage.SetItem(ctx, persist.SettingsKey, `{"maxHoursPerDay":4,"workingHours":{"start":"09:00","end":"17:00"}}`))

	s := NewLocalSettingsStore(persist.NewSettingsFile(storage))
	require.NoError(t, s.Load(ctx))

	want := domain.DefaultSettings()
	want.MaxHoursPerDay = 4
	want.WorkingHours = domain.WorkingHours{Start: "09:00", End: "17:00"}
	assert.Equal(t, want, s.Current())
}

func TestLocalSettings_InvalidRecordFallsBackAndLogs(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	require.NoError(t, storage.SetItem(ctx, persist.SettingsKey, `{"timezone":"Mars/Olympus"}`))
	obs := &recordingObserver{}

	s := NewLocalSettingsStore(persist.NewSettingsFile(storage), WithSettingsObserver(obs))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, domain.DefaultSettings(), s.Current())
	assert.Len(t, obs.failures(), 1)
}

func TestLocalSettings_StorageFailureBlocksWrites(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	saved := domain.DefaultSettings()
	saved.Timezone = "Europe/Berlin"
	saved.MaxHoursPerDay = 3
	require.NoError(t, persist.NewSettingsFile(storage).Write(ctx, saved))

	flaky := &flakyStorage{MemoryStorage: storage, failReads: 1, err: errDisk}
	s := NewLocalSettingsStore(persist.NewSettingsFile(flaky))

	require.ErrorIs(t, s.Load(ctx), errDisk)
	assert.Equal(t, domain.DefaultSettings(), s.Current())
	assert.Contains(t, s.Err(), "disk full")

	_, err := s.SetDefaultSlotMinutes(ctx, 45)
	assert.ErrorIs(t, err, ErrUnreadable)
	_, err = s.Reset(ctx)
	assert.ErrorIs(t, err, ErrUnreadable)

	stored, err := persist.NewSettingsFile(storage).Read(ctx, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, saved, stored)

	require.NoError(t, s.Load(ctx))
	assert.Equal(t, saved, s.Current())
	assert.Empty(t, s.Err())
	got, err := s.SetDefaultSlotMinutes(ctx, 45)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", got.Timezone)
	assert.Equal(t, 45, got.DefaultSlotMinutes)
}

func TestLocalSettings_SettersWriteThrough(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	file := persist.NewSettingsFile(storage)
	s := NewLocalSettingsStore(file)
	require.NoError(t, s.Load(ctx))

	_, err := s.SetWorkingHours(ctx, "07:30", "16:00")
	require.NoError(t, err)
	_, err = s.SetDefaultSlotMinutes(ctx, 45)
	require.NoError(t, err)
	_, err = s.SetMaxHoursPerDay(ctx, 7)
	require.NoError(t, err)
	got, err := s.ToggleDeepWork(ctx)
	require.NoError(t, err)
	assert.False(t, got.DeepWorkInMorning)

	tz := "Europe/Berlin"
	got, err = s.Update(ctx, domain.SettingsPatch{Timezone: &tz})
	require.NoError(t, err)

	persisted, err := file.Read(ctx, domain.Settings{})
	require.NoError(t, err)
	assert.Equal(t, got, persisted)
	assert.Equal(t, domain.Settings{
		Timezone:           "Europe/Berlin",
		WorkingHours:       domain.WorkingHours{Start: "07:30", End: "16:00"},
		DefaultSlotMinutes: 45,
		MaxHoursPerDay:     7,
		DeepWorkInMorning:  false,
	}, persisted)

	reset, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), reset)
	persisted, err = file.Read(ctx, domain.Settings{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), persisted)
}

func TestSettings_SettersValidate(t *testing.T) {
	ctx := context.Background()
	s := NewLocalSettingsStore(persist.NewSettingsFile(persist.NewMemoryStorage()))
	require.NoError(t, s.Load(ctx))

	_, err := s.SetWorkingHours(ctx, "18:00", "09:00")
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
	_, err = s.SetDefaultSlotMinutes(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
	_, err = s.SetMaxHoursPerDay(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
	tz := "Nowhere/Special"
	_, err = s.Update(ctx, domain.SettingsPatch{Timezone: &tz})
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	assert.Equal(t, domain.DefaultSettings(), s.Current())
}

func TestRemoteSettings_LoadMergesOverDefaults(t *testing.T) {
	api := &fakeAPI{settings: domain.Settings{Timezone: "Europe/Paris", DefaultSlotMinutes: 30}}
	s := NewRemoteSettingsStore(api)
	require.NoError(t, s.Load(context.Background()))

	want := domain.BackendDefaultSettings()
	want.Timezone = "Europe/Paris"
	want.DefaultSlotMinutes = 30
	want.DeepWorkInMorning = false
	assert.Equal(t, want, s.Current())
}

func TestRemoteSettings_FailureKeepsDefaults(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{err: errBackend}
	s := NewRemoteSettingsStore(api)

	err := s.Load(ctx)
	assert.ErrorIs(t, err, errBackend)
	assert.True(t, s.Loaded())
	assert.Equal(t, domain.BackendDefaultSettings(), s.Current())
	assert.Contains(t, s.Err(), "backend down")

	_, err = s.SetMaxHoursPerDay(ctx, 3)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 5, s.Current().MaxHoursPerDay)

	api.failWith(nil)
	got, err := s.SetMaxHoursPerDay(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MaxHoursPerDay)
	assert.Equal(t, got, api.settings)
	assert.Empty(t, s.Err())
}

func TestEventStore_UsesSettingsStore(t *testing.T) {
	ctx := context.Background()
	settings := NewLocalSettingsStore(persist.NewSettingsFile(persist.NewMemoryStorage()))
	require.NoError(t, settings.Load(ctx))
	_, err := settings.SetDefaultSlotMinutes(ctx, 15)
	require.NoError(t, err)

	api := &fakeAPI{}
	events := NewRemoteEventStore(api, WithSettings(settings))
	require.NoError(t, events.Load(ctx))
	in := domain.EventInput{Title: "call", Start: fixedNow, End: fixedNow.Add(45 * time.Minute)}
	orig, err := events.Create(ctx, in)
	require.NoError(t, err)

	dup, err := events.Duplicate(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, orig.End.Add(15*time.Minute).Equal(dup.Start))
}
