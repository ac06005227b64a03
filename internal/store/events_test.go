package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/persist"
	"github.com/alexanderramin/takeoff/internal/scheduler"
	"github.com/alexanderramin/takeoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type localFixture struct {
	store   *EventStore
	snaps   *countingSnapshots
	storage *persist.MemoryStorage
	obs     *recordingObserver
}

func newLocal(t *testing.T, opts ...Option) localFixture {
	t.Helper()
	storage := persist.NewMemoryStorage()
	snaps := newCountingSnapshots(storage)
	obs := &recordingObserver{}
	base := []Option{WithClock(fixedClock), WithSettings(utcSettings()), WithObserver(obs)}
	return localFixture{
		store:   NewLocalEventStore(snaps, append(base, opts...)...),
		snaps:   snaps,
		storage: storage,
		obs:     obs,
	}
}

// newEmptyLocal loads a store over an existing empty snapshot.
func newEmptyLocal(t *testing.T, opts ...Option) localFixture {
	t.Helper()
	f := newLocal(t, opts...)
	ctx := context.Background()
	require.NoError(t, f.snaps.SnapshotAdapter.Write(ctx, persist.Snapshot{Version: persist.SnapshotVersion, Events: []domain.Event{}}))
	require.NoError(t, f.store.Load(ctx))
	require.Empty(t, f.store.All())
	return f
}

func titles(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func eventIDs(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestLocalLoad_SeedsOnceAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newLocal(t)

	require.NoError(t, f.store.Load(ctx))
	first := f.store.All()
	assert.Len(t, first, 6)
	assert.True(t, scheduler.IsSorted(first))
	assert.Equal(t, 1, f.snaps.writeCount())
	assert.False(t, f.store.Loading())

	again := NewLocalEventStore(f.snaps, WithClock(fixedClock), WithSettings(utcSettings()))
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, first, again.All())
	assert.Equal(t, 1, f.snaps.writeCount(), "a usable snapshot is not reseeded")
}

func TestLocalLoad_EmptySnapshotStaysEmpty(t *testing.T) {
	f := newEmptyLocal(t)
	assert.Equal(t, 0, f.snaps.writeCount())
}

func TestLocalLoad_MalformedSnapshotReseeds(t *testing.T) {
	ctx := context.Background()
	f := newLocal(t)
	require.NoError(t, f.storage.SetItem(ctx, persist.EventsKey, `{"version":1,"events":"nope"}`))

	require.NoError(t, f.store.Load(ctx))
	assert.Len(t, f.store.All(), 6)
	assert.Equal(t, 1, f.snaps.writeCount())

	failures := f.obs.failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, persist.ErrNoSnapshot)
}

func TestLocalLoad_StorageFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	mine := testutil.NewTestEvent("Mine", testutil.WithEventID("mine"))
	require.NoError(t, persist.NewSnapshotStore(storage).Write(ctx, persist.Snapshot{
		Version: persist.SnapshotVersion,
		Events:  []domain.Event{*mine},
	}))
	locked := errors.New("database is locked")
	flaky := &flakyStorage{MemoryStorage: storage, failReads: 1, err: locked}
	s := NewLocalEventStore(persist.NewSnapshotStore(flaky), WithClock(fixedClock), WithSettings(utcSettings()))

	err := s.Load(ctx)
	require.ErrorIs(t, err, locked)
	assert.Empty(t, s.All())
	assert.Contains(t, s.Err(), "database is locked")
	assert.False(t, s.Loading())

	_, err = s.Create(ctx, testutil.NewTestInput("Blind write"))
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.ErrorIs(t, s.ApplyPlan(ctx, domain.PlanDiff{Added: []domain.Event{*testutil.NewTestEvent("Planned")}}), ErrUnreadable)

	snap, err := persist.NewSnapshotStore(storage).Read(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "mine", snap.Events[0].ID)

	require.NoError(t, s.Load(ctx))
	require.Len(t, s.All(), 1)
	assert.Equal(t, "mine", s.All()[0].ID)
	assert.Empty(t, s.Err())

	_, err = s.Create(ctx, testutil.NewTestInput("After recovery"))
	require.NoError(t, err)
	assert.Len(t, s.All(), 2)
}

func TestCreate_SortsSelectsAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)

	for _, in := range []domain.EventInput{
		testutil.NewTestInput("late", testutil.WithStart(testutil.BaseTime.Add(2*time.Hour))),
		testutil.NewTestInput("early"),
		testutil.NewTestInput("middle", testutil.WithStart(testutil.BaseTime.Add(time.Hour))),
	} {
		_, err := f.store.Create(ctx, in)
		require.NoError(t, err)
	}

	all := f.store.All()
	assert.Equal(t, []string{"early", "middle", "late"}, titles(all))
	for _, e := range all {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, fixedNow, e.CreatedAt)
		assert.Equal(t, fixedNow, e.UpdatedAt)
	}

	sel, ok := f.store.Selected()
	require.True(t, ok)
	assert.Equal(t, "middle", sel.Title)

	assert.Equal(t, 3, f.snaps.writeCount())
	snap, err := f.snaps.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, snap.Events)
}

func TestCreate_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := f.store.Create(ctx, testutil.NewTestInput(title))
		require.NoError(t, err)
	}
	_, err := f.store.Create(ctx, testutil.NewTestInput("before", testutil.WithStart(testutil.BaseTime.Add(-time.Hour))))
	require.NoError(t, err)

	assert.Equal(t, []string{"before", "first", "second", "third"}, titles(f.store.All()))
}

func TestCreate_KeepsSuppliedIDAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)

	in := testutil.NewTestInput("sync")
	in.ID = "evt-fixed"
	e, err := f.store.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "evt-fixed", e.ID)

	_, err = f.store.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
	assert.Len(t, f.store.All(), 1)
}

func TestCreate_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)

	in := testutil.NewTestInput("backwards", testutil.WithSpan(testutil.BaseTime, testutil.BaseTime.Add(-time.Minute)))
	_, err := f.store.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	in = testutil.NewTestInput("odd status", testutil.WithStatus("later"))
	_, err = f.store.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	assert.Empty(t, f.store.All())
	assert.Equal(t, 0, f.snaps.writeCount())
}

func TestUpdate_MergesStampsAndResorts(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	f := newEmptyLocal(t, WithClock(func() time.Time { return now }))

	a, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)
	_, err = f.store.Create(ctx, testutil.NewTestInput("b", testutil.WithStart(testutil.BaseTime.Add(time.Hour))))
	require.NoError(t, err)

	now = fixedNow.Add(5 * time.Minute)
	start := testutil.BaseTime.Add(3 * time.Hour)
	end := start.Add(30 * time.Minute)
	title := "a moved"
	got, err := f.store.Update(ctx, a.ID, domain.EventPatch{Title: &title, Start: &start, End: &end})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "a moved", got.Title)
	assert.Equal(t, fixedNow, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Equal(t, []string{"b", "a moved"}, titles(f.store.All()))
	assert.Equal(t, 3, f.snaps.writeCount())
}

func TestUpdate_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)

	title := "x"
	got, err := f.store.Update(ctx, "evt-missing", domain.EventPatch{Title: &title})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.store.SetStatus(ctx, "evt-missing", domain.StatusDone)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, f.store.Remove(ctx, "evt-missing"))
	assert.Equal(t, 0, f.snaps.writeCount())
}

func TestUpdate_InvalidLeavesEventUntouched(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	e, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)

	end := e.Start.Add(-time.Hour)
	got, err := f.store.Update(ctx, e.ID, domain.EventPatch{End: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
	assert.Nil(t, got)

	stored, ok := f.store.ByID(e.ID)
	require.True(t, ok)
	assert.Equal(t, e.End, stored.End)
	assert.Equal(t, 1, f.snaps.writeCount())
}

func TestSetStatusAndPriority(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	e, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)

	got, err := f.store.SetStatus(ctx, e.ID, domain.StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, got.Status)

	got, err = f.store.SetPriority(ctx, e.ID, domain.PriorityP1)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityP1, got.Priority)
	assert.Equal(t, domain.StatusBlocked, got.Status)

	_, err = f.store.SetPriority(ctx, e.ID, "P9")
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	assert.Len(t, f.store.ByStatus(domain.StatusBlocked), 1)
	assert.Equal(t, 3, f.snaps.writeCount())
}

func TestDuplicate_LocalPlacementAndFloor(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	orig, err := f.store.Create(ctx, testutil.NewTestInput("standup",
		testutil.WithDuration(10*time.Minute),
		testutil.WithReminder(-15),
	))
	require.NoError(t, err)

	dup, err := f.store.Duplicate(ctx, orig.ID)
	require.NoError(t, err)
	require.NotNil(t, dup)

	assert.NotEqual(t, orig.ID, dup.ID)
	assert.Equal(t, "standup", dup.Title)
	assert.Equal(t, domain.StatusProposed, dup.Status)
	assert.Equal(t, orig.Start.AddDate(0, 0, 1), dup.Start)
	assert.Equal(t, 30*time.Minute, dup.End.Sub(dup.Start))
	require.Len(t, dup.Reminders, 1)
	assert.Equal(t, -15, dup.Reminders[0].OffsetMinutes)
	assert.NotEqual(t, orig.Reminders[0].ID, dup.Reminders[0].ID)

	sel, ok := f.store.Selected()
	require.True(t, ok)
	assert.Equal(t, dup.ID, sel.ID)
	assert.Len(t, f.store.All(), 2)
}

func TestDuplicate_RoundsToWholeMinutes(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	orig, err := f.store.Create(ctx, testutil.NewTestInput("review",
		testutil.WithDuration(44*time.Minute+40*time.Second)))
	require.NoError(t, err)

	dup, err := f.store.Duplicate(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, dup.End.Sub(dup.Start))
}

func TestDuplicate_UnknownIDIsNoop(t *testing.T) {
	f := newEmptyLocal(t)
	dup, err := f.store.Duplicate(context.Background(), "evt-missing")
	require.NoError(t, err)
	assert.Nil(t, dup)
}

func TestMoveToDay_KeepsTimeOfDayAndDuration(t *testing.T) {
	ctx := context.Background()
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	f := newEmptyLocal(t, WithSettings(staticSettings(domain.DefaultSettings())))

	d1 := time.Date(2025, 3, 7, 14, 0, 45, 0, la)
	e, err := f.store.Create(ctx, testutil.NewTestInput("review", testutil.WithSpan(d1, d1.Add(time.Hour))))
	require.NoError(t, err)

	// Crosses the spring-forward transition on 2025-03-09.
	d2 := time.Date(2025, 3, 10, 23, 30, 0, 0, la)
	got, err := f.store.MoveToDay(ctx, e.ID, d2)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, time.Date(2025, 3, 10, 14, 0, 0, 0, la).Equal(got.Start))
	assert.True(t, time.Date(2025, 3, 10, 15, 0, 0, 0, la).Equal(got.End))
}

func TestReminders_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	e, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)

	got, err := f.store.AddReminder(ctx, e.ID, domain.Reminder{OffsetMinutes: -90})
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	r := got.Reminders[0]
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "-90m", r.Label)

	got, err = f.store.AddReminder(ctx, e.ID, domain.Reminder{ID: "r-1", OffsetMinutes: -120, Label: "two hours"})
	require.NoError(t, err)
	assert.Equal(t, domain.Reminder{ID: "r-1", OffsetMinutes: -120, Label: "two hours"}, got.Reminders[1])
	writes := f.snaps.writeCount()

	got, err = f.store.RemoveReminder(ctx, e.ID, "r-missing")
	require.NoError(t, err)
	assert.Len(t, got.Reminders, 2)
	assert.Equal(t, writes, f.snaps.writeCount())

	got, err = f.store.RemoveReminder(ctx, e.ID, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	assert.Equal(t, "r-1", got.Reminders[0].ID)
	assert.Equal(t, writes+1, f.snaps.writeCount())
}

func TestRemove_ClearsSelection(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	a, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)
	b, err := f.store.Create(ctx, testutil.NewTestInput("b"))
	require.NoError(t, err)

	require.True(t, f.store.Select(a.ID))
	require.NoError(t, f.store.Remove(ctx, b.ID))
	sel, ok := f.store.Selected()
	require.True(t, ok, "removing another event keeps the selection")
	assert.Equal(t, a.ID, sel.ID)

	require.NoError(t, f.store.Remove(ctx, a.ID))
	_, ok = f.store.Selected()
	assert.False(t, ok)
	assert.Empty(t, f.store.All())
	assert.Equal(t, 4, f.snaps.writeCount())
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	a, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)

	assert.False(t, f.store.Select("evt-missing"))
	sel, ok := f.store.Selected()
	require.True(t, ok)
	assert.Equal(t, a.ID, sel.ID)

	assert.True(t, f.store.Select(""))
	_, ok = f.store.Selected()
	assert.False(t, ok)
}

func TestOptimisticWriteFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	f.snaps.failWrite = errDisk

	e, err := f.store.Create(ctx, testutil.NewTestInput("kept"))
	require.NoError(t, err)
	_, ok := f.store.ByID(e.ID)
	assert.True(t, ok)
	assert.Empty(t, f.store.Err())

	failures := f.obs.failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "event.create", failures[0].Name)
	assert.ErrorIs(t, failures[0].Err, errDisk)
	assert.Equal(t, true, failures[0].Fields["optimistic"])
}

func TestApplyPlan_LocalSingleWrite(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	a, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)
	b, err := f.store.Create(ctx, testutil.NewTestInput("b", testutil.WithStart(testutil.BaseTime.Add(time.Hour))))
	require.NoError(t, err)
	require.True(t, f.store.Select(a.ID))
	writes := f.snaps.writeCount()

	diff := domain.PlanDiff{
		Added:   []domain.Event{*testutil.NewTestEvent("c", testutil.WithEventID(""), testutil.WithStart(testutil.BaseTime.Add(-time.Hour)))},
		Moved:   []domain.PlanMove{{ID: b.ID, From: b.Start, To: testutil.BaseTime.Add(4 * time.Hour)}},
		Deleted: []string{a.ID},
	}
	require.NoError(t, f.store.ApplyPlan(ctx, diff))

	all := f.store.All()
	assert.Equal(t, []string{"c", "b"}, titles(all))
	assert.NotEmpty(t, all[0].ID)
	assert.Equal(t, writes+1, f.snaps.writeCount())
	_, ok := f.store.Selected()
	assert.False(t, ok, "selected event was deleted by the plan")
}

func TestApplyPlan_InvalidDiffChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	a, err := f.store.Create(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)
	before := f.store.All()
	writes := f.snaps.writeCount()

	err = f.store.ApplyPlan(ctx, domain.PlanDiff{
		Moved:   []domain.PlanMove{{ID: a.ID, To: testutil.BaseTime.Add(time.Hour)}},
		Deleted: []string{"evt-missing"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
	assert.Equal(t, before, f.store.All())
	assert.Equal(t, writes, f.snaps.writeCount())

	require.NoError(t, f.store.ApplyPlan(ctx, domain.PlanDiff{Notes: "nothing"}))
	assert.Equal(t, writes, f.snaps.writeCount())
}

func TestReads_FiltersAndConflicts(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	day := testutil.BaseTime

	inputs := []domain.EventInput{
		testutil.NewTestInput("a", testutil.WithProject("Liftoff")),
		testutil.NewTestInput("b", testutil.WithStart(day.Add(30*time.Minute)), testutil.WithProject("Atlas")),
		testutil.NewTestInput("c", testutil.WithStart(day.Add(3*time.Hour)), testutil.WithProject("Liftoff")),
		testutil.NewTestInput("offsite", testutil.WithAllDay(), testutil.WithSpan(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))),
	}
	created := make([]domain.Event, len(inputs))
	for i, in := range inputs {
		e, err := f.store.Create(ctx, in)
		require.NoError(t, err)
		created[i] = e
	}

	assert.Equal(t, []string{"Liftoff", "Atlas"}, f.store.Projects())
	assert.Equal(t, []string{"a", "c"}, titles(f.store.ByProject("Liftoff")))
	assert.Equal(t, []string{"a", "b", "c"}, titles(f.store.ByDay(day)))
	assert.Equal(t, []string{"offsite"}, titles(f.store.ByDay(day.AddDate(0, 0, 2))))
	assert.Equal(t, []string{"c"}, titles(f.store.ByRange(day.Add(2*time.Hour), day.Add(5*time.Hour))))

	conflicts := f.store.Conflicts()
	assert.Equal(t, []string{created[1].ID}, conflicts[created[0].ID])
	assert.Equal(t, []string{created[0].ID}, conflicts[created[1].ID])
	assert.False(t, conflicts.Has(created[2].ID))
	assert.False(t, conflicts.Has(created[3].ID))
}

func TestReads_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)
	e, err := f.store.Create(ctx, testutil.NewTestInput("a", testutil.WithAssignees("Avery")))
	require.NoError(t, err)

	all := f.store.All()
	all[0].Title = "changed"
	all[0].Assignees[0] = "Mallory"

	got, ok := f.store.ByID(e.ID)
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, []string{"Avery"}, got.Assignees)
}

func TestConcurrentCreatesStaySortedAndPersisted(t *testing.T) {
	ctx := context.Background()
	f := newEmptyLocal(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := testutil.NewTestInput("e", testutil.WithStart(testutil.BaseTime.Add(time.Duration(20-i)*time.Minute)))
			_, err := f.store.Create(ctx, in)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all := f.store.All()
	assert.Len(t, all, 20)
	assert.True(t, scheduler.IsSorted(all))

	snap, err := f.snaps.Read(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, eventIDs(all), eventIDs(snap.Events))
}
