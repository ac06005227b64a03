package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/persist"
	"github.com/alexanderramin/takeoff/internal/scheduler"
)

var (
	fixedNow   = time.Date(2025, 6, 16, 7, 30, 0, 0, time.UTC)
	errBackend = errors.New("backend down")
	errDisk    = errors.New("disk full")
)

func utcSettings() SettingsSource {
	s := domain.DefaultSettings()
	s.Timezone = "UTC"
	return staticSettings(s)
}

func fixedClock() time.Time { return fixedNow }

type recordingObserver struct {
	mu     sync.Mutex
	events []OperationEvent
}

func (o *recordingObserver) ObserveOperation(_ context.Context, e OperationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) failures() []OperationEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []OperationEvent
	for _, e := range o.events {
		if !e.Success {
			out = append(out, e)
		}
	}
	return out
}

// countingSnapshots counts writes and can be told to fail them.
type countingSnapshots struct {
	persist.SnapshotAdapter
	mu        sync.Mutex
	writes    int
	failWrite error
}

func newCountingSnapshots(storage persist.Storage) *countingSnapshots {
	return &countingSnapshots{SnapshotAdapter: persist.NewSnapshotStore(storage)}
}

func (c *countingSnapshots) Write(ctx context.Context, s persist.Snapshot) error {
	c.mu.Lock()
	c.writes++
	fail := c.failWrite
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.SnapshotAdapter.Write(ctx, s)
}

func (c *countingSnapshots) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// fakeAPI is an in-memory backend that assigns sequential ids.
type fakeAPI struct {
	mu       sync.Mutex
	events   []domain.Event
	settings domain.Settings
	err      error
	calls    int
	seq      int
}

func (f *fakeAPI) begin() error {
	f.calls++
	return f.err
}

func (f *fakeAPI) ListEvents(context.Context) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	return cloneEvents(f.events), nil
}

func (f *fakeAPI) SaveEvent(_ context.Context, in domain.EventInput) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return domain.Event{}, err
	}
	e := in.ToEvent()
	if e.ID == "" {
		f.seq++
		e.ID = fmt.Sprintf("evt-%04d", f.seq)
	}
	e.CreatedAt = fixedNow
	e.UpdatedAt = fixedNow
	if i := slices.IndexFunc(f.events, func(x domain.Event) bool { return x.ID == e.ID }); i >= 0 {
		e.CreatedAt = f.events[i].CreatedAt
		f.events[i] = e
	} else {
		f.events = append(f.events, e)
	}
	scheduler.CanonicalSort(f.events)
	return e.Clone(), nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	f.events = slices.DeleteFunc(f.events, func(e domain.Event) bool { return e.ID == id })
	return nil
}

func (f *fakeAPI) ApplyPlan(_ context.Context, diff domain.PlanDiff) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	next, err := scheduler.ApplyPlan(f.events, diff, scheduler.PlanStamp{
		Now: fixedNow,
		NewID: func() string {
			f.seq++
			return fmt.Sprintf("evt-%04d", f.seq)
		},
	})
	if err != nil {
		return nil, err
	}
	f.events = next
	return cloneEvents(next), nil
}

func (f *fakeAPI) GetSettings(context.Context) (domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return domain.Settings{}, err
	}
	return f.settings, nil
}

func (f *fakeAPI) SaveSettings(_ context.Context, s domain.Settings) (domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return domain.Settings{}, err
	}
	f.settings = s
	return s, nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// flakyStorage fails the next failReads GetItem calls with err.
type flakyStorage struct {
	*persist.MemoryStorage
	mu        sync.Mutex
	failReads int
	err       error
}

func (f *flakyStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failReads > 0
	if fail {
		f.failReads--
	}
	f.mu.Unlock()
	if fail {
		return "", false, f.err
	}
	return f.MemoryStorage.GetItem(ctx, key)
}
