package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/persist"
)

// EventPersistence is the synchronization strategy behind an EventStore.
//
// Optimistic strategies see every mutation after it has been committed in
// memory and receive the full resulting collection; failures are logged and
// the mutation stands. Other strategies are called before the store changes
// and their answer is what gets committed.
type EventPersistence interface {
	Optimistic() bool
	Load(ctx context.Context) ([]domain.Event, error)
	Save(ctx context.Context, e domain.Event, all []domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id string, all []domain.Event) error
	ApplyPlan(ctx context.Context, diff domain.PlanDiff, all []domain.Event) ([]domain.Event, error)
}

// EventAPI is the backend surface used by RemoteEvents.
type EventAPI interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	SaveEvent(ctx context.Context, in domain.EventInput) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ApplyPlan(ctx context.Context, diff domain.PlanDiff) ([]domain.Event, error)
}

// SettingsAPI is the backend surface used by RemoteSettings.
type SettingsAPI interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) (domain.Settings, error)
}

// LocalEvents keeps the collection in a versioned snapshot.
type LocalEvents struct {
	snapshots persist.SnapshotAdapter
	seed      func() []domain.Event
	observer  Observer
}

// NewLocalEvents writes through snapshots. seed supplies the dataset used
// when no usable snapshot exists.
func NewLocalEvents(snapshots persist.SnapshotAdapter, seed func() []domain.Event, observer Observer) *LocalEvents {
	return &LocalEvents{snapshots: snapshots, seed: seed, observer: observerOrNoop(observer)}
}

func (l *LocalEvents) Optimistic() bool { return true }

// Load returns the snapshot's events. When the snapshot is absent or
// unusable the seed dataset is written once and returned. Storage failures
// are returned unchanged and nothing is written.
func (l *LocalEvents) Load(ctx context.Context) ([]domain.Event, error) {
	started := time.Now()
	snap, err := l.snapshots.Read(ctx)
	if err == nil {
		return snap.Events, nil
	}
	if !errors.Is(err, persist.ErrNoSnapshot) {
		observe(ctx, l.observer, "snapshot.read", started, err, nil)
		return nil, err
	}
	observe(ctx, l.observer, "snapshot.read", started, err, map[string]any{"fallback": "seed"})

	var events []domain.Event
	if l.seed != nil {
		events = l.seed()
	}
	if events == nil {
		events = []domain.Event{}
	}
	if err := l.write(ctx, events); err != nil {
		observe(ctx, l.observer, "snapshot.seed", started, err, nil)
	}
	return events, nil
}

func (l *LocalEvents) Save(ctx context.Context, e domain.Event, all []domain.Event) (domain.Event, error) {
	return e, l.write(ctx, all)
}

func (l *LocalEvents) Delete(ctx context.Context, _ string, all []domain.Event) error {
	return l.write(ctx, all)
}

func (l *LocalEvents) ApplyPlan(ctx context.Context, _ domain.PlanDiff, all []domain.Event) ([]domain.Event, error) {
	return all, l.write(ctx, all)
}

func (l *LocalEvents) write(ctx context.Context, events []domain.Event) error {
	if err := l.snapshots.Write(ctx, persist.Snapshot{Version: persist.SnapshotVersion, Events: events}); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// RemoteEvents forwards every operation to a backend.
type RemoteEvents struct {
	api EventAPI
}

func NewRemoteEvents(api EventAPI) *RemoteEvents {
	return &RemoteEvents{api: api}
}

func (r *RemoteEvents) Optimistic() bool { return false }

func (r *RemoteEvents) Load(ctx context.Context) ([]domain.Event, error) {
	return r.api.ListEvents(ctx)
}

func (r *RemoteEvents) Save(ctx context.Context, e domain.Event, _ []domain.Event) (domain.Event, error) {
	in := domain.InputFromEvent(e)
	in.ID = e.ID
	return r.api.SaveEvent(ctx, in)
}

func (r *RemoteEvents) Delete(ctx context.Context, id string, _ []domain.Event) error {
	return r.api.DeleteEvent(ctx, id)
}

func (r *RemoteEvents) ApplyPlan(ctx context.Context, diff domain.PlanDiff, _ []domain.Event) ([]domain.Event, error) {
	return r.api.ApplyPlan(ctx, diff)
}

// SettingsPersistence is the synchronization strategy behind a
// SettingsStore. Optimistic has the same meaning as for EventPersistence.
type SettingsPersistence interface {
	Optimistic() bool
	Load(ctx context.Context, defaults domain.Settings) (domain.Settings, error)
	Save(ctx context.Context, s domain.Settings) (domain.Settings, error)
}

// LocalSettings keeps settings in a SettingsAdapter.
type LocalSettings struct {
	adapter persist.SettingsAdapter
}

func NewLocalSettings(adapter persist.SettingsAdapter) *LocalSettings {
	return &LocalSettings{adapter: adapter}
}

func (l *LocalSettings) Optimistic() bool { return true }

func (l *LocalSettings) Load(ctx context.Context, defaults domain.Settings) (domain.Settings, error) {
	return l.adapter.Read(ctx, defaults)
}

func (l *LocalSettings) Save(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	return s, l.adapter.Write(ctx, s)
}

// RemoteSettings reads and writes settings through a backend.
type RemoteSettings struct {
	api SettingsAPI
}

func NewRemoteSettings(api SettingsAPI) *RemoteSettings {
	return &RemoteSettings{api: api}
}

func (r *RemoteSettings) Optimistic() bool { return false }

// Load merges the backend record over defaults.
func (r *RemoteSettings) Load(ctx context.Context, defaults domain.Settings) (domain.Settings, error) {
	s, err := r.api.GetSettings(ctx)
	if err != nil {
		return defaults, err
	}
	return domain.MergeSettings(defaults, s), nil
}

func (r *RemoteSettings) Save(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	return r.api.SaveSettings(ctx, s)
}
