// Package store holds the in-memory event and settings collections and
// synchronizes them with local storage or a backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/persist"
	"github.com/alexanderramin/takeoff/internal/scheduler"
	"github.com/alexanderramin/takeoff/internal/seed"
	"github.com/google/uuid"
)

// SettingsSource provides the settings an EventStore needs for day
// bucketing and duplicate placement.
type SettingsSource interface {
	Current() domain.Settings
	Location() *time.Location
}

type staticSettings domain.Settings

func (s staticSettings) Current() domain.Settings { return domain.Settings(s) }

func (s staticSettings) Location() *time.Location { return resolveLocation(s.Timezone) }

func resolveLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ErrUnreadable is returned by local mutations after a Load failed to read
// storage. Writing then would replace data the store never saw.
var ErrUnreadable = errors.New("stored data could not be read")

// PlanApplier applies a plan diff atomically.
type PlanApplier interface {
	ApplyPlan(ctx context.Context, diff domain.PlanDiff) error
}

// EventStore owns the event collection. The collection is always sorted by
// start; ties keep insertion order. Callers only ever see copies.
type EventStore struct {
	mu       sync.RWMutex
	events   []domain.Event
	selected string
	loading  bool
	errMsg   string
	readErr  error

	// writeMu orders optimistic writes so snapshots land in mutation order.
	writeMu sync.Mutex

	p         EventPersistence
	observer  Observer
	now       func() time.Time
	newID     func() string
	settings  SettingsSource
	placement Placement
}

// Option configures an EventStore.
type Option func(*EventStore)

func WithObserver(o Observer) Option {
	return func(s *EventStore) { s.observer = observerOrNoop(o) }
}

func WithClock(now func() time.Time) Option {
	return func(s *EventStore) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *EventStore) { s.newID = newID }
}

// WithSettings supplies the timezone and default slot length. A
// SettingsStore satisfies SettingsSource.
func WithSettings(src SettingsSource) Option {
	return func(s *EventStore) { s.settings = src }
}

func WithPlacement(p Placement) Option {
	return func(s *EventStore) { s.placement = p }
}

// NewEventStore builds a store over an arbitrary persistence strategy.
// Duplicates default to NextDay for optimistic strategies and AfterOriginal
// otherwise.
func NewEventStore(p EventPersistence, opts ...Option) *EventStore {
	s := &EventStore{
		events:   []domain.Event{},
		p:        p,
		observer: NoopObserver{},
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		settings: staticSettings(domain.DefaultSettings()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.placement == nil {
		if p.Optimistic() {
			s.placement = NextDay
		} else {
			s.placement = AfterOriginal
		}
	}
	return s
}

// NewLocalEventStore writes snapshots through snapshots and seeds the
// illustrative dataset when none is usable.
func NewLocalEventStore(snapshots persist.SnapshotAdapter, opts ...Option) *EventStore {
	s := NewEventStore(&LocalEvents{}, opts...)
	s.p = NewLocalEvents(snapshots, func() []domain.Event {
		return seed.Events(s.now(), s.location())
	}, s.observer)
	return s
}

// NewRemoteEventStore sends every operation to api.
func NewRemoteEventStore(api EventAPI, opts ...Option) *EventStore {
	return NewEventStore(NewRemoteEvents(api), opts...)
}

func (s *EventStore) location() *time.Location {
	if loc := s.settings.Location(); loc != nil {
		return loc
	}
	return time.UTC
}

// Load replaces the collection with the persisted one. On failure the
// collection is left unchanged and Err reports the problem.
func (s *EventStore) Load(ctx context.Context) error {
	started := time.Now()
	if s.p.Optimistic() {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	events, err := s.p.Load(ctx)
	if err != nil {
		err = fmt.Errorf("loading events: %w", err)
		s.fail(err)
		if s.p.Optimistic() {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
		}
		observe(ctx, s.observer, "event.load", started, err, nil)
		return err
	}

	loaded := make([]domain.Event, len(events))
	for i, e := range events {
		e.Normalize()
		loaded[i] = e.Clone()
	}
	scheduler.SortEvents(loaded)

	s.mu.Lock()
	s.events = loaded
	s.readErr = nil
	if s.indexOf(s.selected) < 0 {
		s.selected = ""
	}
	s.mu.Unlock()

	observe(ctx, s.observer, "event.load", started, nil, map[string]any{"count": len(loaded)})
	return nil
}

// Loading reports whether a Load is in progress.
func (s *EventStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the message of the last failed backend operation, or "".
func (s *EventStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// writableLocked must be called with mu held.
func (s *EventStore) writableLocked() error {
	if s.readErr != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, s.readErr)
	}
	return nil
}

func (s *EventStore) fail(err error) {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
}

// All returns a copy of the sorted collection.
func (s *EventStore) All() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.events)
}

func (s *EventStore) ByID(id string) (domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Event{}, false
	}
	return s.events[i].Clone(), true
}

// ByDay returns events that start or end on day in the configured timezone,
// plus all-day events spanning it.
func (s *EventStore) ByDay(day time.Time) []domain.Event {
	loc := s.location()
	return s.filter(func(e domain.Event) bool { return calendar.IsOnDay(e, day, loc) })
}

// ByRange returns events overlapping [from, to].
func (s *EventStore) ByRange(from, to time.Time) []domain.Event {
	return s.filter(func(e domain.Event) bool { return calendar.OverlapsRange(e, from, to) })
}

func (s *EventStore) ByStatus(status domain.EventStatus) []domain.Event {
	return s.filter(func(e domain.Event) bool { return e.Status == status })
}

func (s *EventStore) ByProject(project string) []domain.Event {
	return s.filter(func(e domain.Event) bool { return e.ProjectName() == project })
}

// Projects lists distinct project names in first-seen order.
func (s *EventStore) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, e := range s.events {
		name := e.ProjectName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Conflicts recomputes the overlap map for the current collection.
func (s *EventStore) Conflicts() scheduler.Conflicts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scheduler.ComputeConflicts(s.events, s.location())
}

// Select marks id as selected. Unknown ids leave the selection unchanged
// and return false; an empty id clears it.
func (s *EventStore) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selected = ""
		return true
	}
	if s.indexOf(id) < 0 {
		return false
	}
	s.selected = id
	return true
}

func (s *EventStore) Selected() (domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(s.selected)
	if i < 0 {
		return domain.Event{}, false
	}
	return s.events[i].Clone(), true
}

func (s *EventStore) filter(keep func(domain.Event) bool) []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Event{}
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// indexOf must be called with mu held.
func (s *EventStore) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.events, func(e domain.Event) bool { return e.ID == id })
}

// upsert must be called with mu held.
func (s *EventStore) upsert(e domain.Event) {
	if i := s.indexOf(e.ID); i >= 0 {
		s.events[i] = e
	} else {
		s.events = append(s.events, e)
	}
	scheduler.SortEvents(s.events)
}

func cloneEvents(events []domain.Event) []domain.Event {
	out := make([]domain.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
