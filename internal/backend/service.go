// Package backend is the authoritative event and settings service behind the
// HTTP API. It owns the SQLite database and assigns canonical identities.
package backend

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/takeoff/internal/db"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/repository"
	"github.com/alexanderramin/takeoff/internal/scheduler"
	"github.com/alexanderramin/takeoff/internal/seed"
	"github.com/alexanderramin/takeoff/internal/store"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an operation references an unknown event.
var ErrNotFound = repository.ErrNotFound

// Service implements store.EventAPI and store.SettingsAPI over SQLite.
type Service struct {
	conn     *sql.DB
	uow      db.UnitOfWork
	observer store.Observer
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithObserver(o store.Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(conn *sql.DB, uow db.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		conn:     conn,
		uow:      uow,
		observer: store.NoopObserver{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    NewEventID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewEventID returns "evt-" followed by 16 hex digits of randomness.
func NewEventID() string {
	u := uuid.New()
	return "evt-" + hex.EncodeToString(u[:8])
}

var (
	_ store.EventAPI    = (*Service)(nil)
	_ store.SettingsAPI = (*Service)(nil)
)

func (s *Service) observe(ctx context.Context, name string, started time.Time, err error, fields map[string]any) {
	s.observer.ObserveOperation(ctx, store.OperationEvent{
		Name:      name,
		Duration:  time.Since(started),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: started,
	})
}

// Init seeds the illustrative dataset when the events table is empty.
func (s *Service) Init(ctx context.Context) (seeded int, err error) {
	started := time.Now()
	defer func() {
		s.observe(ctx, "backend.init", started, err, map[string]any{"seeded": seeded})
	}()

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	loc, locErr := time.LoadLocation(settings.Timezone)
	if locErr != nil {
		loc = time.UTC
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		events := repository.NewSQLiteEventRepo(tx)
		n, err := events.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, e := range seed.Events(s.now(), loc) {
			if err := events.Create(ctx, &e); err != nil {
				return fmt.Errorf("seeding %s: %w", e.ID, err)
			}
			seeded++
		}
		return nil
	})
	if err != nil {
		seeded = 0
	}
	return seeded, err
}

// Health reports whether the database answers.
func (s *Service) Health(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// ListEvents returns every event sorted by start, then ID.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	started := time.Now()
	rows, err := repository.NewSQLiteEventRepo(s.conn).List(ctx)
	if err != nil {
		s.observe(ctx, "backend.list_events", started, err, nil)
		return nil, err
	}
	out := make([]domain.Event, len(rows))
	for i, e := range rows {
		out[i] = *e
	}
	s.observe(ctx, "backend.list_events", started, nil, map[string]any{"count": len(out)})
	return out, nil
}

// SaveEvent creates or replaces an event. Missing IDs are assigned, the
// original creation time is kept on replace, and optional fields are
// normalized.
func (s *Service) SaveEvent(ctx context.Context, in domain.EventInput) (domain.Event, error) {
	started := time.Now()
	e := in.ToEvent()
	if e.ID == "" {
		e.ID = s.newID()
	}
	fields := map[string]any{"event_id": e.ID}
	if err := domain.ValidateEvent(e); err != nil {
		s.observe(ctx, "backend.save_event", started, err, fields)
		return domain.Event{}, err
	}

	now := s.now()
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		events := repository.NewSQLiteEventRepo(tx)
		existing, err := events.GetByID(ctx, e.ID)
		switch {
		case err == nil:
			e.CreatedAt = existing.CreatedAt
			e.UpdatedAt = now
			return events.Update(ctx, &e)
		case errors.Is(err, repository.ErrNotFound):
			e.CreatedAt = now
			e.UpdatedAt = now
			return events.Create(ctx, &e)
		default:
			return err
		}
	})
	s.observe(ctx, "backend.save_event", started, err, fields)
	if err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	started := time.Now()
	err := repository.NewSQLiteEventRepo(s.conn).Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		err = fmt.Errorf("event %s not found: %w", id, ErrNotFound)
	}
	s.observe(ctx, "backend.delete_event", started, err, map[string]any{"event_id": id})
	return err
}

// ApplyPlan applies the whole diff in one transaction and returns the
// resulting collection.
func (s *Service) ApplyPlan(ctx context.Context, diff domain.PlanDiff) ([]domain.Event, error) {
	started := time.Now()
	fields := map[string]any{
		"added":   len(diff.Added),
		"moved":   len(diff.Moved),
		"deleted": len(diff.Deleted),
	}

	var result []domain.Event
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		events := repository.NewSQLiteEventRepo(tx)
		rows, err := events.List(ctx)
		if err != nil {
			return err
		}
		current := make([]domain.Event, len(rows))
		before := make(map[string]bool, len(rows))
		for i, e := range rows {
			current[i] = *e
			before[e.ID] = true
		}

		next, err := scheduler.ApplyPlan(current, diff, scheduler.PlanStamp{Now: s.now(), NewID: s.newID})
		if err != nil {
			return err
		}

		for _, id := range diff.Deleted {
			if err := events.Delete(ctx, id); err != nil {
				return err
			}
		}
		moved := make(map[string]bool, len(diff.Moved))
		for _, m := range diff.Moved {
			moved[m.ID] = true
		}
		for i := range next {
			e := &next[i]
			switch {
			case !before[e.ID] || isReAdded(diff, e.ID):
				if err := events.Create(ctx, e); err != nil {
					return err
				}
			case moved[e.ID]:
				if err := events.Update(ctx, e); err != nil {
					return err
				}
			}
		}

		scheduler.CanonicalSort(next)
		result = next
		return nil
	})
	s.observe(ctx, "backend.apply_plan", started, err, fields)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// isReAdded reports whether id is both deleted and added by diff.
func isReAdded(diff domain.PlanDiff, id string) bool {
	deleted, added := false, false
	for _, d := range diff.Deleted {
		deleted = deleted || d == id
	}
	for _, a := range diff.Added {
		added = added || a.ID == id
	}
	return deleted && added
}

// GetSettings returns the stored settings, or the backend defaults when no
// record exists.
func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	got, err := repository.NewSQLiteSettingsRepo(s.conn).Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.BackendDefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return *got, nil
}

// SaveSettings stores in, filling empty fields from the current record and
// then from the defaults.
func (s *Service) SaveSettings(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	started := time.Now()
	var saved domain.Settings
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteSettingsRepo(tx)
		current := domain.BackendDefaultSettings()
		got, err := repo.Get(ctx)
		switch {
		case err == nil:
			current = domain.MergeSettings(current, *got)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		saved = domain.MergeSettings(current, in)
		if err := domain.ValidateSettings(saved); err != nil {
			return err
		}
		return repo.Upsert(ctx, &saved)
	})
	s.observe(ctx, "backend.save_settings", started, err, nil)
	if err != nil {
		return domain.Settings{}, err
	}
	return saved, nil
}
