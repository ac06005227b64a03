package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/scheduler"
)

// minDuplicateMinutes is the shortest duration a duplicate may have.
const minDuplicateMinutes = 30

// Create inserts a new event and selects it. Local stores assign a fresh ID
// when in.ID is empty; a backend assigns its own.
func (s *EventStore) Create(ctx context.Context, in domain.EventInput) (domain.Event, error) {
	return s.create(ctx, "event.create", in)
}

func (s *EventStore) create(ctx context.Context, op string, in domain.EventInput) (domain.Event, error) {
	started := time.Now()
	e := in.ToEvent()
	now := s.now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.ID == "" && s.p.Optimistic() {
		e.ID = s.newID()
	}
	if err := domain.ValidateEvent(e); err != nil {
		observe(ctx, s.observer, op, started, err, nil)
		return domain.Event{}, err
	}

	if !s.p.Optimistic() {
		saved, err := s.p.Save(ctx, e, nil)
		if err != nil {
			err = fmt.Errorf("creating event: %w", err)
			s.fail(err)
			observe(ctx, s.observer, op, started, err, nil)
			return domain.Event{}, err
		}
		saved.Normalize()
		s.mu.Lock()
		s.upsert(saved.Clone())
		s.selected = saved.ID
		s.errMsg = ""
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, nil, map[string]any{"event_id": saved.ID})
		return saved.Clone(), nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, nil)
		return domain.Event{}, err
	}
	if s.indexOf(e.ID) >= 0 {
		s.mu.Unlock()
		err := fmt.Errorf("%w: event %s already exists", domain.ErrInvalidEvent, e.ID)
		observe(ctx, s.observer, op, started, err, nil)
		return domain.Event{}, err
	}
	s.upsert(e.Clone())
	s.selected = e.ID
	all := cloneEvents(s.events)
	s.mu.Unlock()

	s.writeThrough(ctx, op, started, e.ID, func() error {
		_, err := s.p.Save(ctx, e, all)
		return err
	})
	return e, nil
}

// Update merges patch onto the event. Unknown ids are a no-op and return a
// nil event.
func (s *EventStore) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	return s.mutate(ctx, "event.update", id, func(e *domain.Event) bool {
		patch.Apply(e)
		return true
	})
}

func (s *EventStore) SetStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	return s.mutate(ctx, "event.set_status", id, func(e *domain.Event) bool {
		e.Status = status
		return true
	})
}

func (s *EventStore) SetPriority(ctx context.Context, id string, priority domain.Priority) (*domain.Event, error) {
	return s.mutate(ctx, "event.set_priority", id, func(e *domain.Event) bool {
		e.Priority = priority
		return true
	})
}

// MoveToDay moves the event to day, keeping its local start time (seconds
// dropped) and its duration.
func (s *EventStore) MoveToDay(ctx context.Context, id string, day time.Time) (*domain.Event, error) {
	loc := s.location()
	target := calendar.DayBucket(day, loc)
	return s.mutate(ctx, "event.move_to_day", id, func(e *domain.Event) bool {
		d := e.End.Sub(e.Start)
		st := e.Start.In(loc)
		e.Start = time.Date(target.Year(), target.Month(), target.Day(), st.Hour(), st.Minute(), 0, 0, loc)
		e.End = e.Start.Add(d)
		return true
	})
}

// AddReminder appends r, generating its ID and label when empty.
func (s *EventStore) AddReminder(ctx context.Context, id string, r domain.Reminder) (*domain.Event, error) {
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.Label == "" {
		r.Label = domain.ReminderLabel(r.OffsetMinutes)
	}
	return s.mutate(ctx, "event.add_reminder", id, func(e *domain.Event) bool {
		e.Reminders = append(e.Reminders, r)
		return true
	})
}

// RemoveReminder drops the reminder with reminderID. A missing reminder
// changes nothing and writes nothing.
func (s *EventStore) RemoveReminder(ctx context.Context, id, reminderID string) (*domain.Event, error) {
	return s.mutate(ctx, "event.remove_reminder", id, func(e *domain.Event) bool {
		i := slices.IndexFunc(e.Reminders, func(r domain.Reminder) bool { return r.ID == reminderID })
		if i < 0 {
			return false
		}
		e.Reminders = slices.Delete(e.Reminders, i, i+1)
		return true
	})
}

// Duplicate copies the event under a new identity as a proposal. The copy's
// duration is rounded to whole minutes and is never shorter than 30.
func (s *EventStore) Duplicate(ctx context.Context, id string) (*domain.Event, error) {
	orig, ok := s.ByID(id)
	if !ok {
		return nil, nil
	}
	minutes := max(minDuplicateMinutes, calendar.DurationMinutes(orig.Start, orig.End))
	start, title := s.placement(orig, s.location(), s.settings.Current().DefaultSlotMinutes)

	in := domain.InputFromEvent(orig)
	in.Title = title
	in.Start = start
	in.End = start.Add(time.Duration(minutes) * time.Minute)
	in.Status = domain.StatusProposed
	for i := range in.Reminders {
		in.Reminders[i].ID = s.newID()
	}

	e, err := s.create(ctx, "event.duplicate", in)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Remove deletes the event and clears the selection if it pointed at it.
// Unknown ids are a no-op.
func (s *EventStore) Remove(ctx context.Context, id string) error {
	started := time.Now()
	op := "event.remove"

	if !s.p.Optimistic() {
		s.mu.RLock()
		found := s.indexOf(id) >= 0
		s.mu.RUnlock()
		if !found {
			return nil
		}
		if err := s.p.Delete(ctx, id, nil); err != nil {
			err = fmt.Errorf("deleting event: %w", err)
			s.fail(err)
			observe(ctx, s.observer, op, started, err, map[string]any{"event_id": id})
			return err
		}
		s.mu.Lock()
		s.removeLocked(id)
		s.errMsg = ""
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, nil, map[string]any{"event_id": id})
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, map[string]any{"event_id": id})
		return err
	}
	if !s.removeLocked(id) {
		s.mu.Unlock()
		return nil
	}
	all := cloneEvents(s.events)
	s.mu.Unlock()

	s.writeThrough(ctx, op, started, id, func() error {
		return s.p.Delete(ctx, id, all)
	})
	return nil
}

// removeLocked must be called with mu held.
func (s *EventStore) removeLocked(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.events = slices.Delete(s.events, i, i+1)
	if s.selected == id {
		s.selected = ""
	}
	return true
}

// ApplyPlan validates the whole diff against the current collection, then
// commits it with a single write or backend call. An invalid diff changes
// nothing.
func (s *EventStore) ApplyPlan(ctx context.Context, diff domain.PlanDiff) error {
	started := time.Now()
	op := "event.apply_plan"
	if diff.IsEmpty() {
		return nil
	}
	fields := map[string]any{
		"added":   len(diff.Added),
		"moved":   len(diff.Moved),
		"deleted": len(diff.Deleted),
	}
	stamp := scheduler.PlanStamp{Now: s.now(), NewID: s.newID}

	if !s.p.Optimistic() {
		current := s.All()
		if _, err := scheduler.ApplyPlan(current, diff, stamp); err != nil {
			observe(ctx, s.observer, op, started, err, fields)
			return err
		}
		events, err := s.p.ApplyPlan(ctx, diff, nil)
		if err != nil {
			err = fmt.Errorf("applying plan: %w", err)
			s.fail(err)
			observe(ctx, s.observer, op, started, err, fields)
			return err
		}
		next := make([]domain.Event, len(events))
		for i, e := range events {
			e.Normalize()
			next[i] = e.Clone()
		}
		scheduler.SortEvents(next)
		s.mu.Lock()
		s.events = next
		if s.indexOf(s.selected) < 0 {
			s.selected = ""
		}
		s.errMsg = ""
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, nil, fields)
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, fields)
		return err
	}
	next, err := scheduler.ApplyPlan(s.events, diff, stamp)
	if err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, fields)
		return err
	}
	s.events = next
	if s.indexOf(s.selected) < 0 {
		s.selected = ""
	}
	all := cloneEvents(s.events)
	s.mu.Unlock()

	if _, err := s.p.ApplyPlan(ctx, diff, all); err != nil {
		fields["optimistic"] = true
		observe(ctx, s.observer, op, started, err, fields)
		return nil
	}
	observe(ctx, s.observer, op, started, nil, fields)
	return nil
}

// mutate applies fn to a copy of the event, stamps and validates it, then
// commits according to the persistence discipline. fn returns false when
// it changed nothing.
func (s *EventStore) mutate(ctx context.Context, op, id string, fn func(*domain.Event) bool) (*domain.Event, error) {
	started := time.Now()
	fields := map[string]any{"event_id": id}

	if !s.p.Optimistic() {
		cur, ok := s.ByID(id)
		if !ok {
			return nil, nil
		}
		if !fn(&cur) {
			return &cur, nil
		}
		cur.UpdatedAt = s.now()
		cur.Normalize()
		if err := domain.ValidateEvent(cur); err != nil {
			observe(ctx, s.observer, op, started, err, fields)
			return nil, err
		}
		saved, err := s.p.Save(ctx, cur, nil)
		if err != nil {
			err = fmt.Errorf("saving event: %w", err)
			s.fail(err)
			observe(ctx, s.observer, op, started, err, fields)
			return nil, err
		}
		saved.Normalize()
		s.mu.Lock()
		s.upsert(saved.Clone())
		s.errMsg = ""
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, nil, fields)
		return &saved, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, fields)
		return nil, err
	}
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, nil
	}
	next := s.events[i].Clone()
	if !fn(&next) {
		s.mu.Unlock()
		return &next, nil
	}
	next.UpdatedAt = s.now()
	next.Normalize()
	if err := domain.ValidateEvent(next); err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, fields)
		return nil, err
	}
	s.events[i] = next.Clone()
	scheduler.SortEvents(s.events)
	all := cloneEvents(s.events)
	s.mu.Unlock()

	s.writeThrough(ctx, op, started, id, func() error {
		_, err := s.p.Save(ctx, next, all)
		return err
	})
	return &next, nil
}

// writeThrough runs an optimistic write. A failure is logged and the
// in-memory change stands.
func (s *EventStore) writeThrough(ctx context.Context, op string, started time.Time, id string, write func() error) {
	fields := map[string]any{"event_id": id}
	if err := write(); err != nil {
		fields["optimistic"] = true
		observe(ctx, s.observer, op, started, err, fields)
		return
	}
	observe(ctx, s.observer, op, started, nil, fields)
}
