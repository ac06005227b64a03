package scheduler

import (
	"fmt"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
)

// PlanStamp supplies the clock and ID source used when applying a diff.
type PlanStamp struct {
	Now   time.Time
	NewID func() string
}

// ApplyPlan applies diff to a copy of events and returns the resulting sorted
// collection. Deletions run first, then moves, then additions. Any unknown or
// repeated reference, ID collision or invalid resulting event rejects the
// whole diff and leaves events untouched.
func ApplyPlan(events []domain.Event, diff domain.PlanDiff, stamp PlanStamp) ([]domain.Event, error) {
	next := make([]domain.Event, 0, len(events)+len(diff.Added))
	index := make(map[string]int, len(events))
	for _, e := range events {
		index[e.ID] = len(next)
		next = append(next, e.Clone())
	}

	deleted := make(map[string]bool, len(diff.Deleted))
	for _, id := range diff.Deleted {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("%w: delete of unknown event %s", domain.ErrInvalidPlan, id)
		}
		if deleted[id] {
			return nil, fmt.Errorf("%w: event %s deleted twice", domain.ErrInvalidPlan, id)
		}
		deleted[id] = true
	}

	moved := make(map[string]bool, len(diff.Moved))
	for _, m := range diff.Moved {
		i, ok := index[m.ID]
		if !ok || deleted[m.ID] {
			return nil, fmt.Errorf("%w: move of unknown event %s", domain.ErrInvalidPlan, m.ID)
		}
		if moved[m.ID] {
			return nil, fmt.Errorf("%w: event %s moved twice", domain.ErrInvalidPlan, m.ID)
		}
		if m.To.IsZero() {
			return nil, fmt.Errorf("%w: move of %s has no target", domain.ErrInvalidPlan, m.ID)
		}
		moved[m.ID] = true
		e := &next[i]
		d := e.End.Sub(e.Start)
		e.Start = m.To
		e.End = m.To.Add(d)
		e.UpdatedAt = stamp.Now
	}

	kept := next[:0]
	for _, e := range next {
		if !deleted[e.ID] {
			kept = append(kept, e)
		}
	}
	next = kept

	added := make(map[string]bool, len(diff.Added))
	for _, a := range diff.Added {
		e := domain.InputFromEvent(a).ToEvent()
		e.ID = a.ID
		if e.ID == "" && stamp.NewID != nil {
			e.ID = stamp.NewID()
		}
		if e.ID == "" {
			return nil, fmt.Errorf("%w: added event %q has no id", domain.ErrInvalidPlan, e.Title)
		}
		if _, exists := index[e.ID]; (exists && !deleted[e.ID]) || added[e.ID] {
			return nil, fmt.Errorf("%w: added event %s already exists", domain.ErrInvalidPlan, e.ID)
		}
		added[e.ID] = true
		e.CreatedAt = stamp.Now
		e.UpdatedAt = stamp.Now
		next = append(next, e)
	}

	for _, e := range next {
		if !moved[e.ID] && !added[e.ID] {
			continue
		}
		if err := domain.ValidateEvent(e); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPlan, err)
		}
	}

	SortEvents(next)
	return next, nil
}
