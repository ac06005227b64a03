package testutil

import (
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/google/uuid"
)

// BaseTime is a fixed reference instant for deterministic fixtures.
var BaseTime = time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)

// Event options
type EventOption func(*domain.Event)

func WithStart(start time.Time) EventOption {
	return func(e *domain.Event) {
		d := e.End.Sub(e.Start)
		e.Start = start
		e.End = start.Add(d)
	}
}

func WithSpan(start, end time.Time) EventOption {
	return func(e *domain.Event) {
		e.Start = start
		e.End = end
	}
}

func WithDuration(d time.Duration) EventOption {
	return func(e *domain.Event) {
		e.End = e.Start.Add(d)
	}
}

func WithAllDay() EventOption {
	return func(e *domain.Event) {
		e.AllDay = true
	}
}

func WithEventID(id string) EventOption {
	return func(e *domain.Event) {
		e.ID = id
	}
}

func WithStatus(s domain.EventStatus) EventOption {
	return func(e *domain.Event) {
		e.Status = s
	}
}

func WithPriority(p domain.Priority) EventOption {
	return func(e *domain.Event) {
		e.Priority = p
	}
}

func WithProject(name string) EventOption {
	return func(e *domain.Event) {
		e.Project = &name
	}
}

func WithDeadline(d time.Time) EventOption {
	return func(e *domain.Event) {
		e.Deadline = &d
	}
}

func WithAssignees(names ...string) EventOption {
	return func(e *domain.Event) {
		e.Assignees = names
	}
}

func WithDependencies(ids ...string) EventOption {
	return func(e *domain.Event) {
		e.Dependencies = ids
	}
}

func WithReminder(offsetMinutes int) EventOption {
	return func(e *domain.Event) {
		e.Reminders = append(e.Reminders, domain.Reminder{
			ID:            uuid.New().String(),
			OffsetMinutes: offsetMinutes,
			Label:         domain.ReminderLabel(offsetMinutes),
		})
	}
}

func WithLinks(crm string, files ...string) EventOption {
	return func(e *domain.Event) {
		e.Links = &domain.EventLinks{CRM: &crm, Files: files}
	}
}

// NewTestEvent returns a normalized one-hour event at BaseTime.
func NewTestEvent(title string, opts ...EventOption) *domain.Event {
	now := time.Now().UTC()
	e := &domain.Event{
		ID:        "evt-" + uuid.New().String()[:8],
		Title:     title,
		Start:     BaseTime,
		End:       BaseTime.Add(time.Hour),
		Status:    domain.StatusScheduled,
		Priority:  domain.PriorityP2,
		Owner:     "Avery",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Normalize()
	return e
}

// NewTestInput returns a create payload built from NewTestEvent.
func NewTestInput(title string, opts ...EventOption) domain.EventInput {
	return domain.InputFromEvent(*NewTestEvent(title, opts...))
}
