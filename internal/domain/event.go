package domain

import (
	"slices"
	"time"
)

// Reminder is an offset relative to an event's start. Negative offsets fire
// before the start.
type Reminder struct {
	ID            string `json:"id"`
	OffsetMinutes int    `json:"offsetMinutes"`
	Label         string `json:"label"`
}

// EventLinks cross-references records outside the calendar.
type EventLinks struct {
	CRM   *string  `json:"crm,omitempty"`
	Files []string `json:"files,omitempty"`
}

type Event struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Start    time.Time   `json:"start"`
	End      time.Time   `json:"end"`
	AllDay   bool        `json:"allDay"`
	Status   EventStatus `json:"status"`
	Priority Priority    `json:"priority"`
	Deadline *time.Time  `json:"deadline,omitempty"`

	Reminders []Reminder `json:"reminders"`

	Owner        string   `json:"owner"`
	Assignees    []string `json:"assignees"`
	Project      *string  `json:"project,omitempty"`
	Dependencies []string `json:"dependencies"`

	Description    string      `json:"description"`
	Instructions   string      `json:"instructions"`
	TranscriptRefs []string    `json:"transcriptRefs"`
	AINotes        *string     `json:"aiNotes,omitempty"`
	Links          *EventLinks `json:"links,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectName returns the project or "" when unset.
func (e Event) ProjectName() string {
	if e.Project == nil {
		return ""
	}
	return *e.Project
}

// Clone returns a deep copy so callers never share slices or pointers with
// the owning store.
func (e Event) Clone() Event {
	out := e
	out.Reminders = slices.Clone(e.Reminders)
	out.Assignees = slices.Clone(e.Assignees)
	out.Dependencies = slices.Clone(e.Dependencies)
	out.TranscriptRefs = slices.Clone(e.TranscriptRefs)
	out.Deadline = cloneTime(e.Deadline)
	out.Project = cloneString(e.Project)
	out.AINotes = cloneString(e.AINotes)
	if e.Links != nil {
		links := EventLinks{
			CRM:   cloneString(e.Links.CRM),
			Files: slices.Clone(e.Links.Files),
		}
		out.Links = &links
	}
	return out
}

// Normalize replaces nil slices with empty ones and drops empty optional
// values, so the JSON shape is stable across persistence layers.
func (e *Event) Normalize() {
	if e.Reminders == nil {
		e.Reminders = []Reminder{}
	}
	if e.Assignees == nil {
		e.Assignees = []string{}
	}
	if e.Dependencies == nil {
		e.Dependencies = []string{}
	}
	if e.TranscriptRefs == nil {
		e.TranscriptRefs = []string{}
	}
	if e.Project != nil && *e.Project == "" {
		e.Project = nil
	}
	if e.Deadline != nil && e.Deadline.IsZero() {
		e.Deadline = nil
	}
}

// EventInput is the payload for creating an event. ID is optional; audit
// fields are always assigned by the store.
type EventInput struct {
	ID             string      `json:"id,omitempty"`
	Title          string      `json:"title"`
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
	AllDay         bool        `json:"allDay"`
	Status         EventStatus `json:"status,omitempty"`
	Priority       Priority    `json:"priority,omitempty"`
	Deadline       *time.Time  `json:"deadline,omitempty"`
	Reminders      []Reminder  `json:"reminders"`
	Owner          string      `json:"owner"`
	Assignees      []string    `json:"assignees"`
	Project        *string     `json:"project,omitempty"`
	Dependencies   []string    `json:"dependencies"`
	Description    string      `json:"description"`
	Instructions   string      `json:"instructions"`
	TranscriptRefs []string    `json:"transcriptRefs"`
	AINotes        *string     `json:"aiNotes,omitempty"`
	Links          *EventLinks `json:"links,omitempty"`
}

// InputFromEvent strips identity and audit fields from an event.
func InputFromEvent(e Event) EventInput {
	c := e.Clone()
	return EventInput{
		Title:          c.Title,
		Start:          c.Start,
		End:            c.End,
		AllDay:         c.AllDay,
		Status:         c.Status,
		Priority:       c.Priority,
		Deadline:       c.Deadline,
		Reminders:      c.Reminders,
		Owner:          c.Owner,
		Assignees:      c.Assignees,
		Project:        c.Project,
		Dependencies:   c.Dependencies,
		Description:    c.Description,
		Instructions:   c.Instructions,
		TranscriptRefs: c.TranscriptRefs,
		AINotes:        c.AINotes,
		Links:          c.Links,
	}
}

// ToEvent builds an event from the input. Status and priority default to
// proposed and P2.
func (in EventInput) ToEvent() Event {
	e := Event{
		ID:             in.ID,
		Title:          in.Title,
		Start:          in.Start,
		End:            in.End,
		AllDay:         in.AllDay,
		Status:         in.Status,
		Priority:       in.Priority,
		Deadline:       cloneTime(in.Deadline),
		Reminders:      slices.Clone(in.Reminders),
		Owner:          in.Owner,
		Assignees:      slices.Clone(in.Assignees),
		Project:        cloneString(in.Project),
		Dependencies:   slices.Clone(in.Dependencies),
		Description:    in.Description,
		Instructions:   in.Instructions,
		TranscriptRefs: slices.Clone(in.TranscriptRefs),
		AINotes:        cloneString(in.AINotes),
		Links:          in.Links,
	}
	if e.Status == "" {
		e.Status = StatusProposed
	}
	if e.Priority == "" {
		e.Priority = PriorityP2
	}
	e.Normalize()
	return e.Clone()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
