package domain

import (
	"slices"
	"time"
)

// EventPatch is a partial update. Nil fields are left untouched. Optional
// event fields use double pointers so a patch can clear them.
type EventPatch struct {
	Title          *string
	Start          *time.Time
	End            *time.Time
	AllDay         *bool
	Status         *EventStatus
	Priority       *Priority
	Deadline       **time.Time
	Reminders      *[]Reminder
	Owner          *string
	Assignees      *[]string
	Project        **string
	Dependencies   *[]string
	Description    *string
	Instructions   *string
	TranscriptRefs *[]string
	AINotes        **string
	Links          **EventLinks
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p == EventPatch{}
}

// Apply merges the patch onto e. Audit fields are not touched.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Start != nil {
		e.Start = *p.Start
	}
	if p.End != nil {
		e.End = *p.End
	}
	if p.AllDay != nil {
		e.AllDay = *p.AllDay
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	if p.Deadline != nil {
		e.Deadline = cloneTime(*p.Deadline)
	}
	if p.Reminders != nil {
		e.Reminders = slices.Clone(*p.Reminders)
	}
	if p.Owner != nil {
		e.Owner = *p.Owner
	}
	if p.Assignees != nil {
		e.Assignees = slices.Clone(*p.Assignees)
	}
	if p.Project != nil {
		e.Project = cloneString(*p.Project)
	}
	if p.Dependencies != nil {
		e.Dependencies = slices.Clone(*p.Dependencies)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Instructions != nil {
		e.Instructions = *p.Instructions
	}
	if p.TranscriptRefs != nil {
		e.TranscriptRefs = slices.Clone(*p.TranscriptRefs)
	}
	if p.AINotes != nil {
		e.AINotes = cloneString(*p.AINotes)
	}
	if p.Links != nil {
		if *p.Links == nil {
			e.Links = nil
		} else {
			links := **p.Links
			links.CRM = cloneString(links.CRM)
			links.Files = slices.Clone(links.Files)
			e.Links = &links
		}
	}
	e.Normalize()
}
