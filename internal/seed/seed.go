// Package seed builds the illustrative dataset shown on first run.
package seed

import (
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/scheduler"
	"github.com/google/uuid"
)

// Events returns the seed events laid out relative to today in loc, sorted by
// start. Event IDs are fixed; reminder IDs are fresh on every call.
func Events(now time.Time, loc *time.Location) []domain.Event {
	today := calendar.DayBucket(now, loc)
	at := func(dayOffset, hour, minute int) time.Time {
		d := today.AddDate(0, 0, dayOffset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
	}
	reminders := func(offsets ...int) []domain.Reminder {
		out := make([]domain.Reminder, len(offsets))
		for i, off := range offsets {
			out[i] = domain.Reminder{
				ID:            uuid.New().String(),
				OffsetMinutes: off,
				Label:         domain.ReminderLabel(off),
			}
		}
		return out
	}
	created := now.UTC()

	events := []domain.Event{
		{
			ID:             "evt-launch-sync",
			Title:          "Weekly Launch Sync",
			Start:          at(1, 9, 0),
			End:            at(1, 10, 0),
			Status:         domain.StatusScheduled,
			Priority:       domain.PriorityP1,
			Deadline:       domain.Ptr(at(1, 17, 0)),
			Reminders:      reminders(-120, -15),
			Owner:          "Avery",
			Assignees:      []string{"Avery", "Jordan", "Maya"},
			Project:        domain.Ptr("Liftoff"),
			Description:    "Critical go/no-go review for this sprint.",
			Instructions:   "Prep launch readiness checklist. AI: summarise blockers.",
			TranscriptRefs: []string{"launch-sync-2024-01"},
		},
		{
			ID:           "evt-deep-work",
			Title:        "Prototype Deep Work",
			Start:        at(3, 8, 30),
			End:          at(3, 11, 30),
			Status:       domain.StatusInProgress,
			Priority:     domain.PriorityP2,
			Reminders:    reminders(-60),
			Owner:        "Maya",
			Assignees:    []string{"Maya"},
			Project:      domain.Ptr("Orion"),
			Dependencies: []string{"evt-launch-sync"},
			Description:  "Heads-down block to integrate telemetry feed.",
			Instructions: "Future AI: flag risks if data drift >2%.",
		},
		{
			ID:             "evt-stakeholder-demo",
			Title:          "Stakeholder Demo",
			Start:          at(7, 13, 0),
			End:            at(7, 14, 0),
			Status:         domain.StatusProposed,
			Priority:       domain.PriorityP1,
			Deadline:       domain.Ptr(at(7, 18, 0)),
			Reminders:      reminders(-24*60, -30),
			Owner:          "Jordan",
			Assignees:      []string{"Jordan", "Dev"},
			Project:        domain.Ptr("Habitat"),
			Dependencies:   []string{"evt-launch-sync"},
			Description:    "Demo of habitat planning dashboard.",
			Instructions:   "Draft follow-up email template. Future AI can summarize Q&A.",
			TranscriptRefs: []string{"stakeholder-notes"},
		},
		{
			ID:           "evt-team-offsite",
			Title:        "Team Offsite",
			Start:        at(5, 0, 0),
			End:          at(6, 0, 0),
			AllDay:       true,
			Status:       domain.StatusScheduled,
			Priority:     domain.PriorityP3,
			Reminders:    reminders(-24 * 60),
			Owner:        "People Ops",
			Assignees:    []string{"Team"},
			Project:      domain.Ptr("Team Health"),
			Description:  "Offsite planning day.",
			Instructions: "AI: gather fun retro prompts later.",
		},
		{
			ID:             "evt-cx-review",
			Title:          "Customer Insights Review",
			Start:          at(10, 15, 0),
			End:            at(10, 16, 30),
			Status:         domain.StatusScheduled,
			Priority:       domain.PriorityP2,
			Reminders:      reminders(-90),
			Owner:          "Dev",
			Assignees:      []string{"Dev", "Avery"},
			Project:        domain.Ptr("Liftoff"),
			Dependencies:   []string{"evt-stakeholder-demo"},
			Description:    "Review support transcripts and churn signals.",
			Instructions:   "Flag AI summary gaps for automation.",
			TranscriptRefs: []string{"support-weekly"},
		},
		{
			ID:             "evt-sprint-planning",
			Title:          "Sprint Planning",
			Start:          at(0, 11, 0),
			End:            at(0, 12, 30),
			Status:         domain.StatusDone,
			Priority:       domain.PriorityP1,
			Reminders:      reminders(-30),
			Owner:          "Avery",
			Assignees:      []string{"Avery", "Jordan", "Maya", "Dev"},
			Project:        domain.Ptr("Orion"),
			Description:    "Kick off sprint with backlog review.",
			Instructions:   "Capture retro actions for AI follow-up.",
			TranscriptRefs: []string{"planning-notes"},
		},
	}

	for i := range events {
		events[i].CreatedAt = created
		events[i].UpdatedAt = created
		events[i].Normalize()
	}
	scheduler.SortEvents(events)
	return events
}
