// Package ics converts events to and from iCalendar (RFC 5545).
package ics

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/alexanderramin/takeoff/internal/domain"
)

const (
	productID = "-//takeoff//event scheduler//EN"

	propStatus       ical.ComponentProperty = "X-TAKEOFF-STATUS"
	propPriority     ical.ComponentProperty = "X-TAKEOFF-PRIORITY"
	propInstructions ical.ComponentProperty = "X-TAKEOFF-INSTRUCTIONS"
	propOwner        ical.ComponentProperty = "X-TAKEOFF-OWNER"
	propAssignees    ical.ComponentProperty = "X-TAKEOFF-ASSIGNEES"
	propDependencies ical.ComponentProperty = "X-TAKEOFF-DEPENDENCIES"
	propDuration     ical.ComponentProperty = "DURATION"
	propRecurrenceID ical.ComponentProperty = "RECURRENCE-ID"

	dateLayout = "20060102"
)

// Export writes events as a VCALENDAR. Timed events are written in UTC;
// all-day events use DATE values in loc.
func Export(w io.Writer, events []domain.Event, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		addEvent(cal, e, loc)
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

func addEvent(cal *ical.Calendar, e domain.Event, loc *time.Location) {
	ve := cal.AddEvent(e.ID)
	ve.SetDtStampTime(e.UpdatedAt.UTC())
	if !e.CreatedAt.IsZero() {
		ve.SetCreatedTime(e.CreatedAt.UTC())
	}
	if !e.UpdatedAt.IsZero() {
		ve.SetModifiedAt(e.UpdatedAt.UTC())
	}

	if e.AllDay {
		start := e.Start.In(loc)
		// DTEND is exclusive for DATE values.
		end := e.End.In(loc).AddDate(0, 0, 1)
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(end)
	} else {
		ve.SetStartAt(e.Start.UTC())
		ve.SetEndAt(e.End.UTC())
	}

	ve.SetSummary(e.Title)
	if e.Description != "" {
		ve.SetDescription(e.Description)
	}
	ve.SetProperty(ical.ComponentPropertyStatus, icalStatus(e.Status))
	ve.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(icalPriority(e.Priority)))
	ve.SetProperty(propStatus, string(e.Status))
	ve.SetProperty(propPriority, string(e.Priority))
	if e.Project != nil {
		ve.SetProperty(ical.ComponentPropertyCategories, *e.Project)
	}
	if e.Owner != "" {
		ve.SetProperty(propOwner, e.Owner)
	}
	if len(e.Assignees) > 0 {
		ve.SetProperty(propAssignees, strings.Join(e.Assignees, ","))
	}
	if len(e.Dependencies) > 0 {
		ve.SetProperty(propDependencies, strings.Join(e.Dependencies, ","))
	}
	if e.Instructions != "" {
		ve.SetProperty(propInstructions, e.Instructions)
	}
	if e.Links != nil && e.Links.CRM != nil {
		ve.SetProperty(ical.ComponentPropertyUrl, *e.Links.CRM)
	}

	for _, r := range e.Reminders {
		alarm := ve.AddAlarm()
		alarm.SetProperty(ical.ComponentPropertyAction, "DISPLAY")
		alarm.SetProperty(ical.ComponentPropertyTrigger, formatTrigger(r.OffsetMinutes))
		alarm.SetProperty(ical.ComponentPropertyDescription, r.Label)
	}
}

func icalStatus(s domain.EventStatus) string {
	switch s {
	case domain.StatusProposed:
		return "TENTATIVE"
	case domain.StatusCanceled:
		return "CANCELLED"
	default:
		return "CONFIRMED"
	}
}

func icalPriority(p domain.Priority) int {
	switch p {
	case domain.PriorityP1:
		return 1
	case domain.PriorityP3:
		return 9
	default:
		return 5
	}
}
