package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
)

const defaultMaxOccurrences = 500

// ImportOptions controls how VEVENTs become events.
type ImportOptions struct {
	// Location interprets floating times and DATE values. Nil means UTC.
	Location *time.Location

	// RangeStart and RangeEnd bound recurrence expansion. A zero RangeStart
	// uses the event's own start; a zero RangeEnd spans two weeks.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps each recurring event's expansion.
	MaxOccurrences int
}

// ImportResult is the outcome of an import.
type ImportResult struct {
	Events []domain.EventInput
	// Skipped lists VEVENTs that could not be converted, with the reason.
	Skipped []string
	// Truncated lists UIDs whose expansion hit MaxOccurrences.
	Truncated []string
}

type parsedEvent struct {
	uid        string
	input      domain.EventInput
	rrule      string
	exdates    []time.Time
	recurrence *time.Time
}

// Import parses a VCALENDAR into create payloads. Non-recurring events keep
// their UID as ID; each occurrence of a recurring event gets the UID plus
// its UTC start.
func Import(r io.Reader, opts ImportOptions) (ImportResult, error) {
	var result ImportResult
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = defaultMaxOccurrences
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return result, fmt.Errorf("parsing calendar: %w", err)
	}

	var bases []parsedEvent
	overrides := make(map[string][]parsedEvent)
	for _, ve := range cal.Events() {
		pe, err := parseVEvent(ve, opts.Location)
		if err != nil {
			result.Skipped = append(result.Skipped, err.Error())
			continue
		}
		if pe.recurrence != nil {
			overrides[pe.uid] = append(overrides[pe.uid], pe)
			continue
		}
		bases = append(bases, pe)
	}

	for _, pe := range bases {
		if pe.rrule == "" {
			result.Events = append(result.Events, pe.input)
			continue
		}
		occ, truncated, err := expand(pe, overrides[pe.uid], opts)
		if err != nil {
			result.Skipped = append(result.Skipped, err.Error())
			continue
		}
		if truncated {
			result.Truncated = append(result.Truncated, pe.uid)
		}
		result.Events = append(result.Events, occ...)
	}
	return result, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (parsedEvent, error) {
	var pe parsedEvent
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return pe, errors.New("vevent without UID")
	}
	pe.uid = uidProp.Value

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return pe, fmt.Errorf("%s: missing DTSTART", pe.uid)
	}
	start, allDay, err := parseTime(startProp, loc)
	if err != nil {
		return pe, fmt.Errorf("%s: DTSTART: %w", pe.uid, err)
	}

	end := start
	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, _, err = parseTime(ve.GetProperty(ical.ComponentPropertyDtEnd), loc)
		if err != nil {
			return pe, fmt.Errorf("%s: DTEND: %w", pe.uid, err)
		}
		if allDay {
			// DATE values end exclusively; the domain span is inclusive.
			end = end.AddDate(0, 0, -1)
		}
	case ve.GetProperty(propDuration) != nil:
		minutes, err := parseTrigger(ve.GetProperty(propDuration).Value)
		if err != nil {
			return pe, fmt.Errorf("%s: DURATION: %w", pe.uid, err)
		}
		end = start.Add(time.Duration(minutes) * time.Minute)
	}
	if end.Before(start) {
		end = start
	}

	in := domain.EventInput{
		ID:          pe.uid,
		Title:       text(ve, ical.ComponentPropertySummary),
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Description: text(ve, ical.ComponentPropertyDescription),
		Status:      parseStatus(ve),
		Priority:    parsePriority(ve),
		Owner:       text(ve, propOwner),
	}
	in.Instructions = text(ve, propInstructions)
	in.Assignees = splitList(text(ve, propAssignees))
	in.Dependencies = splitList(text(ve, propDependencies))
	if project := text(ve, ical.ComponentPropertyCategories); project != "" {
		in.Project = &project
	}
	if crm := text(ve, ical.ComponentPropertyUrl); crm != "" {
		in.Links = &domain.EventLinks{CRM: &crm}
	}
	in.Reminders = parseAlarms(ve)
	pe.input = in

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		pe.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseValue(part, tzid(p), loc); err == nil {
				pe.exdates = append(pe.exdates, t)
			}
		}
	}
	if p := ve.GetProperty(propRecurrenceID); p != nil {
		if t, _, err := parseTime(p, loc); err == nil {
			pe.recurrence = &t
		}
	}
	return pe, nil
}

// parseTime reads a DATE or DATE-TIME property. It reports whether the
// value is a DATE.
func parseTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	isDate := !strings.Contains(p.Value, "T")
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		isDate = true
	}
	if isDate {
		t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(p.Value), loc)
		return t, true, err
	}
	t, err := parseValue(p.Value, tzid(p), loc)
	return t, false, err
}

func parseValue(v, tz string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		if tz != "" {
			if l, err := time.LoadLocation(tz); err == nil {
				loc = l
			}
		}
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation(dateLayout, v, loc)
	}
}

func tzid(p *ical.IANAProperty) string {
	if vs, ok := p.ICalParameters[string(ical.ParameterTzid)]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func text(ve *ical.VEvent, prop ical.ComponentProperty) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return ""
	}
	return unescapeText(p.Value)
}

var textUnescaper = strings.NewReplacer(`\,`, ",", `\;`, ";", `\n`, "\n", `\N`, "\n", `\\`, `\`)

func unescapeText(v string) string {
	return textUnescaper.Replace(v)
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseStatus(ve *ical.VEvent) domain.EventStatus {
	if s := domain.EventStatus(text(ve, propStatus)); domain.ValidStatuses[s] {
		return s
	}
	switch strings.ToUpper(text(ve, ical.ComponentPropertyStatus)) {
	case "TENTATIVE":
		return domain.StatusProposed
	case "CANCELLED":
		return domain.StatusCanceled
	default:
		return domain.StatusScheduled
	}
}

func parsePriority(ve *ical.VEvent) domain.Priority {
	if p := domain.Priority(text(ve, propPriority)); domain.ValidPriorities[p] {
		return p
	}
	n, err := strconv.Atoi(strings.TrimSpace(text(ve, ical.ComponentPropertyPriority)))
	switch {
	case err != nil || n == 0 || n == 5:
		return domain.PriorityP2
	case n < 5:
		return domain.PriorityP1
	default:
		return domain.PriorityP3
	}
}

func parseAlarms(ve *ical.VEvent) []domain.Reminder {
	var out []domain.Reminder
	for _, c := range ve.Components {
		alarm, ok := c.(*ical.VAlarm)
		if !ok {
			continue
		}
		trigger := alarm.GetProperty(ical.ComponentPropertyTrigger)
		if trigger == nil {
			continue
		}
		offset, err := parseTrigger(strings.TrimSpace(trigger.Value))
		if err != nil {
			continue
		}
		label := domain.ReminderLabel(offset)
		if d := alarm.GetProperty(ical.ComponentPropertyDescription); d != nil && d.Value != "" {
			label = unescapeText(d.Value)
		}
		out = append(out, domain.Reminder{ID: uuid.New().String(), OffsetMinutes: offset, Label: label})
	}
	return out
}

func defaultRangeEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, calendar.TwoWeekDays)
}
