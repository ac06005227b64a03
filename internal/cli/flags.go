package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/spf13/pflag"
)

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseWhen accepts RFC 3339 or a local "YYYY-MM-DD[ HH:MM]" in loc.
func parseWhen(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339)", v)
}

// parseOffset reads a reminder lead time such as "15m", "2h" or "1d" and
// returns minutes before the start as a negative offset.
func parseOffset(v string, after bool) (int, error) {
	v = strings.TrimSpace(v)
	var minutes int
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid reminder offset %q", v)
		}
		minutes = n * 24 * 60
	} else {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("invalid reminder offset %q", v)
		}
		minutes = int(d.Minutes())
	}
	if after {
		return minutes, nil
	}
	return -minutes, nil
}

func parseStatus(v string) (domain.EventStatus, error) {
	s := domain.EventStatus(strings.ToLower(strings.ReplaceAll(v, "-", "_")))
	if !domain.ValidStatuses[s] {
		return "", fmt.Errorf("invalid status %q", v)
	}
	return s, nil
}

func parsePriority(v string) (domain.Priority, error) {
	p := domain.Priority(strings.ToUpper(v))
	if !domain.ValidPriorities[p] {
		return "", fmt.Errorf("invalid priority %q (want P1, P2 or P3)", v)
	}
	return p, nil
}

// eventFlags is the field set shared by `event add` and `event update`.
type eventFlags struct {
	fs *pflag.FlagSet

	title        string
	start        string
	end          string
	duration     int
	allDay       bool
	status       string
	priority     string
	deadline     string
	owner        string
	assignees    []string
	project      string
	dependencies []string
	description  string
	instructions string
	reminders    []string
	crm          string
	files        []string
}

func newEventFlags() *eventFlags {
	f := &eventFlags{}
	fs := pflag.NewFlagSet("event", pflag.ContinueOnError)
	fs.StringVar(&f.title, "title", "", "Event title")
	fs.StringVar(&f.start, "start", "", "Start (YYYY-MM-DD HH:MM, or YYYY-MM-DD with --all-day)")
	fs.StringVar(&f.end, "end", "", "End; defaults to start plus --duration")
	fs.IntVar(&f.duration, "duration", 0, "Duration in minutes (default: settings slot length)")
	fs.BoolVar(&f.allDay, "all-day", false, "All-day event")
	fs.StringVar(&f.status, "status", "", "proposed|scheduled|in_progress|done|blocked|canceled")
	fs.StringVar(&f.priority, "priority", "", "P1, P2 or P3")
	fs.StringVar(&f.deadline, "deadline", "", "Deadline; empty clears it on update")
	fs.StringVar(&f.owner, "owner", "", "Owner")
	fs.StringSliceVar(&f.assignees, "assignee", nil, "Assignee (repeatable)")
	fs.StringVar(&f.project, "project", "", "Project; empty clears it on update")
	fs.StringSliceVar(&f.dependencies, "depends-on", nil, "Event ID this depends on (repeatable)")
	fs.StringVar(&f.description, "description", "", "Description (markdown)")
	fs.StringVar(&f.instructions, "instructions", "", "Instructions (markdown)")
	fs.StringSliceVar(&f.reminders, "remind", nil, "Reminder lead time such as 15m, 2h or 1d (repeatable)")
	fs.StringVar(&f.crm, "crm", "", "CRM link")
	fs.StringSliceVar(&f.files, "file", nil, "Linked file (repeatable)")
	f.fs = fs
	return f
}

func (f *eventFlags) changed(name string) bool {
	return f.fs.Changed(name)
}

func (f *eventFlags) reminderList() ([]domain.Reminder, error) {
	out := make([]domain.Reminder, 0, len(f.reminders))
	for i, v := range f.reminders {
		offset, err := parseOffset(v, false)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Reminder{
			ID:            fmt.Sprintf("r%d", i+1),
			OffsetMinutes: offset,
			Label:         domain.ReminderLabel(offset),
		})
	}
	return out, nil
}

func (f *eventFlags) links() *domain.EventLinks {
	if f.crm == "" && len(f.files) == 0 {
		return nil
	}
	links := &domain.EventLinks{Files: f.files}
	if f.crm != "" {
		links.CRM = domain.Ptr(f.crm)
	}
	return links
}

// timeRange resolves start and end. An all-day event with no end spans its
// start day.
func (f *eventFlags) timeRange(loc *time.Location, slotMinutes int) (time.Time, time.Time, error) {
	start, err := parseWhen(f.start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if f.end != "" {
		end, err := parseWhen(f.end, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}
	if f.allDay {
		return start, start, nil
	}
	minutes := f.duration
	if minutes <= 0 {
		minutes = slotMinutes
	}
	return start, start.Add(time.Duration(minutes) * time.Minute), nil
}

// input builds a create payload.
func (f *eventFlags) input(loc *time.Location, slotMinutes int) (domain.EventInput, error) {
	var in domain.EventInput
	if f.title == "" {
		return in, fmt.Errorf("--title is required")
	}
	if f.start == "" {
		return in, fmt.Errorf("--start is required")
	}
	start, end, err := f.timeRange(loc, slotMinutes)
	if err != nil {
		return in, err
	}
	reminders, err := f.reminderList()
	if err != nil {
		return in, err
	}

	in = domain.EventInput{
		Title:        f.title,
		Start:        start,
		End:          end,
		AllDay:       f.allDay,
		Owner:        f.owner,
		Assignees:    f.assignees,
		Dependencies: f.dependencies,
		Description:  f.description,
		Instructions: f.instructions,
		Reminders:    reminders,
		Links:        f.links(),
	}
	if f.status != "" {
		if in.Status, err = parseStatus(f.status); err != nil {
			return in, err
		}
	}
	if f.priority != "" {
		if in.Priority, err = parsePriority(f.priority); err != nil {
			return in, err
		}
	}
	if f.project != "" {
		in.Project = domain.Ptr(f.project)
	}
	if f.deadline != "" {
		d, err := parseWhen(f.deadline, loc)
		if err != nil {
			return in, err
		}
		in.Deadline = &d
	}
	return in, nil
}

// patch builds a partial update from the flags that were set. Moving the
// start without an end or duration keeps the current length.
func (f *eventFlags) patch(current domain.Event, loc *time.Location) (domain.EventPatch, error) {
	var p domain.EventPatch

	if f.changed("title") {
		p.Title = domain.Ptr(f.title)
	}
	if f.changed("all-day") {
		p.AllDay = domain.Ptr(f.allDay)
	}
	if f.changed("start") {
		start, err := parseWhen(f.start, loc)
		if err != nil {
			return p, err
		}
		p.Start = &start
		if !f.changed("end") && !f.changed("duration") {
			p.End = domain.Ptr(start.Add(current.End.Sub(current.Start)))
		}
	}
	if f.changed("end") {
		end, err := parseWhen(f.end, loc)
		if err != nil {
			return p, err
		}
		p.End = &end
	} else if f.changed("duration") {
		start := current.Start
		if p.Start != nil {
			start = *p.Start
		}
		p.End = domain.Ptr(start.Add(time.Duration(f.duration) * time.Minute))
	}
	if f.changed("status") {
		s, err := parseStatus(f.status)
		if err != nil {
			return p, err
		}
		p.Status = &s
	}
	if f.changed("priority") {
		pr, err := parsePriority(f.priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if f.changed("deadline") {
		var deadline *time.Time
		if f.deadline != "" {
			d, err := parseWhen(f.deadline, loc)
			if err != nil {
				return p, err
			}
			deadline = &d
		}
		p.Deadline = &deadline
	}
	if f.changed("owner") {
		p.Owner = domain.Ptr(f.owner)
	}
	if f.changed("assignee") {
		p.Assignees = domain.Ptr(f.assignees)
	}
	if f.changed("project") {
		var project *string
		if f.project != "" {
			project = domain.Ptr(f.project)
		}
		p.Project = &project
	}
	if f.changed("depends-on") {
		p.Dependencies = domain.Ptr(f.dependencies)
	}
	if f.changed("description") {
		p.Description = domain.Ptr(f.description)
	}
	if f.changed("instructions") {
		p.Instructions = domain.Ptr(f.instructions)
	}
	if f.changed("remind") {
		reminders, err := f.reminderList()
		if err != nil {
			return p, err
		}
		p.Reminders = &reminders
	}
	if f.changed("crm") || f.changed("file") {
		links := f.links()
		if current.Links != nil {
			merged := *current.Links
			if f.changed("crm") {
				merged.CRM = nil
				if f.crm != "" {
					merged.CRM = domain.Ptr(f.crm)
				}
			}
			if f.changed("file") {
				merged.Files = f.files
			}
			links = &merged
		}
		p.Links = &links
	}
	return p, nil
}
