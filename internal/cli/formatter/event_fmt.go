package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/scheduler"
)

const listTitleWidth = 36

// FormatEventList renders events as a table in the order given. Titles of
// overlapping events carry the conflict mark.
func FormatEventList(events []domain.Event, conflicts scheduler.Conflicts, loc *time.Location) string {
	headers := []string{"ID", "DAY", "TIME", "TITLE", "STATUS", "PRI", "PROJECT"}
	rows := make([][]string, 0, len(events))

	for _, e := range events {
		title := Truncate(e.Title, listTitleWidth)
		if conflicts.Has(e.ID) {
			title = ConflictMark + " " + title
		}
		rows = append(rows, []string{
			TruncID(e.ID),
			DayLabel(e.Start, loc),
			TimeRange(e, loc),
			Bold(title),
			StatusPill(e.Status),
			PriorityBadge(e.Priority),
			ProjectBadge(e.ProjectName()),
		})
	}

	return RenderTable(headers, rows)
}

// DetailOptions controls optional parts of FormatEventDetail.
type DetailOptions struct {
	Now time.Time
	// Overlaps lists titles of the events this one conflicts with.
	Overlaps []string
	// Markdown renders free-text fields. Nil prints them verbatim.
	Markdown func(string) string
}

// FormatEventDetail renders a single event with all of its fields.
func FormatEventDetail(e domain.Event, loc *time.Location, opts DetailOptions) string {
	var b strings.Builder

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("%-13s", label)), value)
	}

	b.WriteString(Bold(e.Title) + "\n\n")
	field("ID", e.ID)
	field("When", DayLabel(e.Start, loc)+"  "+TimeRange(e, loc))
	if !e.AllDay {
		field("Duration", FormatMinutes(int(e.End.Sub(e.Start).Minutes())))
	}
	field("Status", StatusPill(e.Status))
	field("Priority", PriorityBadge(e.Priority))
	field("Project", ProjectBadge(e.ProjectName()))
	if e.Owner != "" {
		field("Owner", e.Owner)
	}
	if len(e.Assignees) > 0 {
		field("Assignees", strings.Join(e.Assignees, ", "))
	}
	if e.Deadline != nil {
		deadline := e.Deadline.In(loc).Format("Jan 2, 2006 15:04")
		if !opts.Now.IsZero() {
			deadline += " (" + DeadlineStyled(*e.Deadline, opts.Now) + ")"
		}
		field("Deadline", deadline)
	}
	if len(e.Dependencies) > 0 {
		field("Depends on", strings.Join(e.Dependencies, ", "))
	}
	if len(e.Reminders) > 0 {
		labels := make([]string, 0, len(e.Reminders))
		for _, r := range e.Reminders {
			labels = append(labels, fmt.Sprintf("%s %s", r.Label, Dim("["+r.ID+"]")))
		}
		field("Reminders", strings.Join(labels, ", "))
	}
	if e.Links != nil {
		if e.Links.CRM != nil {
			field("CRM", *e.Links.CRM)
		}
		for _, f := range e.Links.Files {
			field("File", f)
		}
	}
	if len(e.TranscriptRefs) > 0 {
		field("Transcripts", strings.Join(e.TranscriptRefs, ", "))
	}
	if len(opts.Overlaps) > 0 {
		field("Conflicts", StyleRed.Render(strings.Join(opts.Overlaps, ", ")))
	}

	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		if opts.Markdown != nil {
			body = opts.Markdown(body)
		}
		b.WriteString("\n" + Header(title) + "\n" + body + "\n")
	}
	section("Description", e.Description)
	section("Instructions", e.Instructions)
	if e.AINotes != nil {
		section("Notes", *e.AINotes)
	}

	return RenderBox("Event", strings.TrimRight(b.String(), "\n"))
}

// FormatConflicts lists each overlapping pair once.
func FormatConflicts(pairs [][2]string, byID map[string]domain.Event, loc *time.Location) string {
	if len(pairs) == 0 {
		return StyleGreen.Render("No conflicts.")
	}

	headers := []string{"DAY", "FIRST", "SECOND", "OVERLAP"}
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		a, b := byID[p[0]], byID[p[1]]
		overlap := earliest(a.End, b.End).Sub(latest(a.Start, b.Start))
		rows = append(rows, []string{
			DayLabel(a.Start, loc),
			fmt.Sprintf("%s %s", Bold(a.Title), Dim(TimeRange(a, loc))),
			fmt.Sprintf("%s %s", Bold(b.Title), Dim(TimeRange(b, loc))),
			StyleRed.Render(FormatMinutes(int(overlap.Minutes()))),
		})
	}
	return RenderTable(headers, rows)
}

func earliest(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
