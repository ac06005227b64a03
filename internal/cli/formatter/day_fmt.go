package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/scheduler"
)

const (
	gridWidth    = 40
	loadBarWidth = 10
	gridTitleMax = 28
)

// DayView is everything the day grid needs.
type DayView struct {
	Day       time.Time
	Events    []domain.Event
	Settings  domain.Settings
	Location  *time.Location
	Conflicts scheduler.Conflicts
}

// FormatDay renders the working window of one day as a horizontal grid.
// Each timed event is drawn at its layout position; all-day events are
// listed above the grid.
func FormatDay(v DayView) string {
	var b strings.Builder
	loc := v.Location
	hours := v.Settings.WorkingHours

	windowStart, windowEnd := calendar.WorkingWindow(v.Day, hours, loc)
	fmt.Fprintf(&b, "%s  %s\n",
		Dim("Working hours"),
		windowStart.Format(clockLayout)+"–"+windowEnd.Format(clockLayout))

	var allDay, timed []domain.Event
	for _, e := range v.Events {
		if e.AllDay {
			allDay = append(allDay, e)
		} else {
			timed = append(timed, e)
		}
	}

	booked := bookedMinutes(timed, windowStart, windowEnd)
	capacity := v.Settings.MaxHoursPerDay * 60
	load := 0.0
	if capacity > 0 {
		load = float64(booked) / float64(capacity)
	}
	fmt.Fprintf(&b, "%s  %s of %s %s\n",
		Dim("Load         "),
		FormatMinutes(booked),
		FormatMinutes(capacity),
		RenderLoad(load, loadBarWidth))
	if capacity > 0 && booked > capacity {
		b.WriteString(StyleRed.Render("  Over the daily maximum") + "\n")
	}

	if len(allDay) > 0 {
		b.WriteString("\n" + Header("All day") + "\n")
		for _, e := range allDay {
			fmt.Fprintf(&b, "  %s %s\n", Bold(e.Title), Dim(TimeRange(e, loc)))
		}
	}

	b.WriteString("\n" + Header("Schedule") + "\n")
	b.WriteString(gridRuler(windowStart, windowEnd) + "\n")
	if len(timed) == 0 {
		b.WriteString(Dim("  Nothing scheduled.") + "\n")
	}
	for _, e := range timed {
		pos := calendar.LayoutPosition(e, v.Day, hours, loc)
		title := Truncate(e.Title, gridTitleMax)
		if v.Conflicts.Has(e.ID) {
			title = ConflictMark + " " + title
		}
		fmt.Fprintf(&b, "%s │%s│ %s %s\n",
			TimeRange(e, loc),
			gridBar(pos, e.Status),
			Bold(title),
			Dim(fmt.Sprintf("%.0f%%+%.0f%%", pos.TopPercent, pos.HeightPercent)))
	}

	return RenderBox(DayLabel(v.Day, loc), strings.TrimRight(b.String(), "\n"))
}

// gridBar draws a block of the grid width starting at the top percentage.
func gridBar(pos calendar.Position, status domain.EventStatus) string {
	offset := int(math.Round(pos.TopPercent / 100 * gridWidth))
	offset = min(max(offset, 0), gridWidth-1)
	length := int(math.Round(pos.HeightPercent / 100 * gridWidth))
	length = min(max(length, 1), gridWidth-offset)

	style := StyleBlue
	switch status {
	case domain.StatusDone, domain.StatusCanceled:
		style = StyleDim
	case domain.StatusBlocked:
		style = StyleYellow
	case domain.StatusInProgress:
		style = StyleGreen
	}
	return strings.Repeat(" ", offset) +
		style.Render(strings.Repeat(filledBlock, length)) +
		strings.Repeat(" ", gridWidth-offset-length)
}

// gridRuler labels the window start and end above the grid.
func gridRuler(start, end time.Time) string {
	left := start.Format(clockLayout)
	right := end.Format(clockLayout)
	gap := max(gridWidth-len(left)-len(right), 1)
	return strings.Repeat(" ", len("00:00–00:00")+2) + Dim(left+strings.Repeat("·", gap)+right)
}

// bookedMinutes sums the parts of timed events inside the window.
func bookedMinutes(events []domain.Event, windowStart, windowEnd time.Time) int {
	total := 0
	for _, e := range events {
		if e.Status == domain.StatusCanceled {
			continue
		}
		start := latest(e.Start, windowStart)
		end := earliest(e.End, windowEnd)
		if end.After(start) {
			total += int(end.Sub(start).Minutes())
		}
	}
	return total
}

// DayColumn is one day of the two-week board.
type DayColumn struct {
	Day    time.Time
	Events []domain.Event
}

// FormatWeek renders the two-week board, one block per day.
func FormatWeek(columns []DayColumn, loc *time.Location, conflicts scheduler.Conflicts, today time.Time) string {
	var b strings.Builder
	for i, col := range columns {
		label := DayLabel(col.Day, loc)
		if calendar.SameDay(col.Day, today, loc) {
			label = StyleGreen.Render(label + " (today)")
		} else {
			label = StyleHeader.Render(label)
		}
		fmt.Fprintf(&b, "%s %s\n", label, Dim(fmt.Sprintf("· %d", len(col.Events))))
		if len(col.Events) == 0 {
			b.WriteString(Dim("  —") + "\n")
		}
		for _, e := range col.Events {
			mark := " "
			if conflicts.Has(e.ID) {
				mark = ConflictMark
			}
			fmt.Fprintf(&b, " %s %-13s %s %s\n", mark, TimeRange(e, loc), Bold(Truncate(e.Title, listTitleWidth)), PriorityBadge(e.Priority))
		}
		if i < len(columns)-1 {
			b.WriteString("\n")
		}
	}
	return RenderBox("Two weeks", strings.TrimRight(b.String(), "\n"))
}
