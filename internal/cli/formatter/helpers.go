package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	dayLabelLayout = "Mon Jan 2"
	clockLayout    = "15:04"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		inner := titleRendered + "\n\n" + content
		return boxStyle.Render(inner)
	}

	return boxStyle.Render(content)
}

// RelativeDateFrom returns a human-friendly relative date string from a reference time.
func RelativeDateFrom(t time.Time, now time.Time) string {
	diff := t.Sub(now)
	days := int(math.Round(diff.Hours() / 24))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 0 && days < 14:
		return fmt.Sprintf("In %dd", days)
	case days > 0 && days < 60:
		return fmt.Sprintf("In %dw", days/7)
	case days > 0:
		return fmt.Sprintf("In %dmo", days/30)
	case days < 0 && days > -14:
		return fmt.Sprintf("%dd ago", -days)
	case days < 0 && days > -60:
		return fmt.Sprintf("%dw ago", -days/7)
	default:
		return fmt.Sprintf("%dmo ago", -days/30)
	}
}

// DeadlineStyled returns RelativeDateFrom with urgency coloring applied.
func DeadlineStyled(t, now time.Time) string {
	text := RelativeDateFrom(t, now)
	days := int(math.Round(t.Sub(now).Hours() / 24))

	switch {
	case days <= 2:
		return StyleRed.Render(text)
	case days <= 7:
		return StyleYellow.Render(text)
	default:
		return StyleFg.Render(text)
	}
}

// DayLabel formats t's day in loc, e.g. "Mon Jun 16".
func DayLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLabelLayout)
}

// TimeRange renders "09:00–10:30" in loc, or "All day" for all-day events.
// Ranges ending on a later day carry the end day.
func TimeRange(e domain.Event, loc *time.Location) string {
	if e.AllDay {
		if calendar.SameDay(e.Start, e.End, loc) {
			return "All day"
		}
		return "All day → " + DayLabel(e.End, loc)
	}
	start := e.Start.In(loc).Format(clockLayout)
	end := e.End.In(loc).Format(clockLayout)
	if !calendar.SameDay(e.Start, e.End, loc) {
		end = DayLabel(e.End, loc) + " " + end
	}
	return start + "–" + end
}

// TruncID returns the first 12 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 12 {
		id = id[:12]
	}
	return StyleDim.Render(id)
}

// FormatMinutes converts raw minutes into human-friendly format.
func FormatMinutes(min int) string {
	if min <= 0 {
		return "0m"
	}
	h := min / 60
	m := min % 60
	if h > 0 && m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}

// Truncate shortens s to width visible cells, ending with "…".
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}
