package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusPill returns a colored indicator for an event status.
func StatusPill(status domain.EventStatus) string {
	switch status {
	case domain.StatusProposed:
		return StyleBlue.Render("○ Proposed")
	case domain.StatusScheduled:
		return StyleFg.Render("● Scheduled")
	case domain.StatusInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.StatusDone:
		return StyleDim.Render("✔ Done")
	case domain.StatusBlocked:
		return StyleYellow.Render("▲ Blocked")
	case domain.StatusCanceled:
		return StyleDim.Render("✖ Canceled")
	default:
		return StyleDim.Render(string(status))
	}
}

// PriorityBadge colors P1 red and P3 dim.
func PriorityBadge(p domain.Priority) string {
	switch p {
	case domain.PriorityP1:
		return StyleRed.Render(string(p))
	case domain.PriorityP3:
		return StyleDim.Render(string(p))
	default:
		return StyleFg.Render(string(p))
	}
}

// ProjectBadge renders a project label, or "--" when unset.
func ProjectBadge(project string) string {
	if project == "" {
		return StyleDim.Render("--")
	}
	return StylePurple.Render(project)
}

// ConflictMark is prefixed to titles of overlapping events.
var ConflictMark = StyleRed.Render("⚠")

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
