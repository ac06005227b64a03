package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/takeoff/internal/domain"
)

// FormatSettings renders the settings record.
func FormatSettings(s domain.Settings) string {
	deepWork := Dim("off")
	if s.DeepWorkInMorning {
		deepWork = StyleGreen.Render("on")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Dim("Timezone      "), s.Timezone)
	fmt.Fprintf(&b, "%s %s–%s\n", Dim("Working hours "), s.WorkingHours.Start, s.WorkingHours.End)
	fmt.Fprintf(&b, "%s %s\n", Dim("Default slot  "), FormatMinutes(s.DefaultSlotMinutes))
	fmt.Fprintf(&b, "%s %dh\n", Dim("Max per day   "), s.MaxHoursPerDay)
	fmt.Fprintf(&b, "%s %s", Dim("Deep work a.m."), deepWork)
	return RenderBox("Settings", b.String())
}

// FormatPlanSummary describes a plan diff in one line.
func FormatPlanSummary(diff domain.PlanDiff) string {
	line := fmt.Sprintf("%s added, %s moved, %s deleted",
		StyleGreen.Render(fmt.Sprint(len(diff.Added))),
		StyleBlue.Render(fmt.Sprint(len(diff.Moved))),
		StyleRed.Render(fmt.Sprint(len(diff.Deleted))))
	if diff.Notes != "" {
		line += "\n" + Dim(diff.Notes)
	}
	return line
}
