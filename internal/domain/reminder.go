package domain

import "fmt"

// PresetReminders are the offsets offered by the reminder picker.
var PresetReminders = []Reminder{
	{OffsetMinutes: -24 * 60, Label: "-24h"},
	{OffsetMinutes: -2 * 60, Label: "-2h"},
	{OffsetMinutes: -15, Label: "-15m"},
}

// ReminderLabel formats an offset the way preset labels are written:
// whole hours as "-2h", anything else in minutes as "-90m".
func ReminderLabel(offsetMinutes int) string {
	sign := "-"
	n := -offsetMinutes
	if offsetMinutes > 0 {
		sign, n = "+", offsetMinutes
	}
	if n == 0 {
		return "0m"
	}
	if n%60 == 0 {
		return fmt.Sprintf("%s%dh", sign, n/60)
	}
	return fmt.Sprintf("%s%dm", sign, n)
}
