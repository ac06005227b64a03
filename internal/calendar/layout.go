package calendar

import (
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
)

const (
	minWorkingMinutes = 60
	minBlockMinutes   = 15
)

// Position places an event block inside the working window, as percentages
// of the window length.
type Position struct {
	TopPercent    float64
	HeightPercent float64
}

// ParseClock parses "HH:MM" into an hour and minute.
func ParseClock(v string) (hour, minute int, err error) {
	m, err := domain.ParseClockMinutes(v)
	if err != nil {
		return 0, 0, err
	}
	return m / 60, m % 60, nil
}

// WorkingWindow returns the working hours of day in loc. Hours that do not
// parse fall back to the default working hours.
func WorkingWindow(day time.Time, hours domain.WorkingHours, loc *time.Location) (start, end time.Time) {
	defaults := domain.DefaultSettings().WorkingHours
	return atClock(day, hours.Start, defaults.Start, loc), atClock(day, hours.End, defaults.End, loc)
}

func atClock(day time.Time, clock, fallback string, loc *time.Location) time.Time {
	h, m, err := ParseClock(clock)
	if err != nil {
		h, m, _ = ParseClock(fallback)
	}
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc)
}

// WorkingMinutes returns the length of the working window, never less than
// an hour.
func WorkingMinutes(day time.Time, hours domain.WorkingHours, loc *time.Location) int {
	start, end := WorkingWindow(day, hours, loc)
	return max(minWorkingMinutes, minutesBetween(start, end))
}

// LayoutPosition clamps ev to the working window of day and returns its
// block position. Blocks are at least 15 minutes tall.
func LayoutPosition(ev domain.Event, day time.Time, hours domain.WorkingHours, loc *time.Location) Position {
	windowStart, windowEnd := WorkingWindow(day, hours, loc)
	total := max(1, minutesBetween(windowStart, windowEnd))

	clampedStart := ev.Start
	if clampedStart.Before(windowStart) {
		clampedStart = windowStart
	}
	clampedEnd := ev.End
	if clampedEnd.After(windowEnd) {
		clampedEnd = windowEnd
	}

	offset := max(0, minutesBetween(windowStart, clampedStart))
	height := max(minBlockMinutes, minutesBetween(windowStart, clampedEnd)-offset)

	return Position{
		TopPercent:    float64(offset) / float64(total) * 100,
		HeightPercent: float64(height) / float64(total) * 100,
	}
}

// ClampToWindow pulls t into the working window of day.
func ClampToWindow(t, day time.Time, hours domain.WorkingHours, loc *time.Location) time.Time {
	start, end := WorkingWindow(day, hours, loc)
	switch {
	case t.Before(start):
		return start
	case t.After(end):
		return end
	default:
		return t
	}
}
