package calendar

import (
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
)

// IsOnDay reports whether ev is shown on day. Timed events appear on the day
// of their start and the day of their end. All-day events also appear on
// every day inside their inclusive span.
func IsOnDay(ev domain.Event, day time.Time, loc *time.Location) bool {
	if ev.AllDay {
		if SameDay(ev.Start, day, loc) {
			return true
		}
		bucket := DayBucket(day, loc)
		return !bucket.Before(ev.Start) && !bucket.After(ev.End)
	}
	return SameDay(ev.Start, day, loc) || SameDay(ev.End, day, loc)
}

// OverlapsRange reports whether ev touches the inclusive range: its start or
// end lies within it, or it strictly contains the whole range.
func OverlapsRange(ev domain.Event, rangeStart, rangeEnd time.Time) bool {
	within := func(t time.Time) bool {
		return !t.Before(rangeStart) && !t.After(rangeEnd)
	}
	return within(ev.Start) || within(ev.End) ||
		(ev.Start.Before(rangeStart) && ev.End.After(rangeEnd))
}

// EventsOverlap reports whether two timed events intersect on the same start
// day. Touching endpoints do not overlap and all-day events never do.
func EventsOverlap(a, b domain.Event, loc *time.Location) bool {
	if a.AllDay || b.AllDay {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End) && SameDay(a.Start, b.Start, loc)
}
