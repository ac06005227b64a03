// Package calendar holds the pure date and layout helpers behind the day,
// week and conflict views. Every function that needs a notion of "day" takes
// an explicit location.
package calendar

import (
	"fmt"
	"math"
	"time"
)

// TwoWeekDays is the number of day columns on the board.
const TwoWeekDays = 14

const dayKeyLayout = "2006-01-02"

// DayBucket returns midnight of t's calendar day in loc.
func DayBucket(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayKey formats t's day in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayKeyLayout)
}

// ParseDay parses a YYYY-MM-DD key into midnight of that day in loc.
func ParseDay(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", key, err)
	}
	return t, nil
}

// TwoWeekRange returns TwoWeekDays consecutive day buckets starting at base's
// day.
func TwoWeekRange(base time.Time, loc *time.Location) []time.Time {
	start := DayBucket(base, loc)
	days := make([]time.Time, TwoWeekDays)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// DurationMinutes returns b-a rounded to the nearest whole minute.
func DurationMinutes(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Minutes()))
}

// minutesBetween truncates toward zero, matching whole-minute differences.
func minutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}
