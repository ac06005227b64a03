package scheduler

import (
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
)

// Conflicts maps an event ID to the IDs of the events it overlaps.
type Conflicts map[string][]string

// Has reports whether id overlaps anything.
func (c Conflicts) Has(id string) bool {
	return len(c[id]) > 0
}

// Pairs returns each conflicting pair once, in the order first seen.
func (c Conflicts) Pairs(events []domain.Event) [][2]string {
	var out [][2]string
	seen := make(map[[2]string]bool)
	for _, e := range events {
		for _, other := range c[e.ID] {
			key := [2]string{e.ID, other}
			if e.ID > other {
				key = [2]string{other, e.ID}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, [2]string{e.ID, other})
		}
	}
	return out
}

// ComputeConflicts compares every pair of timed events that start on the same
// day in loc and records strict intersections in both directions. All-day
// events never conflict. The result is rebuilt from scratch on every call.
func ComputeConflicts(events []domain.Event, loc *time.Location) Conflicts {
	out := make(Conflicts)

	buckets := make(map[string][]domain.Event)
	var order []string
	for _, e := range events {
		if e.AllDay {
			continue
		}
		key := calendar.DayKey(e.Start, loc)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], e)
	}

	for _, key := range order {
		day := buckets[key]
		for i := 0; i < len(day); i++ {
			for j := i + 1; j < len(day); j++ {
				a, b := day[i], day[j]
				if !calendar.EventsOverlap(a, b, loc) {
					continue
				}
				out[a.ID] = append(out[a.ID], b.ID)
				out[b.ID] = append(out[b.ID], a.ID)
			}
		}
	}
	return out
}
