package scheduler

import (
	"sort"

	"github.com/alexanderramin/takeoff/internal/domain"
)

// SortEvents orders events by start ascending. Events with equal starts keep
// their relative (insertion) order.
func SortEvents(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}

// CanonicalSort is the deterministic order used by the backend:
// 1. Start: earliest first
// 2. Event ID: lexical ascending
func CanonicalSort(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]

		// 1. Start
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}

		// 2. Event ID (lexical)
		return a.ID < b.ID
	})
}

// IsSorted reports whether events are in SortEvents order.
func IsSorted(events []domain.Event) bool {
	return sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}
