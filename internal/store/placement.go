package store

import (
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
)

// Placement chooses where a duplicate of orig starts and what it is called.
type Placement func(orig domain.Event, loc *time.Location, slotMinutes int) (start time.Time, title string)

// NextDay places the copy at the same local time one day later.
func NextDay(orig domain.Event, loc *time.Location, _ int) (time.Time, string) {
	return orig.Start.In(loc).AddDate(0, 0, 1), orig.Title
}

// AfterOriginal places the copy one default slot after the original ends
// and marks it in the title.
func AfterOriginal(orig domain.Event, _ *time.Location, slotMinutes int) (time.Time, string) {
	return orig.End.Add(time.Duration(slotMinutes) * time.Minute), orig.Title + " (Copy)"
}
