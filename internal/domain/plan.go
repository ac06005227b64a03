package domain

import "time"

// PlanMove relocates an existing event so that it starts at To. From records
// the start the planner saw and is informational only.
type PlanMove struct {
	ID   string    `json:"id"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// PlanDiff is a batch of added, moved and deleted events that is applied as
// a single unit.
type PlanDiff struct {
	Added   []Event    `json:"added"`
	Moved   []PlanMove `json:"moved"`
	Deleted []string   `json:"deleted"`
	Notes   string     `json:"notes,omitempty"`
}

// IsEmpty reports whether the diff has no changes.
func (d PlanDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Moved) == 0 && len(d.Deleted) == 0
}
