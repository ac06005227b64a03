package domain

type EventStatus string

const (
	StatusProposed   EventStatus = "proposed"
	StatusScheduled  EventStatus = "scheduled"
	StatusInProgress EventStatus = "in_progress"
	StatusDone       EventStatus = "done"
	StatusBlocked    EventStatus = "blocked"
	StatusCanceled   EventStatus = "canceled"
)

// ValidStatuses is the canonical set of accepted event status strings.
var ValidStatuses = map[EventStatus]bool{
	StatusProposed: true, StatusScheduled: true, StatusInProgress: true,
	StatusDone: true, StatusBlocked: true, StatusCanceled: true,
}

// AllStatuses lists statuses in board column order.
var AllStatuses = []EventStatus{
	StatusProposed, StatusScheduled, StatusInProgress,
	StatusDone, StatusBlocked, StatusCanceled,
}

type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// ValidPriorities is the canonical set of accepted priority strings.
var ValidPriorities = map[Priority]bool{
	PriorityP1: true, PriorityP2: true, PriorityP3: true,
}
