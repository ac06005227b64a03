package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidEvent wraps every event validation failure.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidPlan wraps every reason a plan diff is rejected as a whole.
	ErrInvalidPlan = errors.New("invalid plan")
)

// ValidateEvent checks the invariants enforced at the store boundary.
// Dependencies pointing at unknown events are accepted.
func ValidateEvent(e Event) error {
	var problems []string

	if e.Start.IsZero() || e.End.IsZero() {
		problems = append(problems, "start and end are required")
	} else if e.End.Before(e.Start) {
		problems = append(problems, fmt.Sprintf("end %s is before start %s",
			e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339)))
	}
	if !ValidStatuses[e.Status] {
		problems = append(problems, fmt.Sprintf("unknown status %q", e.Status))
	}
	if !ValidPriorities[e.Priority] {
		problems = append(problems, fmt.Sprintf("unknown priority %q", e.Priority))
	}
	for _, dep := range e.Dependencies {
		if e.ID != "" && dep == e.ID {
			problems = append(problems, "event cannot depend on itself")
			break
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEvent, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateSettings checks timezone, working hours and numeric limits.
func ValidateSettings(s Settings) error {
	var problems []string

	if _, err := time.LoadLocation(s.Timezone); err != nil || s.Timezone == "" {
		problems = append(problems, fmt.Sprintf("unknown timezone %q", s.Timezone))
	}
	startMin, startErr := ParseClockMinutes(s.WorkingHours.Start)
	if startErr != nil {
		problems = append(problems, fmt.Sprintf("working hours start: %v", startErr))
	}
	endMin, endErr := ParseClockMinutes(s.WorkingHours.End)
	if endErr != nil {
		problems = append(problems, fmt.Sprintf("working hours end: %v", endErr))
	}
	if startErr == nil && endErr == nil && endMin <= startMin {
		problems = append(problems, fmt.Sprintf("working hours end %s must be after start %s",
			s.WorkingHours.End, s.WorkingHours.Start))
	}
	if s.DefaultSlotMinutes <= 0 {
		problems = append(problems, "default slot minutes must be positive")
	}
	if s.MaxHoursPerDay <= 0 {
		problems = append(problems, "max hours per day must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// ParseClockMinutes parses "HH:MM" into minutes after midnight.
func ParseClockMinutes(v string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q (expected HH:MM)", v)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return h*60 + m, nil
}
