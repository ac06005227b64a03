package ics

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/alexanderramin/takeoff/internal/domain"
)

// expand turns a recurring VEVENT into one payload per occurrence inside
// the import range. Overrides replace the occurrence whose start matches
// their RECURRENCE-ID.
func expand(base parsedEvent, overrides []parsedEvent, opts ImportOptions) ([]domain.EventInput, bool, error) {
	r, err := rrule.StrToRRule(base.rrule)
	if err != nil {
		return nil, false, fmt.Errorf("%s: RRULE %q: %w", base.uid, base.rrule, err)
	}
	start := base.input.Start
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range base.exdates {
		set.ExDate(ex.In(start.Location()))
	}

	rangeStart := opts.RangeStart
	if rangeStart.IsZero() {
		rangeStart = start
	}
	rangeEnd := opts.RangeEnd
	if rangeEnd.IsZero() {
		rangeEnd = defaultRangeEnd(rangeStart)
	}

	times := set.Between(rangeStart.In(start.Location()), rangeEnd.In(start.Location()), true)
	truncated := false
	if len(times) > opts.MaxOccurrences {
		times = times[:opts.MaxOccurrences]
		truncated = true
	}

	d := base.input.End.Sub(start)
	out := make([]domain.EventInput, 0, len(times))
	for _, occStart := range times {
		in := cloneInput(base.input)
		in.Start = occStart
		in.End = occStart.Add(d)
		for _, o := range overrides {
			if o.recurrence != nil && o.recurrence.Equal(occStart) {
				in = cloneInput(o.input)
				break
			}
		}
		in.ID = fmt.Sprintf("%s-%s", base.uid, occStart.UTC().Format("20060102T150405Z"))
		out = append(out, in)
	}
	return out, truncated, nil
}

func cloneInput(in domain.EventInput) domain.EventInput {
	e := in.ToEvent()
	out := domain.InputFromEvent(e)
	out.ID = in.ID
	out.Status = in.Status
	out.Priority = in.Priority
	return out
}
