package ics

import (
	"fmt"
	"regexp"
	"strconv"
)

// formatTrigger renders a reminder offset as an RFC 5545 duration relative
// to the event start.
func formatTrigger(offsetMinutes int) string {
	sign := ""
	n := offsetMinutes
	if n < 0 {
		sign, n = "-", -n
	}
	switch {
	case n == 0:
		return "PT0S"
	case n%(24*60) == 0:
		return fmt.Sprintf("%sP%dD", sign, n/(24*60))
	case n%60 == 0:
		return fmt.Sprintf("%sPT%dH", sign, n/60)
	default:
		return fmt.Sprintf("%sPT%dM", sign, n)
	}
}

var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// maxTriggerPart bounds each numeric field so the minute total cannot
// overflow.
const maxTriggerPart = 1 << 20

// parseTrigger converts an RFC 5545 duration into whole minutes. Seconds
// are truncated.
func parseTrigger(v string) (int, error) {
	m := durationPattern.FindStringSubmatch(v)
	if m == nil || v == "P" || v == "-P" || v == "+P" {
		return 0, fmt.Errorf("invalid trigger duration %q", v)
	}
	var parts [7]int
	for i := 2; i <= 6; i++ {
		if m[i] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil {
			return 0, fmt.Errorf("invalid trigger duration %q: %w", v, err)
		}
		if n > maxTriggerPart {
			return 0, fmt.Errorf("invalid trigger duration %q: %s out of range", v, m[i])
		}
		parts[i] = n
	}
	minutes := parts[2]*7*24*60 + parts[3]*24*60 + parts[4]*60 + parts[5] + parts[6]/60
	if m[1] == "-" {
		minutes = -minutes
	}
	return minutes, nil
}
