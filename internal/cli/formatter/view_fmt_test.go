package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/scheduler"
	"github.com/alexanderramin/takeoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utcSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.Timezone = "UTC"
	return s
}

func clock(h, m int) time.Time {
	return time.Date(2025, 6, 16, h, m, 0, 0, time.UTC)
}

func TestGridBar_PlacesBlockAtLayoutPosition(t *testing.T) {
	bar := stripANSI(gridBar(calendar.Position{TopPercent: 25, HeightPercent: 50}, domain.StatusScheduled))

	runes := []rune(bar)
	require.Len(t, runes, gridWidth)
	assert.Equal(t, strings.Repeat(" ", 10), string(runes[:10]))
	assert.Equal(t, strings.Repeat(filledBlock, 20), string(runes[10:30]))
	assert.Equal(t, strings.Repeat(" ", 10), string(runes[30:]))
}

func TestGridBar_AlwaysVisibleAndInBounds(t *testing.T) {
	bar := stripANSI(gridBar(calendar.Position{TopPercent: 100, HeightPercent: 0}, domain.StatusDone))

	runes := []rune(bar)
	require.Len(t, runes, gridWidth)
	assert.Equal(t, 1, strings.Count(bar, filledBlock))
}

func TestBookedMinutes_ClampsToWindowAndSkipsCanceled(t *testing.T) {
	events := []domain.Event{
		*testutil.NewTestEvent("early", testutil.WithSpan(clock(7, 0), clock(9, 0))),
		*testutil.NewTestEvent("mid", testutil.WithSpan(clock(12, 0), clock(13, 30))),
		*testutil.NewTestEvent("off", testutil.WithSpan(clock(14, 0), clock(15, 0)),
			testutil.WithStatus(domain.StatusCanceled)),
		*testutil.NewTestEvent("late", testutil.WithSpan(clock(17, 30), clock(19, 0))),
	}

	got := bookedMinutes(events, clock(8, 0), clock(18, 0))
	assert.Equal(t, 60+90+30, got)
}

func TestFormatDay(t *testing.T) {
	a := *testutil.NewTestEvent("Launch sync", testutil.WithEventID("a"))
	b := *testutil.NewTestEvent("Pairing", testutil.WithEventID("b"), testutil.WithStart(clock(9, 30)))
	offsite := *testutil.NewTestEvent("Offsite", testutil.WithEventID("c"), testutil.WithAllDay(),
		testutil.WithSpan(clock(0, 0), clock(0, 0)))
	events := []domain.Event{offsite, a, b}

	out := stripANSI(FormatDay(DayView{
		Day:       clock(0, 0),
		Events:    events,
		Settings:  utcSettings(),
		Location:  time.UTC,
		Conflicts: scheduler.ComputeConflicts(events, time.UTC),
	}))

	assert.Contains(t, out, "MON JUN 16")
	assert.Contains(t, out, "08:00–18:00")
	assert.Contains(t, out, "2h of 6h")
	assert.Contains(t, out, "ALL DAY")
	assert.Contains(t, out, "Offsite")
	assert.Contains(t, out, "⚠ Launch sync")
	assert.Contains(t, out, "10%+10%")
	assert.NotContains(t, out, "Over the daily maximum")
}

func TestFormatDay_OverCapacity(t *testing.T) {
	s := utcSettings()
	s.MaxHoursPerDay = 1
	e := *testutil.NewTestEvent("Marathon", testutil.WithSpan(clock(9, 0), clock(12, 0)))

	out := stripANSI(FormatDay(DayView{Day: clock(0, 0), Events: []domain.Event{e}, Settings: s, Location: time.UTC}))
	assert.Contains(t, out, "Over the daily maximum")
}

func TestFormatDay_Empty(t *testing.T) {
	out := stripANSI(FormatDay(DayView{Day: clock(0, 0), Settings: utcSettings(), Location: time.UTC}))
	assert.Contains(t, out, "Nothing scheduled.")
}

func TestFormatWeek(t *testing.T) {
	days := calendar.TwoWeekRange(clock(0, 0), time.UTC)
	e := *testutil.NewTestEvent("Kickoff", testutil.WithEventID("a"))
	columns := make([]DayColumn, len(days))
	for i, d := range days {
		columns[i] = DayColumn{Day: d}
	}
	columns[0].Events = []domain.Event{e}

	out := stripANSI(FormatWeek(columns, time.UTC, scheduler.Conflicts{}, clock(12, 0)))
	assert.Contains(t, out, "Mon Jun 16 (today)")
	assert.Contains(t, out, "Kickoff")
	assert.Contains(t, out, "Sun Jun 29 · 0")
}

func TestFormatConflicts(t *testing.T) {
	a := *testutil.NewTestEvent("Alpha", testutil.WithEventID("a"))
	b := *testutil.NewTestEvent("Beta", testutil.WithEventID("b"), testutil.WithStart(clock(9, 15)))
	byID := map[string]domain.Event{"a": a, "b": b}

	out := stripANSI(FormatConflicts([][2]string{{"a", "b"}}, byID, time.UTC))
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Beta")
	assert.Contains(t, out, "45m")

	assert.Contains(t, stripANSI(FormatConflicts(nil, byID, time.UTC)), "No conflicts.")
}

func TestFormatEventDetail(t *testing.T) {
	e := *testutil.NewTestEvent("Launch sync",
		testutil.WithEventID("evt-1"),
		testutil.WithProject("Liftoff"),
		testutil.WithAssignees("Avery", "Maya"),
		testutil.WithDeadline(clock(17, 0)),
		testutil.WithReminder(-15),
		testutil.WithLinks("crm://acct/7", "brief.pdf"),
	)
	e.Description = "Go/no-go review."

	var rendered []string
	out := stripANSI(FormatEventDetail(e, time.UTC, DetailOptions{
		Now:      clock(8, 0),
		Overlaps: []string{"Pairing"},
		Markdown: func(s string) string {
			rendered = append(rendered, s)
			return "<md>" + s
		},
	}))

	assert.Contains(t, out, "evt-1")
	assert.Contains(t, out, "Liftoff")
	assert.Contains(t, out, "Avery, Maya")
	assert.Contains(t, out, "(Today)")
	assert.Contains(t, out, "-15m")
	assert.Contains(t, out, "crm://acct/7")
	assert.Contains(t, out, "brief.pdf")
	assert.Contains(t, out, "Pairing")
	assert.Contains(t, out, "<md>Go/no-go review.")
	assert.Equal(t, []string{"Go/no-go review."}, rendered, "empty sections are not rendered")
}

func TestFormatSettings(t *testing.T) {
	out := stripANSI(FormatSettings(utcSettings()))
	assert.Contains(t, out, "UTC")
	assert.Contains(t, out, "08:00–18:00")
	assert.Contains(t, out, "1h")
	assert.Contains(t, out, "6h")
	assert.Contains(t, out, "on")
}

func TestRenderMarkdown_EmptyAndText(t *testing.T) {
	assert.Empty(t, RenderMarkdown("   ", 40))
	assert.Contains(t, stripANSI(RenderMarkdown("plain words", 40)), "plain words")
}
