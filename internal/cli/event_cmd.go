package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/cli/formatter"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/spf13/cobra"
)

const showMarkdownWidth = 72

// resolveEventID matches an exact ID first, then a unique prefix.
func resolveEventID(app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("event ID is required")
	}
	if _, ok := app.Events.ByID(input); ok {
		return input, nil
	}

	var matches []string
	for _, e := range app.Events.All() {
		if strings.HasPrefix(e.ID, input) {
			matches = append(matches, e.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("event not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("event ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

func newEventCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events", "ev"},
		Short:   "Manage events",
	}

	cmd.AddCommand(
		newEventAddCmd(app),
		newEventListCmd(app),
		newEventShowCmd(app),
		newEventUpdateCmd(app),
		newEventRemoveCmd(app),
		newEventDuplicateCmd(app),
		newEventStatusCmd(app),
		newEventPriorityCmd(app),
		newEventMoveCmd(app),
		newEventRemindCmd(app),
		newEventUnremindCmd(app),
	)

	return cmd
}

func newEventAddCmd(app *App) *cobra.Command {
	flags := newEventFlags()
	var id string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(app.location(), app.Settings.Current().DefaultSlotMinutes)
			if err != nil {
				return err
			}
			in.ID = id

			e, err := app.Events.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			app.warnStoreErr(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s [%s] %s %s\n",
				e.Title, e.ID, formatter.DayLabel(e.Start, app.location()), formatter.TimeRange(e, app.location()))
			return nil
		},
	}

	cmd.Flags().AddFlagSet(flags.fs)
	cmd.Flags().StringVar(&id, "id", "", "Event ID (generated when empty)")

	return cmd
}

func newEventListCmd(app *App) *cobra.Command {
	var day, status, project, from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events in start order",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := app.location()
			events := app.Events.All()

			if day != "" {
				d, err := calendar.ParseDay(day, loc)
				if err != nil {
					return err
				}
				events = app.Events.ByDay(d)
			}
			if from != "" || to != "" {
				start, end, err := parseRange(from, to, loc)
				if err != nil {
					return err
				}
				events = intersect(events, app.Events.ByRange(start, end))
			}
			if status != "" {
				s, err := parseStatus(status)
				if err != nil {
					return err
				}
				events = intersect(events, app.Events.ByStatus(s))
			}
			if project != "" {
				events = intersect(events, app.Events.ByProject(project))
			}

			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEventList(events, app.Events.Conflicts(), loc))
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Only events on this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&from, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Range end, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&project, "project", "", "Filter by project")

	return cmd
}

func newEventShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			app.Events.Select(id)
			e, _ := app.Events.Selected()

			var overlaps []string
			for _, otherID := range app.Events.Conflicts()[id] {
				if other, ok := app.Events.ByID(otherID); ok {
					overlaps = append(overlaps, other.Title)
				}
			}
			opts := formatter.DetailOptions{Now: app.now(), Overlaps: overlaps}
			if app.Markdown {
				opts.Markdown = func(s string) string { return formatter.RenderMarkdown(s, showMarkdownWidth) }
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatEventDetail(e, app.location(), opts))
			return nil
		},
	}
}

func newEventUpdateCmd(app *App) *cobra.Command {
	flags := newEventFlags()

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			current, _ := app.Events.ByID(id)
			patch, err := flags.patch(current, app.location())
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update; pass at least one field flag")
			}
			e, err := app.Events.Update(cmd.Context(), id, patch)
			return report(cmd, app, e, id, err, "Updated")
		},
	}

	cmd.Flags().AddFlagSet(flags.fs)

	return cmd
}

func newEventRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			e, _ := app.Events.ByID(id)
			if err := app.Events.Remove(cmd.Context(), id); err != nil {
				return err
			}
			app.warnStoreErr(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s [%s]\n", e.Title, id)
			return nil
		},
	}
}

func newEventDuplicateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "duplicate ID",
		Aliases: []string{"dup"},
		Short:   "Copy an event as a new proposal",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			e, err := app.Events.Duplicate(cmd.Context(), id)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("event not found: %q", id)
			}
			app.warnStoreErr(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "Duplicated as %s [%s] %s %s\n",
				e.Title, e.ID, formatter.DayLabel(e.Start, app.location()), formatter.TimeRange(*e, app.location()))
			return nil
		},
	}
}

func newEventStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set the status of an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			e, err := app.Events.SetStatus(cmd.Context(), id, status)
			return report(cmd, app, e, id, err, "Status set on")
		},
	}
}

func newEventPriorityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "priority ID P1|P2|P3",
		Short: "Set the priority of an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			priority, err := parsePriority(args[1])
			if err != nil {
				return err
			}
			e, err := app.Events.SetPriority(cmd.Context(), id, priority)
			return report(cmd, app, e, id, err, "Priority set on")
		},
	}
}

func newEventMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID YYYY-MM-DD",
		Short: "Move an event to another day, keeping its time of day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			day, err := calendar.ParseDay(args[1], app.location())
			if err != nil {
				return err
			}
			e, err := app.Events.MoveToDay(cmd.Context(), id, day)
			return report(cmd, app, e, id, err, "Moved")
		},
	}
}

func newEventRemindCmd(app *App) *cobra.Command {
	var label string
	var after bool

	cmd := &cobra.Command{
		Use:   "remind ID LEAD",
		Short: "Add a reminder such as 15m, 2h or 1d before the start",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			offset, err := parseOffset(args[1], after)
			if err != nil {
				return err
			}
			e, err := app.Events.AddReminder(cmd.Context(), id, domain.Reminder{OffsetMinutes: offset, Label: label})
			return report(cmd, app, e, id, err, "Reminder added to")
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Reminder label (derived from the offset when empty)")
	cmd.Flags().BoolVar(&after, "after", false, "Fire after the start instead of before")

	return cmd
}

func newEventUnremindCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unremind ID REMINDER_ID",
		Short: "Remove a reminder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveEventID(app, args[0])
			if err != nil {
				return err
			}
			current, _ := app.Events.ByID(id)
			if !slices.ContainsFunc(current.Reminders, func(r domain.Reminder) bool { return r.ID == args[1] }) {
				return fmt.Errorf("reminder %q not found on %s", args[1], id)
			}
			e, err := app.Events.RemoveReminder(cmd.Context(), id, args[1])
			return report(cmd, app, e, id, err, "Reminder removed from")
		},
	}
}

// report prints the outcome of a single-event mutation. A nil event means
// the ID vanished between resolution and the write.
func report(cmd *cobra.Command, app *App, e *domain.Event, id string, err error, verb string) error {
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("event not found: %q", id)
	}
	app.warnStoreErr(cmd)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s]\n", verb, e.Title, e.ID)
	return nil
}

// intersect keeps the events of a whose IDs appear in b, in a's order.
func intersect(a, b []domain.Event) []domain.Event {
	keep := make(map[string]bool, len(b))
	for _, e := range b {
		keep[e.ID] = true
	}
	out := a[:0:0]
	for _, e := range a {
		if keep[e.ID] {
			out = append(out, e)
		}
	}
	return out
}
