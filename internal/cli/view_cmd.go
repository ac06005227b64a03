package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/takeoff/internal/calendar"
	"github.com/alexanderramin/takeoff/internal/cli/formatter"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/spf13/cobra"
)

// dayArg parses an optional YYYY-MM-DD argument, defaulting to today in loc.
func dayArg(app *App, args []string) (time.Time, error) {
	loc := app.location()
	if len(args) == 0 {
		return calendar.DayBucket(app.now(), loc), nil
	}
	return calendar.ParseDay(args[0], loc)
}

// parseRange turns optional YYYY-MM-DD bounds into an inclusive instant
// range. A missing bound is open.
func parseRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if from != "" {
		d, err := calendar.ParseDay(from, loc)
		if err != nil {
			return start, end, err
		}
		start = d
	}
	if to != "" {
		d, err := calendar.ParseDay(to, loc)
		if err != nil {
			return start, end, err
		}
		end = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("range end %s is before start %s", to, from)
	}
	return start, end, nil
}

func newDayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Show one day inside the working hours",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dayArg(app, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDay(formatter.DayView{
				Day:       day,
				Events:    app.Events.ByDay(day),
				Settings:  app.Settings.Current(),
				Location:  app.location(),
				Conflicts: app.Events.Conflicts(),
			}))
			return nil
		},
	}
}

func newWeekCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "week [YYYY-MM-DD]",
		Aliases: []string{"board"},
		Short:   "Show the two-week board starting at a day",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := dayArg(app, args)
			if err != nil {
				return err
			}
			loc := app.location()
			days := calendar.TwoWeekRange(base, loc)
			columns := make([]formatter.DayColumn, 0, len(days))
			for _, d := range days {
				columns = append(columns, formatter.DayColumn{Day: d, Events: app.Events.ByDay(d)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatWeek(columns, loc, app.Events.Conflicts(), app.now()))
			return nil
		},
	}
}

func newConflictsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List overlapping timed events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := app.Events.All()
			byID := make(map[string]domain.Event, len(all))
			for _, e := range all {
				byID[e.ID] = e
			}
			pairs := app.Events.Conflicts().Pairs(all)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatConflicts(pairs, byID, app.location()))
			if len(pairs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newProjectsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects with their event counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := app.Events.Projects()
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
				return nil
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				events := app.Events.ByProject(p)
				open := 0
				for _, e := range events {
					if e.Status != domain.StatusDone && e.Status != domain.StatusCanceled {
						open++
					}
				}
				rows = append(rows, []string{
					formatter.ProjectBadge(p),
					fmt.Sprint(len(events)),
					fmt.Sprint(open),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"PROJECT", "EVENTS", "OPEN"}, rows))
			return nil
		},
	}
}
