package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/takeoff/internal/ics"
	"github.com/spf13/cobra"
)

func newICSCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Exchange events as iCalendar files",
	}

	cmd.AddCommand(
		newICSExportCmd(app),
		newICSImportCmd(app),
	)

	return cmd
}

func newICSExportCmd(app *App) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write events to an .ics file (- writes stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := app.location()
			events := app.Events.All()
			if from != "" || to != "" {
				start, end, err := parseRange(from, to, loc)
				if err != nil {
					return err
				}
				events = app.Events.ByRange(start, end)
			}

			var w io.Writer = cmd.OutOrStdout()
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating %s: %w", args[0], err)
				}
				defer f.Close()
				w = f
			}
			if err := ics.Export(w, events, loc); err != nil {
				return err
			}
			if args[0] != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", len(events), args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Only events from this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Only events up to this day, inclusive (YYYY-MM-DD)")

	return cmd
}

func newICSImportCmd(app *App) *cobra.Command {
	var from, to string
	var maxOccurrences int

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create events from an .ics file (- reads stdin)",
		Long: "Create events from an .ics file. Recurring events are expanded into " +
			"single occurrences inside --from/--to (two weeks by default). Events " +
			"whose ID already exists are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := app.location()
			opts := ics.ImportOptions{Location: loc, MaxOccurrences: maxOccurrences}
			if from != "" || to != "" {
				start, end, err := parseRange(from, to, loc)
				if err != nil {
					return err
				}
				if from != "" {
					opts.RangeStart = start
				}
				if to != "" {
					opts.RangeEnd = end
				}
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			result, err := ics.Import(r, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			created, existing := 0, 0
			var failed []string
			for _, in := range result.Events {
				if _, ok := app.Events.ByID(in.ID); ok {
					existing++
					continue
				}
				if _, err := app.Events.Create(cmd.Context(), in); err != nil {
					failed = append(failed, fmt.Sprintf("%s: %v", in.Title, err))
					continue
				}
				created++
			}
			app.warnStoreErr(cmd)

			fmt.Fprintf(out, "Imported %d events (%d already present)\n", created, existing)
			for _, s := range result.Skipped {
				fmt.Fprintln(out, "  skipped:", s)
			}
			for _, f := range failed {
				fmt.Fprintln(out, "  rejected:", f)
			}
			for _, uid := range result.Truncated {
				fmt.Fprintf(out, "  truncated: %s (raise --max)\n", uid)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Expand recurrences from this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Expand recurrences up to this day, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&maxOccurrences, "max", 0, "Maximum occurrences per recurring event (default 500)")

	return cmd
}
