package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/takeoff/internal/cli/formatter"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/scheduler"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Apply batches of added, moved and deleted events",
	}

	cmd.AddCommand(newPlanApplyCmd(app))

	return cmd
}

func newPlanApplyCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Apply a JSON plan diff atomically (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diff, err := readPlan(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if diff.IsEmpty() {
				fmt.Fprintln(out, "Plan is empty; nothing to apply.")
				return nil
			}

			if dryRun {
				n := 0
				previewID := func() string {
					n++
					return fmt.Sprintf("new-%d", n)
				}
				result, err := scheduler.ApplyPlan(app.Events.All(), diff, scheduler.PlanStamp{Now: app.now(), NewID: previewID})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "Plan is valid: "+formatter.FormatPlanSummary(diff))
				fmt.Fprint(out, formatter.FormatEventList(result, scheduler.ComputeConflicts(result, app.location()), app.location()))
				return nil
			}

			if err := app.Events.ApplyPlan(cmd.Context(), diff); err != nil {
				return err
			}
			app.warnStoreErr(cmd)
			fmt.Fprintln(out, "Applied plan: "+formatter.FormatPlanSummary(diff))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and preview without saving")

	return cmd
}

func readPlan(cmd *cobra.Command, path string) (domain.PlanDiff, error) {
	var diff domain.PlanDiff
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return diff, fmt.Errorf("opening plan: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&diff); err != nil {
		return diff, fmt.Errorf("decoding plan %s: %w", path, err)
	}
	return diff, nil
}
