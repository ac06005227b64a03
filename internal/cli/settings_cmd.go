package cli

import (
	"fmt"

	"github.com/alexanderramin/takeoff/internal/cli/formatter"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/spf13/cobra"
)

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change scheduling settings",
	}

	cmd.AddCommand(
		newSettingsShowCmd(app),
		newSettingsSetCmd(app),
		newSettingsResetCmd(app),
	)

	return cmd
}

func newSettingsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if msg := app.Settings.Err(); msg != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", msg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSettings(app.Settings.Current()))
			return nil
		},
	}
}

func newSettingsSetCmd(app *App) *cobra.Command {
	var timezone, workStart, workEnd string
	var slot, maxHours int
	var deepWork, toggleDeepWork bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch domain.SettingsPatch
			if flags.Changed("timezone") {
				patch.Timezone = &timezone
			}
			if flags.Changed("work-start") {
				patch.WorkingHoursStart = &workStart
			}
			if flags.Changed("work-end") {
				patch.WorkingHoursEnd = &workEnd
			}
			if flags.Changed("slot") {
				patch.DefaultSlotMinutes = &slot
			}
			if flags.Changed("max-hours") {
				patch.MaxHoursPerDay = &maxHours
			}
			if flags.Changed("deep-work") {
				patch.DeepWorkInMorning = &deepWork
			}

			ctx := cmd.Context()
			changed := patch != domain.SettingsPatch{}
			if !changed && !toggleDeepWork {
				return fmt.Errorf("nothing to change; pass at least one setting flag")
			}
			if changed {
				if _, err := app.Settings.Update(ctx, patch); err != nil {
					return err
				}
			}
			if toggleDeepWork {
				if _, err := app.Settings.ToggleDeepWork(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSettings(app.Settings.Current()))
			return nil
		},
	}

	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, e.g. Europe/Berlin")
	cmd.Flags().StringVar(&workStart, "work-start", "", "Working hours start (HH:MM)")
	cmd.Flags().StringVar(&workEnd, "work-end", "", "Working hours end (HH:MM)")
	cmd.Flags().IntVar(&slot, "slot", 0, "Default slot length in minutes")
	cmd.Flags().IntVar(&maxHours, "max-hours", 0, "Maximum scheduled hours per day")
	cmd.Flags().BoolVar(&deepWork, "deep-work", false, "Prefer deep work in the morning")
	cmd.Flags().BoolVar(&toggleDeepWork, "toggle-deep-work", false, "Flip the deep work preference")
	cmd.MarkFlagsMutuallyExclusive("deep-work", "toggle-deep-work")

	return cmd
}

func newSettingsResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Settings.Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSettings(s))
			return nil
		},
	}
}
