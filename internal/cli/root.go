// Package cli implements the takeoff command tree on top of the event and
// settings stores.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/takeoff/internal/config"
	"github.com/alexanderramin/takeoff/internal/store"
	"github.com/spf13/cobra"
)

// annotationNoStores marks commands that run without opening the stores.
const annotationNoStores = "takeoff/no-stores"

// Stores is what Connect hands back to the App.
type Stores struct {
	Events   *store.EventStore
	Settings *store.SettingsStore
	Close    func() error
}

// App holds the stores and wiring shared by every command.
type App struct {
	// Config is resolved from --config and TAKEOFF_* on first use when nil.
	Config *config.Config

	Events   *store.EventStore
	Settings *store.SettingsStore

	// Connect builds the stores once the configuration is known. It is not
	// called when Events and Settings are already set.
	Connect func(ctx context.Context, cfg *config.Config) (*Stores, error)

	// Markdown enables rendered description and instructions in `event show`.
	Markdown bool

	Now func() time.Time

	loaded  bool
	closers []func() error
}

type globalFlags struct {
	configPath string
	mode       string
	remote     string
}

// NewRootCmd creates the top-level "takeoff" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "takeoff",
		Short:         "Event scheduling and conflict board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.prepare(cmd, g)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default ~/.takeoff/config.yaml)")
	root.PersistentFlags().StringVar(&g.mode, "mode", "", "Persistence mode: local or remote")
	root.PersistentFlags().StringVar(&g.remote, "remote", "", "Backend endpoint; implies --mode remote")

	root.AddCommand(
		newEventCmd(app),
		newDayCmd(app),
		newWeekCmd(app),
		newConflictsCmd(app),
		newProjectsCmd(app),
		newSettingsCmd(app),
		newPlanCmd(app),
		newICSCmd(app),
		newServeCmd(app),
	)

	return root
}

// prepare resolves configuration, then connects and loads the stores unless
// the command opts out.
func (a *App) prepare(cmd *cobra.Command, g globalFlags) error {
	if a.Now == nil {
		a.Now = time.Now
	}

	if a.Config == nil {
		path := g.configPath
		if path == "" {
			path = config.DefaultPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.ApplyEnv(nil)
		a.Config = cfg
	}

	switch config.Mode(g.mode) {
	case "":
	case config.ModeLocal, config.ModeRemote:
		a.Config.Mode = config.Mode(g.mode)
	default:
		return fmt.Errorf("invalid --mode %q (want local or remote)", g.mode)
	}
	if g.remote != "" {
		a.Config.Remote.Endpoint = g.remote
		a.Config.Mode = config.ModeRemote
	}
	a.Config.Normalize()

	if cmd.Annotations[annotationNoStores] == "true" {
		return nil
	}
	return a.open(cmd.Context())
}

func (a *App) open(ctx context.Context) error {
	if a.Events == nil || a.Settings == nil {
		if a.Connect == nil {
			return errors.New("no store wiring configured")
		}
		stores, err := a.Connect(ctx, a.Config)
		if err != nil {
			return err
		}
		a.Events, a.Settings = stores.Events, stores.Settings
		if stores.Close != nil {
			a.closers = append(a.closers, stores.Close)
		}
	}
	if a.loaded {
		return nil
	}
	if err := a.Settings.Load(ctx); err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := a.Events.Load(ctx); err != nil {
		return err
	}
	a.loaded = true
	return nil
}

// Close releases whatever Connect opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) location() *time.Location {
	return a.Settings.Location()
}

// warnStoreErr surfaces a store error message left by the last operation.
func (a *App) warnStoreErr(cmd *cobra.Command) {
	if msg := a.Events.Err(); msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", msg)
	}
}
