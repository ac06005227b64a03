package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexanderramin/takeoff/internal/backend"
	"github.com/alexanderramin/takeoff/internal/db"
	"github.com/alexanderramin/takeoff/internal/remote"
	"github.com/alexanderramin/takeoff/internal/store"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var listen, dbPath string

	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Run the backend HTTP API",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStores: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if listen == "" {
				listen = cfg.Server.Listen
			}
			if dbPath == "" {
				dbPath = cfg.BackendDBPath()
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			var observer store.Observer = store.NoopObserver{}
			if cfg.LogCalls {
				observer = store.NewLogObserver(cmd.ErrOrStderr())
			}

			conn, err := db.OpenDB(dbPath)
			if err != nil {
				return fmt.Errorf("opening backend database: %w", err)
			}
			defer conn.Close()

			svc := backend.NewService(conn, db.NewSQLiteUnitOfWork(conn), backend.WithObserver(observer))
			seeded, err := svc.Init(cmd.Context())
			if err != nil {
				return err
			}
			if seeded > 0 {
				logger.Info("seeded backend", "events", seeded)
			}

			if cfg.Server.BackupCron != "" {
				c, err := newBackupScheduler(cfg.Server.BackupCron, conn, cfg.BackupDir(), logger)
				if err != nil {
					return err
				}
				c.Start()
				defer func() { <-c.Stop().Done() }()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("listening", "addr", listen, "db", dbPath)
			return remote.NewServer(svc, logger).ListenAndServe(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Backend database path (default from config)")

	return cmd
}

// newBackupScheduler snapshots the backend database on spec. Backups rotate
// by weekday so at most seven are kept.
func newBackupScheduler(spec string, conn *sql.DB, dir string, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		backupJob(context.Background(), conn, dir, time.Now(), logger)
	}); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return c, nil
}

func backupJob(ctx context.Context, conn *sql.DB, dir string, now time.Time, logger *slog.Logger) string {
	dest := filepath.Join(dir, "backend-"+now.Format("Mon")+".db")
	started := time.Now()
	if err := db.Backup(ctx, conn, dest); err != nil {
		logger.Error("backup failed", "dest", dest, "error", err)
		return ""
	}
	logger.Info("backup written", "dest", dest, "duration_ms", time.Since(started).Milliseconds())
	return dest
}
