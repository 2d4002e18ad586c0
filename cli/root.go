// Package cli implements the productivity report command line: one-off
// reports, trends and attribute histories against the configured store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/productivity-engine/api"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/config"
	"github.com/warp/productivity-engine/factory"
	"github.com/warp/productivity-engine/leave"
	"github.com/warp/productivity-engine/store"
)

// App holds the dependencies shared by every command. Store and Engine are
// opened from the root flags unless already set.
type App struct {
	Store  api.Store
	Engine *attribution.Engine
	Out    io.Writer
	Logger *slog.Logger

	closer io.Closer
}

type rootFlags struct {
	driver      string
	dbPath      string
	databaseURL string
	targets     string
	leaveURL    string
	logLevel    string
}

// NewRootCmd creates the top-level "report" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	defaults, err := config.FromEnv()
	if err != nil {
		defaults = &config.Config{
			App:      config.AppConfig{LogLevel: "warn"},
			Database: config.DatabaseConfig{Driver: "sqlite", Path: "productivity.db"},
		}
	}
	flags := rootFlags{
		driver:      defaults.Database.Driver,
		dbPath:      defaults.Database.Path,
		databaseURL: defaults.Database.URL,
		targets:     defaults.Report.TargetConfigPath,
		leaveURL:    defaults.Leave.URL,
		logLevel:    "warn",
	}

	root := &cobra.Command{
		Use:           "report",
		Short:         "Worker productivity reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd.Context(), flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.driver, "driver", flags.driver, "Store driver: sqlite or postgres")
	pf.StringVar(&flags.dbPath, "db", flags.dbPath, "SQLite database path")
	pf.StringVar(&flags.databaseURL, "database-url", flags.databaseURL, "PostgreSQL connection string")
	pf.StringVar(&flags.targets, "targets", flags.targets, "Target configuration JSON file")
	pf.StringVar(&flags.leaveURL, "leave-url", flags.leaveURL, "Leave service base URL (empty: no NAD)")
	pf.StringVar(&flags.logLevel, "log-level", flags.logLevel, "Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(app),
		newTrendCmd(app),
		newHistoryCmd(app),
		newSeedCmd(app),
		newSnapshotCmd(app),
	)

	return root
}

func (app *App) open(ctx context.Context, flags rootFlags) error {
	if app.Out == nil {
		app.Out = os.Stdout
	}
	if app.Logger == nil {
		level, err := config.ParseLogLevel(flags.logLevel)
		if err != nil {
			return err
		}
		app.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	if app.Store == nil {
		db, err := store.Open(ctx, config.DatabaseConfig{
			Driver: flags.driver,
			Path:   flags.dbPath,
			URL:    flags.databaseURL,
		})
		if err != nil {
			return err
		}
		app.Store = db
		app.closer = db
	}

	if app.Engine == nil {
		targets := factory.DefaultTargetConfig()
		if flags.targets != "" {
			var err error
			targets, err = factory.NewTargetFactory().LoadFile(flags.targets)
			if err != nil {
				return err
			}
			if err := store.ApplyOverrides(ctx, app.Store, targets.Overrides); err != nil {
				return err
			}
		}

		var leaveService attribution.LeaveService = attribution.NoLeave{}
		if flags.leaveURL != "" {
			cfg := leave.DefaultConfig()
			cfg.BaseURL = flags.leaveURL
			leaveService = leave.NewClient(cfg, leave.NewLogObserver(app.Logger))
		}

		app.Engine = attribution.NewEngine(app.Store, leaveService, attribution.Config{
			Rates:      targets.Rates,
			Thresholds: targets.Thresholds,
			Logger:     app.Logger,
		})
	}
	return nil
}

func (app *App) close() error {
	if app.closer == nil {
		return nil
	}
	err := app.closer.Close()
	app.closer = nil
	app.Store = nil
	app.Engine = nil
	return err
}

func (app *App) printJSON(v any) error {
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
