/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the productivity report server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the logger
  3. Open the store (sqlite or postgres)
  4. Load target configuration and save its overrides
  5. Create the leave client (when LEAVE_SERVICE_URL is set)
  6. Create the engine, handler and router
  7. Start the weekly snapshot scheduler (when enabled)
  8. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  APP_PORT, APP_ENV, LOG_LEVEL
  DB_DRIVER (sqlite|postgres), DB_PATH, DATABASE_URL
  LEAVE_SERVICE_URL, LEAVE_TIMEOUT
  TARGET_CONFIG, REPORT_WORKERS
  SCHEDULER_ENABLED, SCHEDULER_INTERVAL

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
  - cmd/report: One-off reports from the command line
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/productivity-engine/api"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/config"
	"github.com/warp/productivity-engine/factory"
	"github.com/warp/productivity-engine/leave"
	"github.com/warp/productivity-engine/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()
	cfg.App.Port = *port
	cfg.Database.Path = *dbPath

	level, _ := config.ParseLogLevel(cfg.App.LogLevel)
	logger := api.NewLogger(cfg.App.Env, level)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize store
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("store ready", slog.String("driver", cfg.Database.Driver))

	// Targets
	targets := factory.DefaultTargetConfig()
	if cfg.Report.TargetConfigPath != "" {
		targets, err = factory.NewTargetFactory().LoadFile(cfg.Report.TargetConfigPath)
		if err != nil {
			return err
		}
	}
	if err := store.ApplyOverrides(ctx, db, targets.Overrides); err != nil {
		logger.Warn("target overrides not applied", slog.Any("error", err))
	}

	// Leave service
	var leaveService attribution.LeaveService = attribution.NoLeave{}
	if cfg.Leave.URL != "" {
		leaveCfg := leave.DefaultConfig()
		leaveCfg.BaseURL = cfg.Leave.URL
		leaveCfg.Timeout = cfg.Leave.Timeout
		leaveService = leave.NewClient(leaveCfg, leave.NewLogObserver(logger))
	} else {
		logger.Warn("LEAVE_SERVICE_URL not set, NAD will be zero")
	}

	engine := attribution.NewEngine(db, leaveService, attribution.Config{
		Rates:        targets.Rates,
		Thresholds:   targets.Thresholds,
		Workers:      cfg.Report.Workers,
		LeaveTimeout: cfg.Leave.Timeout,
		Logger:       logger,
	})

	handler := api.NewHandler(db, engine, logger)
	router := api.NewRouter(handler, logger, api.RouterOptions{LogLevel: level})

	// Scheduler
	scheduler := api.NewReportScheduler(engine, db, logger)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.Int("port", cfg.App.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
