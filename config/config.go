// Package config loads runtime configuration from the environment, with an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Leave     LeaveConfig
	Report    ReportConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// DatabaseConfig selects the store. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver string
	Path   string // sqlite file, ":memory:" allowed
	URL    string // postgres connection string
}

// LeaveConfig points at the external leave service. An empty URL disables
// leave lookups.
type LeaveConfig struct {
	URL     string
	Timeout time.Duration
}

type ReportConfig struct {
	TargetConfigPath string // JSON file for factory.TargetFactory, optional
	Workers          int
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Database configuration
	config.Database = DatabaseConfig{
		Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		Path:   getEnv("DB_PATH", "productivity.db"),
		URL:    getEnv("DATABASE_URL", ""),
	}

	// Leave service configuration
	leaveTimeout, err := time.ParseDuration(getEnv("LEAVE_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_TIMEOUT: %w", err)
	}
	config.Leave = LeaveConfig{
		URL:     getEnv("LEAVE_SERVICE_URL", ""),
		Timeout: leaveTimeout,
	}

	// Report configuration
	workers, err := strconv.Atoi(getEnv("REPORT_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_WORKERS: %w", err)
	}
	config.Report = ReportConfig{
		TargetConfigPath: getEnv("TARGET_CONFIG", ""),
		Workers:          workers,
	}

	// Scheduler configuration
	enabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_ENABLED: %w", err)
	}
	interval, err := time.ParseDuration(getEnv("SCHEDULER_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL: %w", err)
	}
	config.Scheduler = SchedulerConfig{Enabled: enabled, Interval: interval}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.App.Port <= 0 {
		return fmt.Errorf("APP_PORT must be positive")
	}
	if c.Report.Workers <= 0 {
		return fmt.Errorf("REPORT_WORKERS must be positive")
	}
	if c.Leave.Timeout <= 0 {
		return fmt.Errorf("LEAVE_TIMEOUT must be positive")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}
	if _, err := ParseLogLevel(c.App.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps LOG_LEVEL to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
