// Package store selects and opens the configured storage backend.
package store

import (
	"context"
	"fmt"

	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/config"
	"github.com/warp/productivity-engine/store/postgres"
	"github.com/warp/productivity-engine/store/sqlite"
)

// Store is a persistent backend: the engine's read surface, the write
// ports and report runs.
type Store interface {
	attribution.Store
	attribution.Writer
	attribution.RunStore
	Close() error
}

var (
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite %s: %w", cfg.Path, err)
		}
		return s, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// ApplyOverrides saves configured target overrides, replacing any stored
// override with the same ID.
func ApplyOverrides(ctx context.Context, w attribution.Writer, overrides []attribution.TargetOverride) error {
	for _, o := range overrides {
		if _, err := w.SaveOverride(ctx, o); err != nil {
			return fmt.Errorf("saving override %s for %s: %w", o.ID, o.WorkerID, err)
		}
	}
	return nil
}
