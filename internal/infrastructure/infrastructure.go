// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, metrics, database, archive storage)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/scopecheck/internal/config"
	"github.com/JaimeStill/scopecheck/pkg/database"
	"github.com/JaimeStill/scopecheck/pkg/lifecycle"
	"github.com/JaimeStill/scopecheck/pkg/metrics"
	"github.com/JaimeStill/scopecheck/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil when no archive account is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Metrics:   metrics.New(),
		Database:  db,
	}

	if cfg.Storage.Enabled() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	} else {
		logger.Info("archive storage not configured")
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator
// along with the readiness checks behind /readyz.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	i.Lifecycle.OnReady("database", i.Database.Ping)

	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
		i.Lifecycle.OnReady("storage", func(ctx context.Context) error {
			_, err := i.Storage.List(ctx, "", "", 1)
			return err
		})
	}
	return nil
}
