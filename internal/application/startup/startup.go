// Package startup performs ordered engine initialization: logging, the
// dependency container, state restoration, and the first session verify.
package startup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/application/container"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/pkg/config"
)

// Initialize builds the container and brings every manager to its ready
// state. The backend being unreachable is not fatal: the session enters
// its error state and managers run on locally persisted data until the
// next verify or sync cycle succeeds.
func Initialize(ctx context.Context) (*container.Container, error) {
	loggerConfig := logging.DefaultLoggerConfig()
	loggerConfig.LogDirectory = config.LogDirectory

	logger, err := logging.NewChanneledLogger(loggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	started := time.Now()
	logger.Startup().Info("Newsroom engine starting",
		slog.String("backend", config.BackendBaseURL),
		slog.String("store", config.LocalStorePath))

	deps, err := container.New(logger)
	if err != nil {
		return nil, err
	}

	if err := deps.PreferenceService.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if err := deps.PersonalizationService.Load(); err != nil {
		return nil, fmt.Errorf("failed to load personalization state: %w", err)
	}
	if err := deps.GeoService.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start geo tracking: %w", err)
	}

	if _, err := deps.SessionService.CheckSession(ctx); err != nil {
		logger.Startup().Warn("Initial session verify failed, continuing offline", "error", err)
	}

	logger.Startup().Info("Newsroom engine ready",
		slog.Duration("elapsed", time.Since(started)))
	return deps, nil
}
