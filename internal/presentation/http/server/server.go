// Package server runs the engine's HTTP server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/application/container"
	"github.com/HabariMedia/newsroom-go/internal/presentation/http/routes"
	"github.com/HabariMedia/newsroom-go/pkg/config"
)

// Run serves the API until SIGINT/SIGTERM, then drains connections and
// shuts the container down (which flushes any pending geo record).
func Run(deps *container.Container) error {
	router := routes.Setup(deps)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.System().Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		deps.Logger.Shutdown().Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		deps.Logger.Shutdown().Error("HTTP server shutdown failed", "error", err)
	}
	deps.Shutdown(ctx)
	return nil
}
