// Package container wires the engine's dependency graph.
package container

import (
	"context"
	"fmt"

	appservices "github.com/HabariMedia/newsroom-go/internal/application/services"
	domainservices "github.com/HabariMedia/newsroom-go/internal/domain/services"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/backend"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/messaging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/persistence/localstore"
	"github.com/HabariMedia/newsroom-go/pkg/config"
)

// Container holds every long-lived dependency, built once at startup and
// torn down in reverse order on shutdown.
type Container struct {
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	Broadcaster *messaging.Broadcaster
	Store       *localstore.Store
	Backend     *backend.Client

	SessionService         *appservices.SessionService
	GeoService             *appservices.GeoService
	PreferenceService      *appservices.PreferenceService
	PersonalizationService *appservices.PersonalizationService
}

// New builds the dependency graph from package config.
func New(logger *logging.ChanneledLogger) (*Container, error) {
	store, err := localstore.Open(config.LocalStorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	perfTracker := performance.NewTracker(nil)
	broadcaster := messaging.NewBroadcaster(logger)

	client := backend.NewClient(
		config.BackendBaseURL,
		config.BackendTimeout,
		backend.NewRetryPolicy(config.RetryMaxAttempts, config.RetryBaseDelay, config.RetryMaxDelay),
		logger,
	)

	sessionSvc := appservices.NewSessionService(client, logger, perfTracker, broadcaster)
	geoSvc := appservices.NewGeoService(client, store, logger, perfTracker, broadcaster, appservices.GeoServiceConfig{
		ActivityInterval: config.GeoActivityInterval,
		PersistInterval:  config.GeoPersistInterval,
		AutoDetect:       config.GeoAutoDetect,
	})
	prefSvc := appservices.NewPreferenceService(client, store, logger, broadcaster, config.SelectionLimit)

	scorer := domainservices.NewPersonalizationScorer(config.CountiesSlug, config.VisitBoostCap)
	personalizationSvc := appservices.NewPersonalizationService(
		client, scorer, prefSvc, geoSvc, store, logger, perfTracker,
		appservices.PersonalizationServiceConfig{
			PageLimit: config.FeedPageLimit,
			MaxPages:  config.FeedMaxPages,
		},
	)

	return &Container{
		Logger:                 logger,
		PerfTracker:            perfTracker,
		Broadcaster:            broadcaster,
		Store:                  store,
		Backend:                client,
		SessionService:         sessionSvc,
		GeoService:             geoSvc,
		PreferenceService:      prefSvc,
		PersonalizationService: personalizationSvc,
	}, nil
}

// Shutdown stops background work and releases resources.
func (c *Container) Shutdown(ctx context.Context) {
	c.GeoService.Stop(ctx)

	if err := c.Store.Close(); err != nil {
		c.Logger.Shutdown().Error("Failed to close local store", "error", err)
	}
	c.Logger.Shutdown().Info("Container shut down")
}
