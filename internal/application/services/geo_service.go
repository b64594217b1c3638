package services

import (
	"context"
	"sync"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/backend"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/messaging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/persistence/localstore"
)

// GeoServiceConfig carries the tracker's timing and detection knobs.
type GeoServiceConfig struct {
	ActivityInterval time.Duration
	PersistInterval  time.Duration
	AutoDetect       bool
}

// GeoService owns the durable behavioral session: it counts activity on
// the activity interval, persists locally on every change, and syncs to
// the backend on the persist interval. Sync is at-least-once: a record
// only stops being pending after the backend acknowledges a snapshot that
// still matches local state.
type GeoService struct {
	client      *backend.Client
	store       *localstore.Store
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	broadcaster *messaging.Broadcaster
	config      GeoServiceConfig

	mu      sync.Mutex
	session *geo.Session
	syncing bool

	runMu  sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewGeoService creates a geo service. Call Start before use.
func NewGeoService(client *backend.Client, store *localstore.Store, logger *logging.ChanneledLogger, perfTracker *performance.Tracker, broadcaster *messaging.Broadcaster, config GeoServiceConfig) *GeoService {
	return &GeoService{
		client:      client,
		store:       store,
		logger:      logger,
		perfTracker: perfTracker,
		broadcaster: broadcaster,
		config:      config,
	}
}

// Start loads or creates the persisted session, optionally runs server-side
// location detection, and launches the activity and persist tickers.
// Starting an already running service is a no-op.
func (g *GeoService) Start(ctx context.Context) error {
	g.runMu.Lock()
	defer g.runMu.Unlock()
	if g.stopCh != nil {
		return nil
	}

	sess, err := g.store.LoadGeoSession()
	if err != nil {
		return err
	}
	if sess == nil {
		deviceID, err := g.store.DeviceID()
		if err != nil {
			return err
		}
		sess = geo.NewSession(deviceID, time.Now())
		g.logger.Geo().Info("Created geo session", "sessionId", sess.SessionID)
	} else {
		g.logger.Geo().Info("Restored geo session",
			"sessionId", sess.SessionID,
			"visitCount", sess.VisitCount,
			"pendingSync", sess.PendingSync)
	}

	g.mu.Lock()
	g.session = sess
	g.mu.Unlock()

	if g.config.AutoDetect {
		g.detectLocation(ctx)
	}
	if err := g.persistLocal(); err != nil {
		return err
	}

	// A fresh or dirty record syncs now rather than waiting out the first
	// persist tick.
	g.Flush(ctx)

	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})
	go g.run(g.stopCh, g.doneCh)
	return nil
}

// Stop halts the tickers and performs one final flush so a pending record
// is not lost on shutdown.
func (g *GeoService) Stop(ctx context.Context) {
	g.runMu.Lock()
	defer g.runMu.Unlock()
	if g.stopCh == nil {
		return
	}

	close(g.stopCh)
	<-g.doneCh
	g.stopCh = nil
	g.doneCh = nil

	g.Flush(ctx)
	g.logger.Geo().Info("Geo tracking stopped")
}

func (g *GeoService) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	activity := time.NewTicker(g.config.ActivityInterval)
	persist := time.NewTicker(g.config.PersistInterval)
	defer activity.Stop()
	defer persist.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-activity.C:
			g.RecordActivity()
		case <-persist.C:
			ctx, cancel := context.WithTimeout(context.Background(), g.config.PersistInterval)
			g.Flush(ctx)
			cancel()
		}
	}
}

// RecordActivity counts one unit of activity and marks the session dirty.
func (g *GeoService) RecordActivity() {
	g.mu.Lock()
	if g.session == nil {
		g.mu.Unlock()
		return
	}
	g.session.Touch(time.Now())
	snap := *g.session
	g.mu.Unlock()

	if err := g.persistLocal(); err != nil {
		g.logger.Geo().Error("Failed to persist geo session", "error", err)
	}
	g.broadcaster.Publish(messaging.TopicGeo, snap)
}

// UpdateLocation overlays the non-empty fields of partial onto the known
// location. A no-op update does not dirty the session. A changed location
// is the one signal worth sending right away, so it flushes immediately
// instead of waiting for the persist tick.
func (g *GeoService) UpdateLocation(ctx context.Context, partial geo.Location) {
	g.mu.Lock()
	if g.session == nil {
		g.mu.Unlock()
		return
	}
	changed := g.session.Location.Merge(partial)
	if changed {
		g.session.PendingSync = true
	}
	snap := *g.session
	g.mu.Unlock()

	if !changed {
		return
	}

	g.logger.Geo().Info("Location updated",
		"county", snap.Location.County,
		"town", snap.Location.Town)
	if err := g.persistLocal(); err != nil {
		g.logger.Geo().Error("Failed to persist geo session", "error", err)
	}
	g.broadcaster.Publish(messaging.TopicGeo, snap)
	g.Flush(ctx)
}

// Snapshot returns a copy of the current session, or nil before Start.
func (g *GeoService) Snapshot() *geo.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return nil
	}
	snap := *g.session
	return &snap
}

// Flush sends the session to the backend when it is pending. Overlapping
// flushes collapse: a call that finds one in flight returns immediately
// and the pending flag keeps the record scheduled for the next cycle.
func (g *GeoService) Flush(ctx context.Context) {
	g.mu.Lock()
	if g.session == nil || !g.session.PendingSync || g.syncing {
		g.mu.Unlock()
		return
	}
	g.syncing = true
	sent := *g.session
	g.mu.Unlock()

	marker := g.perfTracker.StartOperation("geo:sync")
	err := g.client.TrackGeo(ctx, backend.GeoTrackRequest{
		SessionID:  sent.SessionID,
		Location:   sent.Location,
		VisitCount: sent.VisitCount,
		FirstSeen:  sent.FirstSeen,
		LastSeen:   sent.LastSeen,
	})
	marker.SetError(err)
	marker.Complete()

	g.mu.Lock()
	g.syncing = false
	if err == nil && g.session.VisitCount == sent.VisitCount && g.session.Location == sent.Location {
		// Nothing changed while the request was in flight; the backend
		// has the current record.
		g.session.PendingSync = false
	}
	g.mu.Unlock()

	if err != nil {
		g.logger.Geo().Warn("Geo sync failed, will retry next cycle", "error", err)
		return
	}

	if persistErr := g.persistLocal(); persistErr != nil {
		g.logger.Geo().Error("Failed to persist geo session", "error", persistErr)
	}
	g.logger.Geo().Info("Geo session synced", "visitCount", sent.VisitCount)
}

func (g *GeoService) detectLocation(ctx context.Context) {
	resp, err := g.client.DetectLocation(ctx)
	if err != nil {
		g.logger.Geo().Warn("Location detection failed", "error", err)
		return
	}
	if !resp.Success {
		return
	}

	g.mu.Lock()
	if g.session.Location.Merge(resp.Location) {
		g.session.PendingSync = true
	}
	g.mu.Unlock()
}

func (g *GeoService) persistLocal() error {
	g.mu.Lock()
	snap := *g.session
	g.mu.Unlock()
	return g.store.SaveGeoSession(&snap)
}
