package services

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HabariMedia/newsroom-go/internal/infrastructure/backend"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/messaging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/persistence/localstore"
)

type testDeps struct {
	client      *backend.Client
	store       *localstore.Store
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	broadcaster *messaging.Broadcaster
}

func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()

	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = false
	cfg.OutputToConsole = false

	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}

// newTestDeps wires a full dependency set against an httptest backend.
// Mutating calls use a single-attempt policy mirroring production; reads
// retry with short delays to keep tests fast.
func newTestDeps(t *testing.T, server *httptest.Server) *testDeps {
	t.Helper()

	logger := quietLogger(t)

	store, err := localstore.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := backend.NewClient(
		server.URL,
		2*time.Second,
		backend.NewRetryPolicy(2, 10*time.Millisecond, 50*time.Millisecond),
		logger,
	)

	return &testDeps{
		client:      client,
		store:       store,
		logger:      logger,
		perfTracker: performance.NewTracker(nil),
		broadcaster: messaging.NewBroadcaster(logger),
	}
}
