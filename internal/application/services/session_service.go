// Package services orchestrates the engine's stateful managers over the
// backend client, local store, and broadcaster.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/session"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/backend"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/messaging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/security"
)

// LoginResult reports the outcome of a credential submission. A rejected
// credential is an expected outcome, not an error: Success is false,
// Error carries the backend's message, and session state is unchanged.
type LoginResult struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type verifyCall struct {
	done chan struct{}
	snap session.Snapshot
	err  error
}

// SessionService owns the identity state machine. All transitions happen
// through verify, login, and logout; reads return copies. Concurrent
// CheckSession calls share one in-flight verify.
type SessionService struct {
	client      *backend.Client
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	broadcaster *messaging.Broadcaster

	mu       sync.Mutex
	snapshot session.Snapshot
	inflight *verifyCall
}

// NewSessionService creates a session service in the uninitialized state.
func NewSessionService(client *backend.Client, logger *logging.ChanneledLogger, perfTracker *performance.Tracker, broadcaster *messaging.Broadcaster) *SessionService {
	return &SessionService{
		client:      client,
		logger:      logger,
		perfTracker: perfTracker,
		broadcaster: broadcaster,
		snapshot:    session.Snapshot{Status: session.StatusUninitialized},
	}
}

// Snapshot returns the current session state.
func (s *SessionService) Snapshot() session.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// CheckSession verifies the session with the backend and transitions to
// anonymous or authenticated. Concurrent callers coalesce onto a single
// backend verify and all observe its result.
func (s *SessionService) CheckSession(ctx context.Context) (session.Snapshot, error) {
	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.snap, call.err
		case <-ctx.Done():
			return session.Snapshot{}, ctx.Err()
		}
	}

	call := &verifyCall{done: make(chan struct{})}
	s.inflight = call
	s.snapshot.Status = session.StatusLoading
	s.mu.Unlock()

	snap, err := s.verify(ctx)

	s.mu.Lock()
	call.snap = snap
	call.err = err
	s.inflight = nil
	s.mu.Unlock()
	close(call.done)

	return snap, err
}

// Refresh forces a new verify cycle, rotating the CSRF token.
func (s *SessionService) Refresh(ctx context.Context) (session.Snapshot, error) {
	return s.CheckSession(ctx)
}

func (s *SessionService) verify(ctx context.Context) (session.Snapshot, error) {
	marker := s.perfTracker.StartOperation("session:verify")
	defer marker.Complete()

	resp, err := s.client.VerifySession(ctx)
	if err != nil {
		marker.SetError(err)
		s.logger.Session().Error("Session verify failed", "error", err)

		// A failed verify means no trusted session: any prior identity and
		// CSRF token are dropped along with the transition to error.
		snap := session.Snapshot{
			Status:    session.StatusError,
			LastError: err.Error(),
		}
		s.applySnapshot(snap)
		return snap, err
	}

	snap := session.Snapshot{
		Status:      session.StatusAnonymous,
		CSRFToken:   resp.CSRFToken,
		HasCSRF:     resp.CSRFToken != "",
		ExpiresAt:   security.TokenExpiry(resp.CSRFToken),
		LastRefresh: time.Now(),
	}
	if resp.IsAuthenticated && resp.User != nil {
		snap.Status = session.StatusAuthenticated
		snap.User = resp.User
	}

	s.applySnapshot(snap)
	s.logger.Session().Info("Session verified",
		"status", string(snap.Status),
		"hasCsrf", snap.HasCSRF)
	return snap, nil
}

// Login submits credentials. A backend rejection leaves the current state
// untouched; only a successful response transitions to authenticated and
// rotates the CSRF token.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	marker := s.perfTracker.StartOperation("session:login")
	defer marker.Complete()

	resp, err := s.client.Login(ctx, identifier, password)
	if err != nil {
		marker.SetError(err)
		s.logger.Session().Error("Login request failed", "error", err)
		return nil, err
	}

	if !resp.Success || resp.User == nil {
		marker.SetSuccess(false)
		message := resp.Error
		if message == "" {
			message = "invalid credentials"
		}
		s.logger.Session().Warn("Login rejected", "reason", message)
		return &LoginResult{Success: false, Error: message, Snapshot: s.Snapshot()}, nil
	}

	snap := session.Snapshot{
		Status:      session.StatusAuthenticated,
		User:        resp.User,
		CSRFToken:   resp.CSRFToken,
		HasCSRF:     resp.CSRFToken != "",
		ExpiresAt:   security.TokenExpiry(resp.CSRFToken),
		LastRefresh: time.Now(),
	}
	s.applySnapshot(snap)

	s.logger.Session().Info("Login succeeded", "userId", resp.User.ID)
	return &LoginResult{Success: true, Snapshot: snap}, nil
}

// Logout clears the signed-in identity. The backend call is best-effort:
// local identity is dropped even when it fails, then a fresh verify
// establishes the anonymous session and its CSRF token.
func (s *SessionService) Logout(ctx context.Context) (session.Snapshot, error) {
	marker := s.perfTracker.StartOperation("session:logout")
	defer marker.Complete()

	if err := s.client.Logout(ctx); err != nil {
		s.logger.Session().Warn("Backend logout failed, clearing local identity anyway", "error", err)
	}

	s.applySnapshot(session.Snapshot{Status: session.StatusAnonymous})

	snap, err := s.CheckSession(ctx)
	if err != nil {
		// Identity is already gone; the error only means no fresh CSRF yet.
		return s.Snapshot(), nil
	}
	return snap, nil
}

func (s *SessionService) applySnapshot(snap session.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.client.SetCSRFToken(snap.CSRFToken)
	s.broadcaster.Publish(messaging.TopicSession, snap)
}
