// Package backend is the HTTP client for the news platform API. The
// backend owns authentication, geo detection, category reference data, and
// the article feed; this package only consumes its JSON contracts.
package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/session"
)

// ErrTimeout marks a request that exceeded the configured backend timeout.
var ErrTimeout = errors.New("backend request timed out")

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// VerifyResponse is the payload of GET/POST /verify.
type VerifyResponse struct {
	Success         bool          `json:"success"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	IsAnonymous     bool          `json:"isAnonymous"`
	User            *session.User `json:"user"`
	ClientID        string        `json:"client_id"`
	CSRFToken       string        `json:"csrf_token"`
	Message         string        `json:"message,omitempty"`
}

// LoginRequest is the payload of POST /login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse is the payload returned by POST /login.
type LoginResponse struct {
	Success       bool          `json:"success"`
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user,omitempty"`
	CSRFToken     string        `json:"csrf_token,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// GeoDetectResponse is the payload of GET /geo/current.
type GeoDetectResponse struct {
	Success  bool         `json:"success"`
	Location geo.Location `json:"location"`
}

// GeoTrackRequest is the payload of POST /geo/track.
type GeoTrackRequest struct {
	SessionID  string       `json:"sessionId"`
	Location   geo.Location `json:"location"`
	VisitCount int          `json:"visitCount"`
	FirstSeen  time.Time    `json:"firstSeen"`
	LastSeen   time.Time    `json:"lastSeen"`
}

// GeoTrackResponse is the acknowledgement of POST /geo/track.
type GeoTrackResponse struct {
	Success bool `json:"success"`
}
