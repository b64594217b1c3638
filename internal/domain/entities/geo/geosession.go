// Package geo defines the durable per-device behavioral session.
package geo

import "time"

// Location is the viewer's known place, merged from server detection and
// explicit updates. Empty strings mean unknown.
type Location struct {
	County   string `json:"county,omitempty"`
	Town     string `json:"town,omitempty"`
	Category string `json:"category,omitempty"`
}

// Merge overlays the non-empty fields of partial onto l and reports
// whether anything changed.
func (l *Location) Merge(partial Location) bool {
	changed := false
	if partial.County != "" && partial.County != l.County {
		l.County = partial.County
		changed = true
	}
	if partial.Town != "" && partial.Town != l.Town {
		l.Town = partial.Town
		changed = true
	}
	if partial.Category != "" && partial.Category != l.Category {
		l.Category = partial.Category
		changed = true
	}
	return changed
}

// Session is the client-local record correlating a device identifier to an
// observed location and activity history. It is created once per device and
// never deleted by the client. PendingSync is true whenever local state has
// diverged from the last state acknowledged by the backend.
type Session struct {
	SessionID   string    `json:"sessionId"`
	Location    Location  `json:"location"`
	VisitCount  int       `json:"visitCount"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
	PendingSync bool      `json:"pendingSync"`
}

// NewSession creates a fresh session for a device id.
func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID:   sessionID,
		FirstSeen:   now,
		LastSeen:    now,
		PendingSync: true,
	}
}

// Touch records one unit of activity.
func (s *Session) Touch(now time.Time) {
	s.VisitCount++
	s.LastSeen = now
	s.PendingSync = true
}
