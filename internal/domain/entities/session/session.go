// Package session defines the visitor identity state machine and its
// immutable snapshot shape.
package session

import "time"

// Status represents the state of the session state machine.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
	StatusError         Status = "error"
)

// User is the authenticated identity attached to a session.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Snapshot is an immutable view of session state at one point in time.
// CSRFToken is non-empty only while a verified session (anonymous or
// authenticated) exists; it rotates on every successful verify, login,
// or refresh, and the previous value is invalid once replaced.
type Snapshot struct {
	Status      Status    `json:"status"`
	User        *User     `json:"user,omitempty"`
	CSRFToken   string    `json:"-"`
	HasCSRF     bool      `json:"hasCsrf"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	LastRefresh time.Time `json:"lastRefresh"`
	LastError   string    `json:"lastError,omitempty"`
}

// Authenticated reports whether the snapshot carries a signed-in identity.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}
