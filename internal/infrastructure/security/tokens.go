// Package security provides identifier generation and token inspection
// utilities.
package security

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenExpiry reads the exp claim from a backend-issued JWT without
// verifying its signature — the signing key belongs to the backend, and
// the engine only needs to know when to schedule a refresh. Returns the
// zero time when the token is not a JWT or carries no expiry.
func TokenExpiry(tokenString string) time.Time {
	if tokenString == "" {
		return time.Time{}
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0)
	case json.Number:
		if v, err := exp.Int64(); err == nil {
			return time.Unix(v, 0)
		}
	}
	return time.Time{}
}

// TokenExpired reports whether the token carries an expiry in the past.
// Opaque (non-JWT) tokens never report expired; the backend remains the
// authority on their validity.
func TokenExpired(tokenString string, now time.Time) bool {
	exp := TokenExpiry(tokenString)
	return !exp.IsZero() && exp.Before(now)
}
