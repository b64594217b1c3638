// Package security provides identifier generation and token inspection
// utilities.
package security

import "github.com/oklog/ulid/v2"

// GenerateULID generates a new ULID string. Used for the durable device
// identifier that keys the geo session.
func GenerateULID() string {
	return ulid.Make().String()
}
