package app

import "github.com/google/uuid"

// newID produces a random entity identifier.
// Isolated here so the ID strategy can evolve independently.
func newID() string {
	return uuid.NewString()
}
