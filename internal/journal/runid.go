package journal

import "github.com/google/uuid"

// NewRunID returns a time-sortable UUIDv7 run identifier.
//
// UUIDv7 embeds a timestamp in the most significant bits, so journaled runs
// list in creation order when sorted lexically. Tests pass fixed IDs instead
// for deterministic traces.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
