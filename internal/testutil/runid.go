package testutil

import (
	"fmt"
	"sync"
)

// RunIDSequence generates predictable run IDs ("test-run-000001", ...) in
// place of UUIDv7s, so journaled test runs are stable across executions.
//
// Thread-safe.
type RunIDSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewRunIDSequence creates a sequence with the given prefix.
// An empty prefix defaults to "test-run".
func NewRunIDSequence(prefix string) *RunIDSequence {
	if prefix == "" {
		prefix = "test-run"
	}
	return &RunIDSequence{prefix: prefix}
}

// Next returns the next ID in the sequence.
func (s *RunIDSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%06d", s.prefix, s.n)
}
