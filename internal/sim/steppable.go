package sim

import (
	"fmt"
	"time"
)

// Steppable is the capability contract every simulated entity implements.
//
// The scheduler never inspects an entity's internals; it only asks whether
// the entity should leave the schedule and, if not, advances it.
//
// Both methods are always called from the single driver goroutine, so
// implementations may freely read and mutate shared simulated state without
// additional locking. Neither method may block: a blocking entity stalls
// every other entity in the simulation.
type Steppable interface {
	// Remove reports whether the entity should be removed from the schedule
	// this tick. now is the scheduler's logical time; elapsed is the time
	// since this entity's rate group last fired.
	Remove(now time.Time, elapsed time.Duration) bool

	// Step advances the entity's internal state.
	Step(now time.Time, elapsed time.Duration)
}

// Labeled is an optional interface steppables can implement to expose a
// stable human-readable name for logs, traces, and the journal.
type Labeled interface {
	Label() string
}

// LabelOf returns the steppable's label, falling back to its Go type name.
func LabelOf(s Steppable) string {
	if l, ok := s.(Labeled); ok {
		return l.Label()
	}
	return fmt.Sprintf("%T", s)
}
