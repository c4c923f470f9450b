package sim

import "time"

// Observer receives scheduler lifecycle events from inside the driver loop.
//
// All callbacks run on the driver goroutine while the step gate is held, in
// deterministic order. Implementations must not block and must not call back
// into the Core's blocking API.
type Observer interface {
	// TickBegan fires at the start of each tick, after the logical clock has
	// advanced and before the pending queue is drained.
	TickBegan(tick uint64, now time.Time)

	// SteppableAdded fires when a drained registration is merged into the
	// rate group table. divisor is the effective (post-coercion) divisor.
	SteppableAdded(tick uint64, s Steppable, divisor int)

	// StepFired fires after a steppable's Step call completes.
	StepFired(tick uint64, s Steppable, divisor int, elapsed time.Duration)

	// SteppableRemoved fires when a steppable's Remove call returned true and
	// it was detached from its group.
	SteppableRemoved(tick uint64, s Steppable, divisor int, elapsed time.Duration)
}

// NopObserver ignores every event. It is the default observer.
type NopObserver struct{}

func (NopObserver) TickBegan(uint64, time.Time)                            {}
func (NopObserver) SteppableAdded(uint64, Steppable, int)                  {}
func (NopObserver) StepFired(uint64, Steppable, int, time.Duration)        {}
func (NopObserver) SteppableRemoved(uint64, Steppable, int, time.Duration) {}
