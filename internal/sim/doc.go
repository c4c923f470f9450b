// Package sim implements the deterministic fixed-cadence step scheduler.
//
// The scheduler advances every registered entity ("steppable") exactly once
// per logical tick from a single goroutine, so entities never observe partial
// updates from one another and entity code needs no locking of its own.
//
// ARCHITECTURE:
//
// Single-Writer Driver Loop:
// All stepping happens in one long-lived goroutine (Core.Run). This ensures:
//   - No entity-to-entity concurrency, ever
//   - Deterministic firing order within a tick
//   - Simple reasoning about shared simulated state
//
// Per-tick flow:
//  1. Acquire the step gate (also acquirable via Pause to freeze the loop)
//  2. Advance the logical clock by exactly one tick duration
//  3. Drain the pending registration queue into the rate group table
//  4. Fire rate groups in ascending divisor order, members in insertion order
//  5. Release the gate, wake WaitForEndOfStep callers, sleep to the next tick
//
// Logical Time:
// The tick's "now" is the previous logical now plus one fixed tick duration,
// never a wall-clock read. Wall-clock jitter therefore cannot compound into
// the elapsed durations handed to entities.
//
// Multi-Rate Stepping:
// A steppable registered with divisor N fires once every N ticks. Steppables
// sharing a divisor are grouped; the group table stays sorted ascending by
// divisor with exactly one group per divisor value, and is mutated only by
// the driver goroutine.
//
// Error handling is "log and continue": a panicking entity is caught at the
// tick boundary and logged, remaining groups still fire, and the loop never
// terminates because of an entity fault.
package sim
