// Package journal provides SQLite-backed recording of scheduler activity.
//
// The journal is an append-only log of what the driver loop did: runs, ticks,
// registrations, step firings, and removals. It hangs off the scheduler as a
// sim.Observer, so recording happens on the driver goroutine in deterministic
// order and the read side can reproduce a run's exact trace.
//
// Ordering: every event carries a per-run seq assigned on the driver
// goroutine; all reads ORDER BY seq so traces compare bytewise.
//
// Entity labels are NFC-normalized before writing so traces recorded on
// different platforms canonicalize identically.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: referential integrity between runs and events
package journal
