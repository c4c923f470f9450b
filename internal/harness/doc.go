// Package harness runs scenario files against a real scheduler core and
// verifies the scheduler's ordering and rate guarantees against the
// resulting trace.
//
// The harness drives the core tick by tick from a single goroutine with a
// pinned logical start instant, so the same scenario always produces a
// byte-identical trace. Traces feed two kinds of checks:
//
//   - Verify: property checks derived from the scenario itself (step counts
//     per divisor, ascending group order, insertion order within a group,
//     waiter release at the removal tick)
//   - RunWithGolden: golden-file comparison of the full trace snapshot
//     (regenerate with `go test ./internal/harness -update`)
package harness
