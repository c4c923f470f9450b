package harness

import (
	"fmt"

	"github.com/simware/simstep/internal/scenario"
)

// Verify checks a run's trace against the scheduler guarantees the scenario
// implies. All violations are returned, not just the first.
func Verify(res *Result) []error {
	var errs []error

	errs = append(errs, verifyStepCounts(res)...)
	errs = append(errs, verifyGroupOrder(res)...)
	errs = append(errs, verifyInsertionOrder(res)...)
	errs = append(errs, verifyRemovals(res)...)

	return errs
}

// expectedSteps computes how many Step calls an entity should receive over
// the scenario: a divisor-N entity fires on ticks N, 2N, ...; a scripted
// removal consumes its removeAfter-th firing without a step.
func expectedSteps(e scenario.Entity, ticks int) int {
	d := e.Divisor
	if d < 1 {
		d = 1
	}
	fires := ticks / d
	if e.RemoveAfter > 0 && e.RemoveAfter <= fires {
		return e.RemoveAfter - 1
	}
	return fires
}

func verifyStepCounts(res *Result) []error {
	var errs []error
	for _, e := range res.Scenario.Entities {
		want := expectedSteps(e, res.Scenario.Ticks)
		if got := res.StepCounts[e.Label]; got != want {
			errs = append(errs, fmt.Errorf("entity %q: stepped %d times, want %d", e.Label, got, want))
		}
	}
	return errs
}

// verifyGroupOrder checks that within every tick, firings happen in
// non-decreasing divisor order (groups are visited ascending).
func verifyGroupOrder(res *Result) []error {
	var errs []error
	var tick uint64
	lastDivisor := 0
	for _, ev := range res.Trace {
		switch ev.Kind {
		case "tick":
			tick = ev.Tick
			lastDivisor = 0
		case "step", "removed":
			if ev.Divisor < lastDivisor {
				errs = append(errs, fmt.Errorf("tick %d: divisor %d fired after divisor %d", tick, ev.Divisor, lastDivisor))
			}
			lastDivisor = ev.Divisor
		}
	}
	return errs
}

// verifyInsertionOrder checks that entities sharing a divisor fire in
// scenario (insertion) order on every tick where their group fires.
func verifyInsertionOrder(res *Result) []error {
	rank := make(map[string]int, len(res.Scenario.Entities))
	for i, e := range res.Scenario.Entities {
		rank[e.Label] = i
	}

	var errs []error
	var tick uint64
	lastRank := make(map[int]int) // divisor -> rank of last firing this tick
	for _, ev := range res.Trace {
		switch ev.Kind {
		case "tick":
			tick = ev.Tick
			clear(lastRank)
		case "step", "removed":
			if prev, ok := lastRank[ev.Divisor]; ok && rank[ev.Entity] < prev {
				errs = append(errs, fmt.Errorf("tick %d: entity %q fired out of insertion order", tick, ev.Entity))
			}
			lastRank[ev.Divisor] = rank[ev.Entity]
		}
	}
	return errs
}

// verifyRemovals checks that a removed entity never fires again and that
// each waited entity's release coincides with its removal tick.
func verifyRemovals(res *Result) []error {
	var errs []error

	removedAt := make(map[string]uint64)
	for _, ev := range res.Trace {
		switch ev.Kind {
		case "removed":
			removedAt[ev.Entity] = ev.Tick
		case "step":
			if at, gone := removedAt[ev.Entity]; gone {
				errs = append(errs, fmt.Errorf("entity %q stepped on tick %d after removal on tick %d", ev.Entity, ev.Tick, at))
			}
		}
	}

	for _, e := range res.Scenario.Entities {
		if !e.Wait {
			continue
		}
		release, released := res.WaiterReleases[e.Label]
		removal, removed := removedAt[e.Label]
		if !removed {
			errs = append(errs, fmt.Errorf("waited entity %q was never removed", e.Label))
			continue
		}
		if !released {
			errs = append(errs, fmt.Errorf("waited entity %q was removed but its waiter never released", e.Label))
			continue
		}
		if release != removal {
			errs = append(errs, fmt.Errorf("waited entity %q released on tick %d, removed on tick %d", e.Label, release, removal))
		}
	}

	return errs
}
