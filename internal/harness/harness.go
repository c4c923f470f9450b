package harness

import (
	"io"
	"log/slog"
	"time"

	"github.com/simware/simstep/internal/scenario"
	"github.com/simware/simstep/internal/sim"
)

// startInstant pins the logical clock so elapsed durations in traces are
// identical across runs and machines.
var startInstant = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// TraceEvent is one entry in a scenario's recorded trace.
type TraceEvent struct {
	Tick      uint64 `json:"tick"`
	Kind      string `json:"kind"` // "tick" | "added" | "step" | "removed"
	Entity    string `json:"entity,omitempty"`
	Divisor   int    `json:"divisor,omitempty"`
	ElapsedUs int64  `json:"elapsed_us,omitempty"`
}

// Result holds everything a scenario run produced.
type Result struct {
	Scenario *scenario.Scenario
	Trace    []TraceEvent

	// StepCounts maps entity label to the number of Step calls observed.
	StepCounts map[string]int

	// WaiterReleases maps a waited entity's label to the tick at which its
	// removal signal fired.
	WaiterReleases map[string]uint64
}

// traceRecorder collects trace events in driver order.
// Implements sim.Observer.
type traceRecorder struct {
	events []TraceEvent
}

func (r *traceRecorder) TickBegan(tick uint64, _ time.Time) {
	r.events = append(r.events, TraceEvent{Tick: tick, Kind: "tick"})
}

func (r *traceRecorder) SteppableAdded(tick uint64, s sim.Steppable, divisor int) {
	r.events = append(r.events, TraceEvent{Tick: tick, Kind: "added", Entity: sim.LabelOf(s), Divisor: divisor})
}

func (r *traceRecorder) StepFired(tick uint64, s sim.Steppable, divisor int, elapsed time.Duration) {
	r.events = append(r.events, TraceEvent{Tick: tick, Kind: "step", Entity: sim.LabelOf(s), Divisor: divisor, ElapsedUs: elapsed.Microseconds()})
}

func (r *traceRecorder) SteppableRemoved(tick uint64, s sim.Steppable, divisor int, elapsed time.Duration) {
	r.events = append(r.events, TraceEvent{Tick: tick, Kind: "removed", Entity: sim.LabelOf(s), Divisor: divisor, ElapsedUs: elapsed.Microseconds()})
}

// Run executes a scenario against a real scheduler core.
//
// The core is driven tick by tick from this goroutine (no wall clock, no
// ticker), entities are registered in scenario order in a single batch, and
// waited entities have their removal channels armed before registration.
func Run(sc *scenario.Scenario) (*Result, error) {
	rec := &traceRecorder{}
	core := sim.New(
		sim.WithTargetRate(sc.EffectiveRate()),
		sim.WithStartInstant(startInstant),
		sim.WithObserver(rec),
		sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	entities := make(map[string]*ScriptedEntity, len(sc.Entities))
	waiters := make(map[string]<-chan struct{})
	for _, e := range sc.Entities {
		ent := NewScriptedEntity(e)
		entities[e.Label] = ent
		if e.Wait {
			waiters[e.Label] = core.Removed(ent)
		}
		core.AddSteppableEvery(ent, e.Divisor)
	}

	releases := make(map[string]uint64, len(waiters))
	for i := 0; i < sc.Ticks; i++ {
		core.Tick()
		tick := uint64(i + 1)
		for label, ch := range waiters {
			if _, done := releases[label]; done {
				continue
			}
			select {
			case <-ch:
				releases[label] = tick
			default:
			}
		}
	}

	counts := make(map[string]int, len(entities))
	for label, ent := range entities {
		counts[label] = ent.Steps()
	}

	return &Result{
		Scenario:       sc,
		Trace:          rec.events,
		StepCounts:     counts,
		WaiterReleases: releases,
	}, nil
}
