package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/simware/simstep/internal/sim"
)

// Recorder journals scheduler activity. It implements sim.Observer, so all
// callbacks arrive on the driver goroutine in deterministic order and the
// per-run seq needs no locking.
//
// Write failures are logged and dropped rather than propagated: a journaling
// fault must never stall or kill the driver loop.
type Recorder struct {
	journal *Journal
	runID   string
	seq     int64
	logger  *slog.Logger
}

// NewRecorder starts a journaled run and returns its recorder.
func NewRecorder(j *Journal, runID string, logger *slog.Logger, startedAt time.Time, targetRate float64) (*Recorder, error) {
	if err := j.BeginRun(context.Background(), Run{
		ID:         runID,
		StartedAt:  startedAt,
		TargetRate: targetRate,
	}); err != nil {
		return nil, err
	}
	return &Recorder{
		journal: j,
		runID:   runID,
		logger:  logger.With("component", "journal", "run_id", runID),
	}, nil
}

// RunID returns the run this recorder is journaling.
func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) TickBegan(tick uint64, _ time.Time) {
	r.record(Event{Tick: tick, Kind: KindTick})
}

func (r *Recorder) SteppableAdded(tick uint64, s sim.Steppable, divisor int) {
	r.record(Event{Tick: tick, Kind: KindAdded, Entity: sim.LabelOf(s), Divisor: divisor})
}

func (r *Recorder) StepFired(tick uint64, s sim.Steppable, divisor int, elapsed time.Duration) {
	r.record(Event{Tick: tick, Kind: KindStep, Entity: sim.LabelOf(s), Divisor: divisor, Elapsed: elapsed})
}

func (r *Recorder) SteppableRemoved(tick uint64, s sim.Steppable, divisor int, elapsed time.Duration) {
	r.record(Event{Tick: tick, Kind: KindRemoved, Entity: sim.LabelOf(s), Divisor: divisor, Elapsed: elapsed})
}

func (r *Recorder) record(ev Event) {
	r.seq++
	ev.RunID = r.runID
	ev.Seq = r.seq
	if err := r.journal.WriteEvent(context.Background(), ev); err != nil {
		r.logger.Error("journal write failed",
			"kind", ev.Kind,
			"tick", ev.Tick,
			"error", err,
		)
	}
}
