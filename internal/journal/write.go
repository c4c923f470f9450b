package journal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Event kinds recorded in the journal.
const (
	KindTick    = "tick"    // start of a tick
	KindAdded   = "added"   // registration merged into the table
	KindStep    = "step"    // a steppable's Step call completed
	KindRemoved = "removed" // a steppable was detached from its group
)

// Run describes one scheduler run.
type Run struct {
	ID         string
	StartedAt  time.Time // logical start instant
	TargetRate float64
}

// Event is one journaled scheduler action.
type Event struct {
	RunID   string
	Seq     int64
	Tick    uint64
	Kind    string
	Entity  string
	Divisor int
	Elapsed time.Duration
}

// BeginRun inserts the run header. Duplicate run IDs are rejected by the
// primary key; a run ID is used exactly once.
func (j *Journal) BeginRun(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, target_rate)
		VALUES (?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.TargetRate,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteEvent appends one event to the run's trace. The entity label is
// NFC-normalized so traces canonicalize identically across platforms.
func (j *Journal) WriteEvent(ctx context.Context, ev Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events (run_id, seq, tick, kind, entity, divisor, elapsed_us)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ev.RunID,
		ev.Seq,
		ev.Tick,
		ev.Kind,
		canonicalLabel(ev.Entity),
		ev.Divisor,
		ev.Elapsed.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// canonicalLabel returns the NFC normal form of an entity label.
func canonicalLabel(label string) string {
	return norm.NFC.String(label)
}
