package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID has no header row.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the header for one run.
func (j *Journal) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, started_at, target_rate
		FROM runs
		WHERE id = ?
	`, runID)

	var run Run
	var startedAt string
	if err := row.Scan(&run.ID, &startedAt, &run.TargetRate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return Run{}, fmt.Errorf("read run: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("read run: parse started_at: %w", err)
	}
	run.StartedAt = ts

	return run, nil
}

// ListRuns returns all run headers ordered by start instant.
func (j *Journal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, target_rate
		FROM runs
		ORDER BY started_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(&run.ID, &startedAt, &run.TargetRate); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse started_at: %w", err)
		}
		run.StartedAt = ts
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// ReadEvents returns a run's full trace in deterministic order (seq ASC).
// Returns an empty slice (not nil) for a run with no events.
func (j *Journal) ReadEvents(ctx context.Context, runID string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, tick, kind, entity, divisor, elapsed_us
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var elapsedUs int64
		if err := rows.Scan(&ev.RunID, &ev.Seq, &ev.Tick, &ev.Kind, &ev.Entity, &ev.Divisor, &elapsedUs); err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		ev.Elapsed = time.Duration(elapsedUs) * time.Microsecond
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	if events == nil {
		events = []Event{}
	}
	return events, nil
}
