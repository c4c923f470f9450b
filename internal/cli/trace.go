package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simware/simstep/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Entity   string // optional - filter to one entity label
}

// TraceEventView is one journaled event in trace output.
type TraceEventView struct {
	Seq       int64  `json:"seq"`
	Tick      uint64 `json:"tick"`
	Kind      string `json:"kind"`
	Entity    string `json:"entity,omitempty"`
	Divisor   int    `json:"divisor,omitempty"`
	ElapsedUs int64  `json:"elapsed_us,omitempty"`
}

// TraceStats summarizes a journaled run.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Ticks       int `json:"ticks"`
	Additions   int `json:"additions"`
	Steps       int `json:"steps"`
	Removals    int `json:"removals"`
}

// TraceResult holds the complete trace output for one run.
type TraceResult struct {
	RunID      string           `json:"run_id"`
	StartedAt  string           `json:"started_at"`
	TargetRate float64          `json:"target_rate"`
	Events     []TraceEventView `json:"events"`
	Stats      TraceStats       `json:"stats"`
}

// RunListing is the trace output when no run ID is given.
type RunListing struct {
	Runs []RunView `json:"runs"`
}

// RunView is one run header in a listing.
type RunView struct {
	RunID      string  `json:"run_id"`
	StartedAt  string  `json:"started_at"`
	TargetRate float64 `json:"target_rate"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect journaled runs",
		Long: `Inspect the journal database.

Without --run, lists all journaled runs. With --run, dumps that run's full
event trace in deterministic order: ticks, registrations, steps, removals.

Examples:
  simstep trace --db ./simstep.db
  simstep trace --db ./simstep.db --run 0191e4a0-...
  simstep trace --db ./simstep.db --run 0191e4a0-... --entity sensor-sweep
  simstep trace --db ./simstep.db --run 0191e4a0-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (omit to list runs)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "filter to a single entity label")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	if opts.RunID == "" {
		return listRuns(ctx, j, opts, cmd)
	}

	run, err := j.ReadRun(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, journal.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := j.ReadEvents(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		RunID:      run.ID,
		StartedAt:  run.StartedAt.Format(time.RFC3339Nano),
		TargetRate: run.TargetRate,
		Events:     make([]TraceEventView, 0, len(events)),
	}
	for _, ev := range events {
		result.Stats.TotalEvents++
		switch ev.Kind {
		case journal.KindTick:
			result.Stats.Ticks++
		case journal.KindAdded:
			result.Stats.Additions++
		case journal.KindStep:
			result.Stats.Steps++
		case journal.KindRemoved:
			result.Stats.Removals++
		}

		if opts.Entity != "" && ev.Entity != opts.Entity {
			continue
		}
		result.Events = append(result.Events, TraceEventView{
			Seq:       ev.Seq,
			Tick:      ev.Tick,
			Kind:      ev.Kind,
			Entity:    ev.Entity,
			Divisor:   ev.Divisor,
			ElapsedUs: ev.Elapsed.Microseconds(),
		})
	}

	if opts.Format == "json" {
		return writeIndentedJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	return outputTraceText(cmd, result)
}

func listRuns(ctx context.Context, j *journal.Journal, opts *TraceOptions, cmd *cobra.Command) error {
	runs, err := j.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	listing := RunListing{Runs: make([]RunView, 0, len(runs))}
	for _, run := range runs {
		listing.Runs = append(listing.Runs, RunView{
			RunID:      run.ID,
			StartedAt:  run.StartedAt.Format(time.RFC3339Nano),
			TargetRate: run.TargetRate,
		})
	}

	if opts.Format == "json" {
		return writeIndentedJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: listing})
	}

	w := cmd.OutOrStdout()
	if len(listing.Runs) == 0 {
		fmt.Fprintln(w, "No runs journaled.")
		return nil
	}
	for _, run := range listing.Runs {
		fmt.Fprintf(w, "%s  %s  rate=%g\n", run.RunID, run.StartedAt, run.TargetRate)
	}
	return nil
}

// outputTraceText outputs one run's trace as text.
func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Started: %s\n", result.StartedAt)
	fmt.Fprintf(w, "Target rate: %g ticks/sec\n", result.TargetRate)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Events ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, ev := range result.Events {
			formatTraceEvent(w, ev)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Ticks:        %d\n", result.Stats.Ticks)
	fmt.Fprintf(w, "  Additions:    %d\n", result.Stats.Additions)
	fmt.Fprintf(w, "  Steps:        %d\n", result.Stats.Steps)
	fmt.Fprintf(w, "  Removals:     %d\n", result.Stats.Removals)

	return nil
}

// formatTraceEvent formats a single journaled event for text output.
func formatTraceEvent(w interface{ Write([]byte) (int, error) }, ev TraceEventView) {
	switch ev.Kind {
	case journal.KindTick:
		fmt.Fprintf(w, "  [%d] tick %d\n", ev.Seq, ev.Tick)
	case journal.KindAdded:
		fmt.Fprintf(w, "  [%d]   + %s (every %d)\n", ev.Seq, ev.Entity, ev.Divisor)
	case journal.KindStep:
		fmt.Fprintf(w, "  [%d]   step %s (elapsed %dus)\n", ev.Seq, ev.Entity, ev.ElapsedUs)
	case journal.KindRemoved:
		fmt.Fprintf(w, "  [%d]   - %s\n", ev.Seq, ev.Entity)
	default:
		fmt.Fprintf(w, "  [%d] %s %s\n", ev.Seq, ev.Kind, ev.Entity)
	}
}
