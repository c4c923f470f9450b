package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simware/simstep/internal/config"
	"github.com/simware/simstep/internal/harness"
	"github.com/simware/simstep/internal/journal"
	"github.com/simware/simstep/internal/scenario"
	"github.com/simware/simstep/internal/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	RunID    string // override the generated run ID (for reproducible journals)
}

// RunSummary is the run command's output payload.
type RunSummary struct {
	RunID     string  `json:"run_id"`
	Scenario  string  `json:"scenario"`
	Rate      float64 `json:"rate"`
	Ticks     int     `json:"ticks"`
	Completed int     `json:"completed"`
	Journal   string  `json:"journal"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario in real time, journaling its trace",
		Long: `Run a scenario against the scheduler at its target tick rate.

The scheduler is driven by a wall-clock ticker for the scenario's tick
count, and every tick, registration, step, and removal is journaled to the
SQLite database. Interrupting with Ctrl-C stops the run after the current
tick; the journal keeps everything recorded so far.

Examples:
  simstep run ./scenarios/basic-rates.yaml --db ./simstep.db
  simstep run ./scenarios/slow.yaml --db /tmp/traces.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "fixed run ID instead of a generated one")

	return cmd
}

func runScenario(opts *RunOptions, scenarioPath string, cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	setupLogging(opts.Verbose, cfg)

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	rate := sc.Rate
	if rate <= 0 {
		rate = cfg.Rate
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Journal
	}
	slog.Info("opening journal", "path", dbPath)
	j, err := journal.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	runID := opts.RunID
	if runID == "" {
		runID = journal.NewRunID()
	}
	startedAt := time.Now().UTC()
	rec, err := journal.NewRecorder(j, runID, slog.Default(), startedAt, rate)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to begin run", err)
	}

	core := sim.New(
		sim.WithTargetRate(rate),
		sim.WithStartInstant(startedAt),
		sim.WithObserver(rec),
		sim.WithLogger(slog.Default()),
	)
	for _, e := range sc.Entities {
		core.AddSteppableEvery(harness.NewScriptedEntity(e), e.Divisor)
	}

	// Use command's context if available (for testing), otherwise create one.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("run starting",
		"run_id", runID,
		"scenario", sc.Name,
		"rate", rate,
		"ticks", sc.Ticks,
	)

	ticker := time.NewTicker(core.Interval())
	defer ticker.Stop()

	completed := 0
loop:
	for completed < sc.Ticks {
		select {
		case <-ctx.Done():
			slog.Info("run interrupted", "completed_ticks", completed)
			break loop
		case <-ticker.C:
			core.Tick()
			completed++
		}
	}

	summary := RunSummary{
		RunID:     runID,
		Scenario:  sc.Name,
		Rate:      rate,
		Ticks:     sc.Ticks,
		Completed: completed,
		Journal:   dbPath,
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run complete: %s\n", sc.Name)
	fmt.Fprintf(w, "  Run ID:  %s\n", summary.RunID)
	fmt.Fprintf(w, "  Ticks:   %d/%d\n", summary.Completed, summary.Ticks)
	fmt.Fprintf(w, "  Journal: %s\n", summary.Journal)
	return nil
}

// setupLogging configures the default slog logger from config, with the
// verbose flag forcing debug level.
func setupLogging(verbose bool, cfg config.Config) {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
