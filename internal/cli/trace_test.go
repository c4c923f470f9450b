package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simware/simstep/internal/journal"
)

// seedJournal creates a journal with one two-tick run and returns its path.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.BeginRun(ctx, journal.Run{
		ID:         "seeded-run",
		StartedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetRate: 60,
	}))

	events := []journal.Event{
		{Seq: 1, Tick: 1, Kind: journal.KindTick},
		{Seq: 2, Tick: 1, Kind: journal.KindAdded, Entity: "pump", Divisor: 1},
		{Seq: 3, Tick: 1, Kind: journal.KindStep, Entity: "pump", Divisor: 1},
		{Seq: 4, Tick: 2, Kind: journal.KindTick},
		{Seq: 5, Tick: 2, Kind: journal.KindRemoved, Entity: "pump", Divisor: 1, Elapsed: 16 * time.Millisecond},
	}
	for _, ev := range events {
		ev.RunID = "seeded-run"
		require.NoError(t, j.WriteEvent(ctx, ev))
	}

	return path
}

func TestTraceListsRuns(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeCommand("trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded-run")
	assert.Contains(t, out, "rate=60")
}

func TestTraceDumpsRunEvents(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeCommand("trace", "--db", dbPath, "--run", "seeded-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Run: seeded-run")
	assert.Contains(t, out, "+ pump (every 1)")
	assert.Contains(t, out, "step pump")
	assert.Contains(t, out, "- pump")
	assert.Contains(t, out, "Ticks:        2")
	assert.Contains(t, out, "Removals:     1")
}

func TestTraceEntityFilterKeepsStats(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeCommand("trace", "--db", dbPath, "--run", "seeded-run", "--entity", "no-such-entity")
	require.NoError(t, err)
	assert.Contains(t, out, "(no events)")
	// Stats still cover the whole run, only the listing is filtered.
	assert.Contains(t, out, "Total Events: 5")
}

func TestTraceUnknownRunIsCommandError(t *testing.T) {
	dbPath := seedJournal(t)

	_, err := executeCommand("trace", "--db", dbPath, "--run", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceJSONOutput(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeCommand("--format", "json", "trace", "--db", dbPath, "--run", "seeded-run")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "seeded-run", resp.Data.RunID)
	assert.Len(t, resp.Data.Events, 5)
	assert.Equal(t, 1, resp.Data.Stats.Removals)
}
