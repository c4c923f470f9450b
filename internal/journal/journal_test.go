package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_AppliesSchemaIdempotently(t *testing.T) {
	j := openTestJournal(t)

	// Re-applying the schema on an already-initialized database must succeed.
	require.NoError(t, applySchema(j.db))

	var version int
	require.NoError(t, j.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestJournal_RunRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	run := Run{ID: "run-1", StartedAt: started, TargetRate: 60}
	require.NoError(t, j.BeginRun(ctx, run))

	got, err := j.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, 60.0, got.TargetRate)
}

func TestJournal_DuplicateRunIDRejected(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	run := Run{ID: "run-1", StartedAt: time.Now(), TargetRate: 60}
	require.NoError(t, j.BeginRun(ctx, run))
	assert.Error(t, j.BeginRun(ctx, run))
}

func TestJournal_ReadRunNotFound(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestJournal_EventsOrderedBySeq(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.BeginRun(ctx, Run{ID: "run-1", StartedAt: time.Now(), TargetRate: 60}))

	// Insert out of order; reads must come back in seq order.
	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, j.WriteEvent(ctx, Event{
			RunID: "run-1",
			Seq:   seq,
			Tick:  uint64(seq),
			Kind:  KindTick,
		}))
	}

	events, err := j.ReadEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(2), events[1].Seq)
	assert.Equal(t, int64(3), events[2].Seq)
}

func TestJournal_ReadEventsEmptyRun(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.BeginRun(ctx, Run{ID: "run-1", StartedAt: time.Now(), TargetRate: 60}))

	events, err := j.ReadEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestJournal_LabelsNFCNormalized(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.BeginRun(ctx, Run{ID: "run-1", StartedAt: time.Now(), TargetRate: 60}))

	// "é" as 'e' + combining acute (NFD); stored form must be the NFC "é".
	require.NoError(t, j.WriteEvent(ctx, Event{
		RunID:  "run-1",
		Seq:    1,
		Tick:   1,
		Kind:   KindStep,
		Entity: "robot-é",
	}))

	events, err := j.ReadEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "robot-é", events[0].Entity)
}

func TestJournal_ElapsedRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.BeginRun(ctx, Run{ID: "run-1", StartedAt: time.Now(), TargetRate: 60}))
	require.NoError(t, j.WriteEvent(ctx, Event{
		RunID:   "run-1",
		Seq:     1,
		Tick:    2,
		Kind:    KindStep,
		Entity:  "a",
		Divisor: 2,
		Elapsed: 33333 * time.Microsecond,
	}))

	events, err := j.ReadEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 33333*time.Microsecond, events[0].Elapsed)
	assert.Equal(t, 2, events[0].Divisor)
}

func TestNewRunID_Unique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
