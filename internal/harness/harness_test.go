package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simware/simstep/internal/scenario"
)

func loadScenario(t *testing.T, name string) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return sc
}

func TestRunBasicRates(t *testing.T) {
	sc := loadScenario(t, "basic-rates.yaml")

	res, err := Run(sc)
	require.NoError(t, err)

	assert.Equal(t, 4, res.StepCounts["A"])
	assert.Equal(t, 2, res.StepCounts["B"])
	assert.Equal(t, 2, res.StepCounts["C"])
	assert.Empty(t, Verify(res))
}

func TestRunBasicRatesTraceOrder(t *testing.T) {
	sc := loadScenario(t, "basic-rates.yaml")

	res, err := Run(sc)
	require.NoError(t, err)

	// Tick 2 is the first tick where both groups fire: the divisor-1 group
	// goes first, then the divisor-2 pair in insertion order.
	var tick2 []string
	for _, ev := range res.Trace {
		if ev.Tick != 2 {
			continue
		}
		tick2 = append(tick2, ev.Kind+":"+ev.Entity)
	}
	assert.Equal(t, []string{"tick:", "step:A", "step:B", "step:C"}, tick2)
}

func TestRunWaiterReleasedOnRemovalTick(t *testing.T) {
	sc := loadScenario(t, "waiter.yaml")

	res, err := Run(sc)
	require.NoError(t, err)

	// W fires on ticks 1 and 2; the second firing removes it.
	assert.Equal(t, 1, res.StepCounts["W"])
	assert.Equal(t, 3, res.StepCounts["bystander"])
	assert.Equal(t, uint64(2), res.WaiterReleases["W"])
	assert.Empty(t, Verify(res))

	var removedTicks []uint64
	for _, ev := range res.Trace {
		if ev.Kind == "removed" && ev.Entity == "W" {
			removedTicks = append(removedTicks, ev.Tick)
		}
	}
	assert.Equal(t, []uint64{2}, removedTicks)
}

func TestRunCoercedDivisorBehavesLikeOne(t *testing.T) {
	sc := loadScenario(t, "coercion.yaml")

	res, err := Run(sc)
	require.NoError(t, err)

	assert.Equal(t, res.StepCounts["ref"], res.StepCounts["Z"])
	assert.Equal(t, 3, res.StepCounts["Z"])
	assert.Empty(t, Verify(res))

	for _, ev := range res.Trace {
		if ev.Entity == "Z" {
			assert.Equal(t, 1, ev.Divisor, "coerced divisor should surface as 1")
		}
	}
}
