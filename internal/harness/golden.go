package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/simware/simstep/internal/scenario"
)

// TraceSnapshot is the serialized form compared against golden files.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Rate         float64      `json:"rate"`
	Ticks        int          `json:"ticks"`
	Trace        []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares its trace snapshot against
// testdata/<scenario-name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *scenario.Scenario) *Result {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		t.Fatalf("scenario %q failed: %v", sc.Name, err)
	}

	snapshot := TraceSnapshot{
		ScenarioName: sc.Name,
		Rate:         sc.EffectiveRate(),
		Ticks:        sc.Ticks,
		Trace:        result.Trace,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace snapshot: %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, sc.Name, data)

	return result
}
