// Package scenario defines and validates simulation scenario files.
//
// Scenarios are YAML documents describing a schedule to drive: how many
// ticks to run and which entities to register at which divisors. Before
// decoding, the document is unified with an embedded CUE schema so malformed
// scenarios fail with positioned, field-level errors instead of zero values.
package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Scenario describes one simulation run for the harness or CLI.
type Scenario struct {
	// Name uniquely identifies the scenario; also names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Ticks is the number of ticks to drive.
	Ticks int `yaml:"ticks"`

	// Rate is the target tick rate; 0 means the scheduler default.
	Rate float64 `yaml:"rate,omitempty"`

	// Entities are registered in order, in one batch, before the first tick.
	Entities []Entity `yaml:"entities"`
}

// Entity describes one scripted steppable.
type Entity struct {
	Label string `yaml:"label"`

	// Divisor is the requested step ratio. Values below 1 are deliberately
	// representable: they exercise the scheduler's coercion diagnostic.
	Divisor int `yaml:"divisor"`

	// RemoveAfter makes Remove return true on the Nth firing; 0 = never.
	RemoveAfter int `yaml:"remove_after,omitempty"`

	// Wait attaches a blocking waiter released by the entity's removal.
	Wait bool `yaml:"wait,omitempty"`
}

// Load reads, validates, and decodes a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(path, data)
}

// Parse validates scenario YAML against the embedded CUE schema, then
// decodes it. filename is used for error positions only.
func Parse(filename string, data []byte) (*Scenario, error) {
	if err := validateSchema(filename, data); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	if errs := sc.check(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.Name, errs[0])
	}

	return &sc, nil
}

// validateSchema unifies the YAML document with #Scenario and reports any
// conflict with CUE positions attached.
func validateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("parse scenario yaml: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("parse scenario yaml: %w", err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario schema violation:\n%s", cueerrors.Details(err, nil))
	}

	return nil
}

// check applies semantic rules the shape schema cannot express.
func (s *Scenario) check() []error {
	var errs []error

	seen := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if seen[e.Label] {
			errs = append(errs, fmt.Errorf("duplicate entity label %q", e.Label))
		}
		seen[e.Label] = true

		if e.Wait && e.RemoveAfter == 0 {
			errs = append(errs, fmt.Errorf("entity %q: wait requires remove_after, or the waiter never unblocks", e.Label))
		}
		if e.RemoveAfter > 0 {
			d := e.Divisor
			if d < 1 {
				d = 1
			}
			if e.RemoveAfter*d > s.Ticks {
				errs = append(errs, fmt.Errorf("entity %q: removal needs %d ticks but the scenario runs %d", e.Label, e.RemoveAfter*d, s.Ticks))
			}
		}
	}

	return errs
}

// EffectiveRate returns the scenario's tick rate, falling back to the
// scheduler default when unset.
func (s *Scenario) EffectiveRate() float64 {
	if s.Rate > 0 {
		return s.Rate
	}
	return 60
}
