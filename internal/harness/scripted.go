package harness

import (
	"time"

	"github.com/simware/simstep/internal/scenario"
	"github.com/simware/simstep/internal/sim"
)

// ScriptedEntity is a steppable whose removal is scripted by the scenario:
// Remove returns true on its Nth invocation (never, when removeAfter is 0).
type ScriptedEntity struct {
	label       string
	removeAfter int
	removeCalls int
	steps       int
}

// NewScriptedEntity builds the steppable for one scenario entity.
func NewScriptedEntity(e scenario.Entity) *ScriptedEntity {
	return &ScriptedEntity{
		label:       e.Label,
		removeAfter: e.RemoveAfter,
	}
}

func (s *ScriptedEntity) Remove(time.Time, time.Duration) bool {
	s.removeCalls++
	return s.removeAfter > 0 && s.removeCalls >= s.removeAfter
}

func (s *ScriptedEntity) Step(time.Time, time.Duration) {
	s.steps++
}

func (s *ScriptedEntity) Label() string { return s.label }

// Steps returns how many times the entity was stepped.
func (s *ScriptedEntity) Steps() int { return s.steps }

var _ sim.Steppable = (*ScriptedEntity)(nil)
var _ sim.Labeled = (*ScriptedEntity)(nil)
