package sim

import (
	"slices"
	"time"
)

// rateGroup holds the steppables sharing one step-rate divisor.
//
// The countdown starts at the divisor, is decremented once per tick, and
// triggers a fire when it reaches zero, after which it resets. lastFire is
// zero until the group first observes a tick; the first qualifying fire
// therefore reports elapsed time since the group's first observed tick, not
// since divisor-many ticks.
//
// Invariants: all members share the divisor; divisor >= 1; countdown stays
// within [0, divisor]. Member order is insertion order and determines firing
// order within the group.
type rateGroup struct {
	divisor   int
	members   []Steppable
	countdown int
	lastFire  time.Time
}

func newRateGroup(divisor int, s Steppable) *rateGroup {
	return &rateGroup{
		divisor:   divisor,
		members:   []Steppable{s},
		countdown: divisor,
	}
}

// groupTable is the ordered sequence of rate groups, sorted strictly
// ascending by divisor with at most one group per divisor value.
//
// Consulted and mutated only by the driver goroutine.
type groupTable struct {
	groups []*rateGroup
}

// merge folds one registration into the table, preserving ascending order.
//
// Matching divisor: append to that group's members. Smaller than an existing
// divisor: insert a new singleton group before it. Otherwise: append a new
// singleton group at the end. A drain only ever inserts or appends - it
// never reorders existing groups - so the ascending invariant holds
// inductively across ticks.
func (t *groupTable) merge(s Steppable, divisor int) *rateGroup {
	for i, g := range t.groups {
		if divisor == g.divisor {
			g.members = append(g.members, s)
			return g
		}
		if divisor < g.divisor {
			ng := newRateGroup(divisor, s)
			t.groups = slices.Insert(t.groups, i, ng)
			return ng
		}
	}
	ng := newRateGroup(divisor, s)
	t.groups = append(t.groups, ng)
	return ng
}

// memberCount returns the total number of scheduled steppables.
func (t *groupTable) memberCount() int {
	n := 0
	for _, g := range t.groups {
		n += len(g.members)
	}
	return n
}
