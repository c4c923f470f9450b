package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupProbe struct{ name string }

func (p *groupProbe) Remove(time.Time, time.Duration) bool { return false }
func (p *groupProbe) Step(time.Time, time.Duration)        {}

func divisors(t *groupTable) []int {
	out := make([]int, 0, len(t.groups))
	for _, g := range t.groups {
		out = append(out, g.divisor)
	}
	return out
}

func TestGroupTable_MergeKeepsAscendingOrder(t *testing.T) {
	tbl := &groupTable{}

	for _, d := range []int{4, 1, 8, 2, 4, 1, 6} {
		tbl.merge(&groupProbe{}, d)
	}

	assert.Equal(t, []int{1, 2, 4, 6, 8}, divisors(tbl))
}

func TestGroupTable_OneGroupPerDivisor(t *testing.T) {
	tbl := &groupTable{}

	a, b := &groupProbe{name: "a"}, &groupProbe{name: "b"}
	g1 := tbl.merge(a, 3)
	g2 := tbl.merge(b, 3)

	require.Same(t, g1, g2)
	require.Len(t, tbl.groups, 1)
	assert.Equal(t, []Steppable{a, b}, g1.members)
}

func TestGroupTable_InsertBeforeLargerDivisor(t *testing.T) {
	tbl := &groupTable{}
	tbl.merge(&groupProbe{}, 10)
	tbl.merge(&groupProbe{}, 5)

	assert.Equal(t, []int{5, 10}, divisors(tbl))
}

func TestGroupTable_RepeatedMergesNeverReorder(t *testing.T) {
	tbl := &groupTable{}

	// Simulate many drain batches; the ascending invariant must hold after
	// every single merge, not just at the end.
	seq := []int{7, 3, 3, 9, 1, 5, 7, 2, 8, 1, 4}
	for _, d := range seq {
		tbl.merge(&groupProbe{}, d)
		ds := divisors(tbl)
		for i := 1; i < len(ds); i++ {
			require.Less(t, ds[i-1], ds[i], "table out of order after merging divisor %d", d)
		}
	}
	assert.Equal(t, len(seq), tbl.memberCount())
}

func TestNewRateGroup_CountdownStartsAtDivisor(t *testing.T) {
	g := newRateGroup(5, &groupProbe{})
	assert.Equal(t, 5, g.countdown)
	assert.True(t, g.lastFire.IsZero())
}
