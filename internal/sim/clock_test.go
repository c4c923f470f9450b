package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickClock_AdvancesByFixedStep(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTickClock(start, 100*time.Millisecond)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(100*time.Millisecond), c.Advance())
	assert.Equal(t, start.Add(200*time.Millisecond), c.Advance())
	assert.Equal(t, uint64(2), c.Count())
}
