package scenario

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: basic-rates
description: one fast entity, two slow ones
ticks: 4
entities:
  - label: A
    divisor: 1
  - label: B
    divisor: 2
  - label: C
    divisor: 2
`

func TestParse_Valid(t *testing.T) {
	sc, err := Parse("basic.yaml", []byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "basic-rates", sc.Name)
	assert.Equal(t, 4, sc.Ticks)
	require.Len(t, sc.Entities, 3)
	assert.Equal(t, Entity{Label: "B", Divisor: 2}, sc.Entities[1])
	assert.Equal(t, 60.0, sc.EffectiveRate())
}

func TestParse_ExplicitRate(t *testing.T) {
	sc, err := Parse("r.yaml", []byte(`
name: fast
ticks: 2
rate: 120
entities:
  - label: A
    divisor: 1
`))
	require.NoError(t, err)
	assert.Equal(t, 120.0, sc.EffectiveRate())
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing name", `
ticks: 4
entities:
  - label: A
    divisor: 1
`},
		{"zero ticks", `
name: x
ticks: 0
entities:
  - label: A
    divisor: 1
`},
		{"non-integer ticks", `
name: x
ticks: soon
entities:
  - label: A
    divisor: 1
`},
		{"negative divisor", `
name: x
ticks: 4
entities:
  - label: A
    divisor: -2
`},
		{"empty label", `
name: x
ticks: 4
entities:
  - label: ""
    divisor: 1
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestParse_DivisorZeroAllowed(t *testing.T) {
	// Divisor 0 passes the schema on purpose: it exercises the scheduler's
	// coercion diagnostic.
	sc, err := Parse("zero.yaml", []byte(`
name: coercion
ticks: 2
entities:
  - label: Z
    divisor: 0
`))
	require.NoError(t, err)
	assert.Equal(t, 0, sc.Entities[0].Divisor)
}

func TestParse_SemanticErrors(t *testing.T) {
	t.Run("duplicate labels", func(t *testing.T) {
		_, err := Parse("dup.yaml", []byte(`
name: dup
ticks: 4
entities:
  - label: A
    divisor: 1
  - label: A
    divisor: 2
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate entity label")
	})

	t.Run("wait without remove_after", func(t *testing.T) {
		_, err := Parse("wait.yaml", []byte(`
name: wait
ticks: 4
entities:
  - label: A
    divisor: 1
    wait: true
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wait requires remove_after")
	})

	t.Run("removal beyond scenario length", func(t *testing.T) {
		_, err := Parse("long.yaml", []byte(`
name: long
ticks: 4
entities:
  - label: A
    divisor: 2
    remove_after: 3
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "removal needs 6 ticks")
	})
}

func TestLoad_FromFile(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "basic-rates.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "basic-rates", sc.Name)
	assert.Len(t, sc.Entities, 3)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "no-such.yaml"))
	require.Error(t, err)
}
