package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with the given args, capturing output.
func executeCommand(args ...string) (string, error) {
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "validate")
	assert.Contains(t, names, "test")
	assert.Contains(t, names, "trace")
}

func TestRootCommandRejectsInvalidFormat(t *testing.T) {
	_, err := executeCommand("--format", "xml", "validate", "whatever.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommandAcceptsValidFormats(t *testing.T) {
	for _, format := range ValidFormats {
		cmd := NewRootCommand()
		cmd.SetArgs([]string{"--format", format})
		cmd.SetOut(new(bytes.Buffer))
		cmd.RunE = func(*cobra.Command, []string) error { return nil }
		assert.NoError(t, cmd.Execute(), "format %q should be accepted", format)
	}
}
