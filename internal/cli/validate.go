package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/simware/simstep/internal/scenario"
)

// FileValidation holds the validation outcome for one scenario file.
type FileValidation struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results for all files.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files against the schema and semantic rules.

Checks structure (labels, divisors, tick counts), duplicate entity labels,
and removal/wait consistency. Nothing is executed or journaled.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	missing := false
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		fv := FileValidation{File: path, Valid: true}
		if _, err := scenario.Load(path); err != nil {
			fv.Valid = false
			fv.Error = err.Error()
			result.Valid = false
			if errors.Is(err, fs.ErrNotExist) {
				missing = true
			}
		}
		result.Files = append(result.Files, fv)
	}

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			invalid := 0
			for _, fv := range result.Files {
				if !fv.Valid {
					invalid++
				}
			}
			response.Status = "error"
			response.Error = &CLIError{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("%d file(s) failed validation", invalid),
			}
		}
		if err := writeIndentedJSON(formatter.Writer, response); err != nil {
			return err
		}
	} else {
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", fv.File)
			} else {
				fmt.Fprintf(formatter.Writer, "✗ %s\n", fv.File)
				fmt.Fprintf(formatter.Writer, "  %s\n", fv.Error)
			}
		}
	}

	if missing {
		return NewExitError(ExitCommandError, "scenario file not found")
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}
