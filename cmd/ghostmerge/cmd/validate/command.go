// Package validate provides the validate command.
package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge/internal/appcontext"
	"github.com/agentstation/ghostmerge/internal/cmd/output"
	"github.com/agentstation/ghostmerge/internal/cmd/table"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

// NewCommand creates the validate command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "validate FILE...",
		GroupID: "inspect",
		Short:   "Check collection files without merging",
		Long: `Validate loads each collection with the same rules a merge applies:
required fields, allowed severities, CVSS ranges and unique IDs. Every
file is checked; the command fails if any file is invalid.`,
		Example: `  ghostmerge validate team-a.json team-b.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checks, err := Check(app, args)
			if err != nil {
				return err
			}
			if err := output.Write(cmd.OutOrStdout(), app.OutputFormat(), table.ChecksToTableData(checks), checks); err != nil {
				return err
			}
			invalid := 0
			for _, c := range checks {
				if c.Error != "" {
					invalid++
				}
			}
			if invalid > 0 {
				return &errors.ValidationError{Message: fmt.Sprintf("%d of %d files invalid", invalid, len(checks))}
			}
			return nil
		},
	}
}

// Check loads every path and reports the outcome per file.
func Check(app appcontext.Interface, paths []string) ([]table.FileCheck, error) {
	opts, err := app.EngineConfig().DecodeOptions()
	if err != nil {
		return nil, err
	}
	checks := make([]table.FileCheck, 0, len(paths))
	for _, path := range paths {
		check := table.FileCheck{Path: path}
		list, err := findings.Load(path, opts...)
		if err != nil {
			check.Error = err.Error()
			app.Logger().Debug().Err(err).Str("file", path).Msg("Invalid collection")
		} else {
			check.Findings = len(list)
		}
		checks = append(checks, check)
	}
	return checks, nil
}
