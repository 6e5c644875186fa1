// Package merge provides the merge command implementation.
package merge

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge/internal/appcontext"
)

// NewCommand creates the merge command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "merge -a LEFT -b RIGHT",
		GroupID: "core",
		Short:   "Merge two finding collections",
		Args:    cobra.NoArgs,
		Long: `Merge pairs the findings of two collections, resolves conflicting fields
and writes two renumbered collections that reference each other.

The run has three phases:

1. First pass - every left/right pair is scored and the best pairs at or
   above --threshold are offered for acceptance.
2. Orphan passes - unmatched findings are re-matched at --orphan-threshold
   and may be paired by hand.
3. Output - merged records are numbered first, then left-only and
   right-only findings. Each output finding records its source IDs.

Decisions come from one of three modes:
  auto         accept by score and take every suggested value (default)
  interactive  ask on the terminal
  script       answer from a YAML/JSON/TOML decision script, falling back
               to auto for anything the script does not cover`,
		Example: `  ghostmerge merge -a team-a.json -b team-b.json
  ghostmerge merge -a a.yaml -b b.yaml --mode interactive --audit audit.md
  ghostmerge merge -a a.json -b b.json --script decisions.yaml --terms terms.txt
  ghostmerge merge -a a.json -b b.json --dry-run -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd, app, flags)
		},
	}

	flags = addFlags(cmd)

	return cmd
}
