// Package audit provides the audit command, which prints a saved audit
// trail.
package audit

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge/internal/appcontext"
	"github.com/agentstation/ghostmerge/internal/cmd/output"
	"github.com/agentstation/ghostmerge/internal/cmd/table"
	pkgaudit "github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Flags holds the audit command flags.
type Flags struct {
	Kinds  []string
	Fields []string
}

// NewCommand creates the audit command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "audit FILE",
		GroupID: "inspect",
		Short:   "Show a saved audit trail",
		Long: `Audit prints the entries of an audit trail written by merge --audit
(YAML or JSON), optionally filtered by entry kind and field pattern.`,
		Example: `  ghostmerge audit audit.yaml
  ghostmerge audit audit.yaml --kind field-resolved --field 'extra_fields.*'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := Load(args[0])
			if err != nil {
				return err
			}
			entries := table.FilterEntries(file.Entries, flags.Kinds, flags.Fields)
			app.Logger().Debug().
				Str("run_id", file.RunID).
				Int("entries", len(entries)).
				Msg("Loaded audit trail")
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), table.AuditToTableData(entries, time.Now()), entries)
		},
	}

	cmd.Flags().StringSliceVar(&flags.Kinds, "kind", nil, "only entries of these kinds")
	cmd.Flags().StringSliceVar(&flags.Fields, "field", nil, "only entries for fields matching these patterns")

	return cmd
}

// Load reads an audit trail file.
func Load(path string) (*pkgaudit.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("audit file", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	return pkgaudit.LoadFile(data)
}
