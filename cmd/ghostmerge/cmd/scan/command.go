// Package scan provides the scan command, which reports sensitive terms
// in a collection without changing it.
package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge/internal/appcontext"
	"github.com/agentstation/ghostmerge/internal/cmd/hints"
	"github.com/agentstation/ghostmerge/internal/cmd/output"
	"github.com/agentstation/ghostmerge/internal/cmd/table"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/sensitivity"
)

// Flags holds the scan command flags.
type Flags struct {
	Terms  string
	Fields []string
	Strict bool
}

// NewCommand creates the scan command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "scan FILE...",
		GroupID: "inspect",
		Short:   "Report sensitive terms in collections",
		Long: `Scan runs the sensitivity pass over each collection in report-only mode
and lists every hit with its field and span. Terms come from --terms or
sensitivity_terms_file in the configuration.`,
		Example: `  ghostmerge scan report.json --terms terms.txt
  ghostmerge scan a.json b.json --terms terms.toml --strict`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := Scan(app, flags, args)
			if err != nil {
				return err
			}
			if err := output.Write(cmd.OutOrStdout(), app.OutputFormat(), table.HitsToTableData(hits), hits); err != nil {
				return err
			}
			if !app.Quiet() && output.DetectFormat(app.OutputFormat()) == output.FormatTable {
				if err := hints.Write(cmd.ErrOrStderr(), hints.ForScan(len(hits), flags.Strict)); err != nil {
					return err
				}
			}
			if flags.Strict && len(hits) > 0 {
				return &errors.ValidationError{Message: fmt.Sprintf("%d sensitive terms found", len(hits))}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Terms, "terms", "", "sensitive terms file (.txt or .toml)")
	cmd.Flags().StringSliceVar(&flags.Fields, "fields", nil, "fields to scan (default scan_fields)")
	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "exit non-zero when any term is found")

	return cmd
}

// Scan inspects every finding of every file.
func Scan(app appcontext.Interface, flags *Flags, paths []string) ([]table.Hit, error) {
	cfg := app.EngineConfig()
	termsFile := flags.Terms
	if termsFile == "" {
		termsFile = cfg.SensitivityTermsFile
	}
	if termsFile == "" {
		return nil, errors.NewValidationError("terms", "", "no terms file; pass --terms or set sensitivity_terms_file")
	}
	terms, err := sensitivity.LoadTerms(termsFile)
	if err != nil {
		return nil, err
	}
	scanner, err := sensitivity.NewTermScanner(terms)
	if err != nil {
		return nil, err
	}
	fields := flags.Fields
	if len(fields) == 0 {
		fields = cfg.ScanFields
	}
	pass, err := sensitivity.NewPass(scanner, sensitivity.PolicyFlag, fields...)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.DecodeOptions()
	if err != nil {
		return nil, err
	}

	var hits []table.Hit
	for _, path := range paths {
		list, err := findings.Load(path, opts...)
		if err != nil {
			return nil, err
		}
		for _, f := range list {
			for _, r := range pass.Inspect(f) {
				hits = append(hits, table.Hit{ID: f.ID, Redaction: r})
			}
		}
		app.Logger().Debug().Str("file", path).Int("findings", len(list)).Msg("Scanned collection")
	}
	return hits, nil
}
