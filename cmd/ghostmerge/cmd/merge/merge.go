package merge

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge"
	"github.com/agentstation/ghostmerge/internal/appcontext"
	"github.com/agentstation/ghostmerge/internal/cmd/hints"
	"github.com/agentstation/ghostmerge/internal/cmd/output"
	"github.com/agentstation/ghostmerge/internal/cmd/prompt"
	"github.com/agentstation/ghostmerge/internal/cmd/table"
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Summary is the structured output of a merge.
type Summary struct {
	RunID       string   `json:"run_id" yaml:"run_id"`
	LeftOutput  string   `json:"left_output,omitempty" yaml:"left_output,omitempty"`
	RightOutput string   `json:"right_output,omitempty" yaml:"right_output,omitempty"`
	AuditFiles  []string `json:"audit_files,omitempty" yaml:"audit_files,omitempty"`
	DryRun      bool     `json:"dry_run" yaml:"dry_run"`
	Duration    string   `json:"duration" yaml:"duration"`

	Merged             int `json:"merged" yaml:"merged"`
	LeftOnly           int `json:"left_only" yaml:"left_only"`
	RightOnly          int `json:"right_only" yaml:"right_only"`
	Rejected           int `json:"rejected" yaml:"rejected"`
	Skipped            int `json:"skipped" yaml:"skipped"`
	Passes             int `json:"orphan_passes" yaml:"orphan_passes"`
	Pairings           int `json:"manual_pairings" yaml:"manual_pairings"`
	ContractViolations int `json:"refused_decisions" yaml:"refused_decisions"`
	Redactions         int `json:"redactions" yaml:"redactions"`
	Flags              int `json:"flagged_terms" yaml:"flagged_terms"`
	ScanErrors         int `json:"scan_errors" yaml:"scan_errors"`
}

// Execute runs a merge with the command's flags.
func Execute(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	ctx := cmd.Context()
	logger := app.Logger()

	cfg := app.EngineConfig()
	if err := flags.apply(cmd, &cfg); err != nil {
		return err
	}

	mode, err := flags.mode()
	if err != nil {
		return err
	}
	source, err := newSource(cmd, app, mode, flags.Script, cfg)
	if err != nil {
		return err
	}

	outLeft := flags.OutLeft
	if outLeft == "" {
		outLeft = ghostmerge.OutputPath(flags.Left, cfg.OutputSuffix)
	}
	outRight := flags.OutRight
	if outRight == "" {
		outRight = ghostmerge.OutputPath(flags.Right, cfg.OutputSuffix)
	}
	if outLeft == outRight {
		return errors.NewValidationError("out-b", outRight, "left and right outputs must differ")
	}

	client, err := app.Client(ghostmerge.WithConfig(cfg), ghostmerge.WithDecisionSource(source))
	if err != nil {
		return err
	}

	logger.Debug().
		Str("mode", mode).
		Float64("threshold", cfg.Threshold).
		Float64("orphan_threshold", cfg.OrphanPassThreshold).
		Msg("Merging collections")

	result, err := client.MergeFiles(ctx, flags.Left, flags.Right)
	if err != nil {
		return err
	}

	summary := summarize(result, flags.DryRun)
	if !flags.DryRun {
		if err := client.Save(ctx, result, outLeft, outRight); err != nil {
			return err
		}
		summary.LeftOutput, summary.RightOutput = outLeft, outRight
		logger.Info().
			Str("left", outLeft).
			Str("right", outRight).
			Msg("Wrote merged collections")
	}
	// Audit files are written on dry runs too
	for _, path := range flags.Audit {
		if err := client.SaveAudit(ctx, result, path); err != nil {
			return err
		}
		summary.AuditFiles = append(summary.AuditFiles, path)
		logger.Info().Str("file", path).Msg("Wrote audit trail")
	}

	if err := output.Write(cmd.OutOrStdout(), app.OutputFormat(), table.StatsToTableData(result.Stats), summary); err != nil {
		return err
	}
	if app.Quiet() || output.DetectFormat(app.OutputFormat()) != output.FormatTable {
		return nil
	}
	return hints.Write(cmd.ErrOrStderr(), hints.ForMerge(hints.MergeContext{
		Left:      flags.Left,
		Right:     flags.Right,
		Stats:     result.Stats,
		Automated: mode == ModeAuto,
		DryRun:    flags.DryRun,
		Audited:   len(flags.Audit) > 0,
	}))
}

// newSource builds the decision source for mode. Interactive prompts go to
// stderr so stdout stays machine readable.
func newSource(cmd *cobra.Command, app appcontext.Interface, mode, script string, cfg engine.Config) (decision.Source, error) {
	automated := decision.NewAutomated(cfg.AutoAcceptThreshold, cfg.OrphanPassThreshold)
	switch mode {
	case ModeInteractive:
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && !prompt.IsTerminal(f) {
			return nil, errors.NewValidationError("mode", mode, "interactive mode needs a terminal on stdin")
		}
		return prompt.New(in, cmd.ErrOrStderr(), prompt.WithColor(!app.NoColor())), nil
	case ModeScript:
		s, err := decision.LoadScript(script)
		if err != nil {
			return nil, err
		}
		scripted, err := decision.NewScripted(s, automated)
		if err != nil {
			return nil, err
		}
		return scripted, nil
	}
	return automated, nil
}

func summarize(result *engine.Result, dryRun bool) Summary {
	s := result.Stats
	return Summary{
		RunID:              result.Metadata.RunID,
		DryRun:             dryRun,
		Duration:           result.Metadata.Duration.Round(time.Millisecond).String(),
		Merged:             s.Merged,
		LeftOnly:           s.LeftOnly,
		RightOnly:          s.RightOnly,
		Rejected:           s.Rejected,
		Skipped:            s.Skipped,
		Passes:             s.Passes,
		Pairings:           s.Pairings,
		ContractViolations: s.ContractViolations,
		Redactions:         s.Redactions,
		Flags:              s.Flags,
		ScanErrors:         s.ScanErrors,
	}
}
