package merge

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/sensitivity"
)

// Decision modes.
const (
	ModeAuto        = "auto"
	ModeInteractive = "interactive"
	ModeScript      = "script"
)

// Flags holds the merge command flags.
type Flags struct {
	Left     string
	Right    string
	OutLeft  string
	OutRight string

	Threshold       float64
	OrphanThreshold float64
	AutoAccept      float64
	IDStart         int

	Mode   string
	Script string

	Terms  string
	Policy string

	Audit  []string
	DryRun bool
}

func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	f := cmd.Flags()

	f.StringVarP(&flags.Left, "left", "a", "", "left collection (JSON or YAML)")
	f.StringVarP(&flags.Right, "right", "b", "", "right collection (JSON or YAML)")
	f.StringVar(&flags.OutLeft, "out-a", "", "left output path (default LEFT + output_suffix)")
	f.StringVar(&flags.OutRight, "out-b", "", "right output path (default RIGHT + output_suffix)")

	f.Float64Var(&flags.Threshold, "threshold", 0, "first pass match threshold")
	f.Float64Var(&flags.OrphanThreshold, "orphan-threshold", 0, "orphan pass match threshold")
	f.Float64Var(&flags.AutoAccept, "auto-accept", 0, "score at which auto mode accepts first pass matches")
	f.IntVar(&flags.IDStart, "id-start", 0, "first output ID")

	f.StringVar(&flags.Mode, "mode", "", "decision mode: auto, interactive, script")
	f.StringVar(&flags.Script, "script", "", "decision script (implies --mode script)")

	f.StringVar(&flags.Terms, "terms", "", "sensitive terms file (.txt or .toml)")
	f.StringVar(&flags.Policy, "policy", "", "sensitivity policy: replace, flag")

	f.StringSliceVar(&flags.Audit, "audit", nil, "write the audit trail (.yaml, .json or .md report); repeatable")
	f.BoolVar(&flags.DryRun, "dry-run", false, "merge and report without writing outputs")

	_ = cmd.MarkFlagRequired("left")
	_ = cmd.MarkFlagRequired("right")
	_ = cmd.MarkFlagFilename("left", "json", "yaml", "yml")
	_ = cmd.MarkFlagFilename("right", "json", "yaml", "yml")

	return flags
}

// mode resolves the decision mode from --mode and --script.
func (f *Flags) mode() (string, error) {
	mode := f.Mode
	if mode == "" {
		mode = ModeAuto
		if f.Script != "" {
			mode = ModeScript
		}
	}
	switch mode {
	case ModeAuto, ModeInteractive:
		return mode, nil
	case ModeScript:
		if f.Script == "" {
			return "", errors.NewValidationError("script", "", "--mode script needs --script FILE")
		}
		return mode, nil
	}
	return "", errors.NewValidationError("mode", mode, "expected auto, interactive or script")
}

// apply overrides cfg with every flag the user set.
func (f *Flags) apply(cmd *cobra.Command, cfg *engine.Config) error {
	changed := cmd.Flags().Changed
	if changed("threshold") {
		cfg.Threshold = f.Threshold
	}
	if changed("orphan-threshold") {
		cfg.OrphanPassThreshold = f.OrphanThreshold
	}
	if changed("auto-accept") {
		cfg.AutoAcceptThreshold = f.AutoAccept
	}
	if changed("id-start") {
		cfg.IDStart = f.IDStart
	}
	if f.Terms != "" {
		cfg.SensitivityTermsFile = f.Terms
	}
	if f.Policy != "" {
		policy, err := sensitivity.ParsePolicy(f.Policy)
		if err != nil {
			return err
		}
		cfg.SensitivityPolicy = string(policy)
	}
	return cfg.Validate()
}
