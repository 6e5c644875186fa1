package engine

import (
	"fmt"
	"slices"

	"github.com/agentstation/ghostmerge/pkg/constants"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/policy"
	"github.com/agentstation/ghostmerge/pkg/sensitivity"
	"github.com/agentstation/ghostmerge/pkg/similarity"
)

// Config is the read-only configuration of one run.
type Config struct {
	WeightTitle       float64 `yaml:"match_weight_title" mapstructure:"match_weight_title"`
	WeightDescription float64 `yaml:"match_weight_description" mapstructure:"match_weight_description"`
	WeightFindingType float64 `yaml:"match_weight_finding_type" mapstructure:"match_weight_finding_type"`
	WeightImpact      float64 `yaml:"match_weight_impact" mapstructure:"match_weight_impact"`
	WeightMitigation  float64 `yaml:"match_weight_mitigation" mapstructure:"match_weight_mitigation"`
	MinTitle          float64 `yaml:"match_min_title" mapstructure:"match_min_title"`

	Threshold           float64 `yaml:"threshold" mapstructure:"threshold"`
	OrphanPassThreshold float64 `yaml:"orphan_pass_threshold" mapstructure:"orphan_pass_threshold"`
	AutoAcceptThreshold float64 `yaml:"auto_accept_threshold" mapstructure:"auto_accept_threshold"`

	LowRiskFields     []string          `yaml:"low_risk_fields" mapstructure:"low_risk_fields"`
	RequiredFields    []string          `yaml:"required_fields" mapstructure:"required_fields"`
	AutomatedDefaults map[string]string `yaml:"automated_defaults" mapstructure:"automated_defaults"`
	AllowedSeverities []string          `yaml:"allowed_severities" mapstructure:"allowed_severities"`

	ScanFields           []string `yaml:"scan_fields" mapstructure:"scan_fields"`
	SensitivityPolicy    string   `yaml:"sensitivity_policy" mapstructure:"sensitivity_policy"`
	SensitivityTermsFile string   `yaml:"sensitivity_terms_file" mapstructure:"sensitivity_terms_file"`

	IDStart             int    `yaml:"id_start" mapstructure:"id_start"`
	MaxDecisionAttempts int    `yaml:"max_decision_attempts" mapstructure:"max_decision_attempts"`
	OutputSuffix        string `yaml:"output_suffix" mapstructure:"output_suffix"`
	Concurrency         int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	severities := make([]string, len(findings.Severities))
	for i, s := range findings.Severities {
		severities[i] = s.String()
	}
	return Config{
		WeightTitle:         constants.DefaultWeightTitle,
		WeightDescription:   constants.DefaultWeightDescription,
		WeightFindingType:   constants.DefaultWeightFindingType,
		Threshold:           constants.DefaultThreshold,
		OrphanPassThreshold: constants.DefaultOrphanThreshold,
		AutoAcceptThreshold: constants.DefaultThreshold,
		LowRiskFields:       policy.DefaultLowRisk(),
		RequiredFields:      policy.DefaultRequired(),
		AutomatedDefaults:   map[string]string{},
		AllowedSeverities:   severities,
		ScanFields:          sensitivity.DefaultFields(),
		SensitivityPolicy:   string(sensitivity.PolicyReplace),
		IDStart:             constants.DefaultIDStart,
		MaxDecisionAttempts: constants.DefaultMaxDecisionAttempts,
		OutputSuffix:        constants.DefaultOutputSuffix,
	}
}

// Weights returns the scorer weights.
func (c Config) Weights() similarity.Weights {
	return similarity.Weights{
		Title:       c.WeightTitle,
		Description: c.WeightDescription,
		FindingType: c.WeightFindingType,
		Impact:      c.WeightImpact,
		Mitigation:  c.WeightMitigation,
	}
}

// Scorer builds the similarity scorer.
func (c Config) Scorer() (*similarity.Scorer, error) {
	return similarity.New(c.Weights(), similarity.WithMinTitle(c.MinTitle))
}

// Policies builds the field policies.
func (c Config) Policies() (*policy.Policies, error) {
	rules, err := policy.RulesFromMap(c.AutomatedDefaults)
	if err != nil {
		return nil, err
	}
	return policy.New(
		policy.WithLowRisk(c.LowRiskFields...),
		policy.WithRequired(c.RequiredFields...),
		policy.WithRules(rules...),
	)
}

// Severities parses AllowedSeverities. An empty list allows all.
func (c Config) Severities() ([]findings.Severity, error) {
	if len(c.AllowedSeverities) == 0 {
		return slices.Clone(findings.Severities), nil
	}
	out := make([]findings.Severity, 0, len(c.AllowedSeverities))
	for _, s := range c.AllowedSeverities {
		sev, err := findings.ParseSeverity(s)
		if err != nil {
			return nil, errors.NewValidationError("allowed_severities", s, err.Error())
		}
		out = append(out, sev)
	}
	return out, nil
}

// DecodeOptions returns the options for loading input collections.
func (c Config) DecodeOptions() ([]findings.DecodeOption, error) {
	severities, err := c.Severities()
	if err != nil {
		return nil, err
	}
	return []findings.DecodeOption{findings.WithAllowedSeverities(severities...)}, nil
}

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	var problems errors.MultiError
	problems.Append(c.Weights().Validate())
	if c.MinTitle < 0 || c.MinTitle > 1 {
		problems.Append(errors.NewValidationError("match_min_title", c.MinTitle, "must be within [0,1]"))
	}
	thresholds := []struct {
		name  string
		value float64
	}{
		{"threshold", c.Threshold},
		{"orphan_pass_threshold", c.OrphanPassThreshold},
		{"auto_accept_threshold", c.AutoAcceptThreshold},
	}
	for _, t := range thresholds {
		if t.value < 0 || t.value > 1 {
			problems.Append(errors.NewValidationError(t.name, t.value, "must be within [0,1]"))
		}
	}
	if _, err := c.Policies(); err != nil {
		problems.Append(err)
	}
	if _, err := c.Severities(); err != nil {
		problems.Append(err)
	}
	if _, err := sensitivity.ParsePolicy(c.SensitivityPolicy); err != nil {
		problems.Append(err)
	}
	for _, f := range c.ScanFields {
		if !findings.IsKnownField(f) {
			problems.Append(errors.NewValidationError("scan_fields", f, "unknown field"))
		}
	}
	if c.MaxDecisionAttempts < 1 {
		problems.Append(errors.NewValidationError("max_decision_attempts", c.MaxDecisionAttempts, "must be at least 1"))
	}
	if c.IDStart < 0 {
		problems.Append(errors.NewValidationError("id_start", c.IDStart, "cannot be negative"))
	}
	if c.Concurrency < 0 {
		problems.Append(errors.NewValidationError("concurrency", c.Concurrency, "cannot be negative"))
	}
	return problems.ErrorOrNil()
}

// String summarizes the matching settings for logs.
func (c Config) String() string {
	return fmt.Sprintf("weights(title=%.2f description=%.2f type=%.2f) threshold=%.2f orphan=%.2f",
		c.WeightTitle, c.WeightDescription, c.WeightFindingType, c.Threshold, c.OrphanPassThreshold)
}
