package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/policy"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.WeightTitle)
	assert.Equal(t, 0.6, cfg.Threshold)
	assert.Equal(t, 0.45, cfg.OrphanPassThreshold)
	assert.Equal(t, 1, cfg.IDStart)
	assert.Len(t, cfg.AllowedSeverities, 5)
	assert.Contains(t, cfg.LowRiskFields, "extra_fields.*")
	assert.Equal(t, ".merged.json", cfg.OutputSuffix)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative weight", func(c *Config) { c.WeightDescription = -0.1 }, "match_weight_description"},
		{"zero weights", func(c *Config) {
			c.WeightTitle, c.WeightDescription, c.WeightFindingType = 0, 0, 0
		}, "match_weight"},
		{"threshold above one", func(c *Config) { c.Threshold = 1.2 }, "threshold"},
		{"negative orphan threshold", func(c *Config) { c.OrphanPassThreshold = -0.5 }, "orphan_pass_threshold"},
		{"auto accept", func(c *Config) { c.AutoAcceptThreshold = 3 }, "auto_accept_threshold"},
		{"min title", func(c *Config) { c.MinTitle = 1.5 }, "match_min_title"},
		{"unknown policy", func(c *Config) { c.AutomatedDefaults = map[string]string{"title": "coin-flip"} }, "automated_defaults.title"},
		{"unknown severity", func(c *Config) { c.AllowedSeverities = []string{"High", "Urgent"} }, "allowed_severities"},
		{"sensitivity policy", func(c *Config) { c.SensitivityPolicy = "shred" }, "sensitivity_policy"},
		{"scan field", func(c *Config) { c.ScanFields = []string{"summary"} }, "scan_fields"},
		{"attempts", func(c *Config) { c.MaxDecisionAttempts = 0 }, "max_decision_attempts"},
		{"id start", func(c *Config) { c.IDStart = -1 }, "id_start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))

			var ve *errors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestConfigValidateCollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 2
	cfg.MaxDecisionAttempts = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors")
}

func TestConfigPolicies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LowRiskFields = []string{"tags"}
	cfg.RequiredFields = []string{"title", "finding_type"}
	cfg.AutomatedDefaults = map[string]string{"description": "prefer-right"}

	p, err := cfg.Policies()
	require.NoError(t, err)
	assert.True(t, p.IsLowRisk("tags"))
	assert.False(t, p.IsLowRisk("extra_fields.ticket"))
	assert.True(t, p.IsRequired("finding_type"))
	assert.Equal(t, policy.PreferRight, p.PolicyFor("description"))
	assert.Equal(t, policy.PreferHigherSeverity, p.PolicyFor("severity"))
}

func TestConfigSeverities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedSeverities = []string{"critical", "Info"}
	got, err := cfg.Severities()
	require.NoError(t, err)
	assert.Equal(t, []findings.Severity{findings.SeverityCritical, findings.SeverityInformational}, got)

	cfg.AllowedSeverities = nil
	got, err = cfg.Severities()
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestConfigScorer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WeightImpact = 0.1
	s, err := cfg.Scorer()
	require.NoError(t, err)
	assert.Equal(t, 0.1, s.Weights().Impact)
}
