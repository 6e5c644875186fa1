package resolver

import (
	"github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/constants"
	"github.com/agentstation/ghostmerge/pkg/differ"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/policy"
)

type options struct {
	differ      differ.Differ
	policies    *policy.Policies
	audit       *audit.Log
	maxAttempts int
}

func defaultOptions() *options {
	return &options{
		differ:      differ.New(),
		policies:    policy.Default(),
		maxAttempts: constants.DefaultMaxDecisionAttempts,
	}
}

// Option is a function that configures a Resolver.
type Option func(*options) error

// WithDiffer sets the conflict detector.
func WithDiffer(d differ.Differ) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{Field: "differ", Message: "cannot be nil"}
		}
		o.differ = d
		return nil
	}
}

// WithPolicies sets the field classes and suggestion rules.
func WithPolicies(p *policy.Policies) Option {
	return func(o *options) error {
		if p == nil {
			return &errors.ValidationError{Field: "policies", Message: "cannot be nil"}
		}
		o.policies = p
		return nil
	}
}

// WithAudit records verdicts and contract violations to log.
func WithAudit(log *audit.Log) Option {
	return func(o *options) error {
		o.audit = log
		return nil
	}
}

// WithMaxAttempts bounds how often a refused field decision is requested.
func WithMaxAttempts(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("max_decision_attempts", n, "must be at least 1")
		}
		o.maxAttempts = n
		return nil
	}
}
