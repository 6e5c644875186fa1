package ghostmerge

import (
	"github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/sensitivity"
)

// options holds the client configuration.
type options struct {
	config    engine.Config
	source    decision.Source
	scanner   sensitivity.Scanner
	auditOpts []audit.Option
}

// Option is a function that configures a Client.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	o := &options{config: engine.DefaultConfig()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// newSource returns the configured decision source, or a fresh Automated
// source built from the configured thresholds.
func (o *options) newSource() decision.Source {
	if o.source != nil {
		return o.source
	}
	return decision.NewAutomated(o.config.AutoAcceptThreshold, o.config.OrphanPassThreshold)
}

// WithConfig replaces the whole engine configuration.
func WithConfig(cfg engine.Config) Option {
	return func(o *options) error {
		o.config = cfg
		return nil
	}
}

// WithDecisionSource sets the source consulted for every decision. The
// caller owns its state across runs.
func WithDecisionSource(source decision.Source) Option {
	return func(o *options) error {
		if source == nil {
			return &errors.ValidationError{Field: "source", Message: "cannot be nil"}
		}
		o.source = source
		return nil
	}
}

// WithThreshold sets the first pass matching threshold.
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		o.config.Threshold = threshold
		return nil
	}
}

// WithOrphanThreshold sets the orphan pass matching threshold.
func WithOrphanThreshold(threshold float64) Option {
	return func(o *options) error {
		o.config.OrphanPassThreshold = threshold
		return nil
	}
}

// WithTermsFile enables the sensitivity pass with a terms file.
func WithTermsFile(path string) Option {
	return func(o *options) error {
		o.config.SensitivityTermsFile = path
		return nil
	}
}

// WithScanner enables the sensitivity pass with a custom scanner.
func WithScanner(scanner sensitivity.Scanner) Option {
	return func(o *options) error {
		if scanner == nil {
			return &errors.ValidationError{Field: "scanner", Message: "cannot be nil"}
		}
		o.scanner = scanner
		return nil
	}
}

// WithAuditOptions configures the audit log of each run.
func WithAuditOptions(opts ...audit.Option) Option {
	return func(o *options) error {
		o.auditOpts = append(o.auditOpts, opts...)
		return nil
	}
}
