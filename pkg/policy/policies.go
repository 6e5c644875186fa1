package policy

import (
	"slices"

	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Policies holds the field classes and suggestion rules of one run.
type Policies struct {
	lowRisk  []string
	required []string
	rules    []Rule
}

// Option configures Policies.
type Option func(*Policies) error

// WithLowRisk replaces the low-risk field patterns.
func WithLowRisk(patterns ...string) Option {
	return func(p *Policies) error {
		p.lowRisk = slices.Clone(patterns)
		return nil
	}
}

// WithRequired replaces the required field patterns.
func WithRequired(patterns ...string) Option {
	return func(p *Policies) error {
		p.required = slices.Clone(patterns)
		return nil
	}
}

// WithRules adds suggestion rules. Rules for a path already present
// replace the existing rule.
func WithRules(rules ...Rule) Option {
	return func(p *Policies) error {
		for _, r := range rules {
			if !r.Policy.IsValid() {
				return errors.NewValidationError("automated_defaults."+r.Path, r.Policy, "unknown suggestion policy")
			}
			if i := slices.IndexFunc(p.rules, func(x Rule) bool { return x.Path == r.Path }); i >= 0 {
				p.rules[i] = r
				continue
			}
			p.rules = append(p.rules, r)
		}
		return nil
	}
}

// New creates Policies from the defaults and the given options.
func New(opts ...Option) (*Policies, error) {
	p := &Policies{
		lowRisk:  DefaultLowRisk(),
		required: DefaultRequired(),
		rules:    DefaultRules(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Default returns the standard policies.
func Default() *Policies {
	p, _ := New()
	return p
}

// IsLowRisk reports whether conflicts on field merge without a decision.
func (p *Policies) IsLowRisk(field string) bool {
	return matchesAny(field, p.lowRisk)
}

// IsRequired reports whether a merged finding must keep a value for field.
func (p *Policies) IsRequired(field string) bool {
	return matchesAny(field, p.required)
}

// IsOptional reports whether field may be removed.
func (p *Policies) IsOptional(field string) bool {
	return !p.IsRequired(field)
}

// PolicyFor returns the suggestion policy for field.
func (p *Policies) PolicyFor(field string) Type {
	if r := ByField(field, p.rules); r != nil {
		return r.Policy
	}
	return PreferNonEmpty
}

// Rules returns a copy of the suggestion rules.
func (p *Policies) Rules() []Rule {
	return slices.Clone(p.rules)
}

// Suggest proposes a value for a conflicting field.
func (p *Policies) Suggest(field string, left, right any) Suggestion {
	return Apply(p.PolicyFor(field), left, right)
}
