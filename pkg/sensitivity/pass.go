package sensitivity

import (
	"context"
	"slices"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/logging"
)

// Policy is what the pass does with a hit.
type Policy string

// Policies.
const (
	// PolicyReplace substitutes hits that have a replacement
	PolicyReplace Policy = "replace"
	// PolicyFlag records hits and leaves text alone
	PolicyFlag Policy = "flag"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyReplace, PolicyFlag:
		return p, nil
	}
	return "", errors.NewValidationError("sensitivity_policy", s, "expected replace or flag")
}

// DefaultFields are the fields scanned when none are configured.
func DefaultFields() []string {
	return []string{
		findings.FieldDescription,
		findings.FieldImpact,
		findings.FieldMitigation,
		findings.FieldReplicationSteps,
		findings.FieldReferences,
		findings.FieldFindingGuidance,
	}
}

// Pass scans records and applies the policy.
type Pass struct {
	scanner Scanner
	policy  Policy
	fields  []string
}

// NewPass creates a pass over fields, or DefaultFields when none are given.
// Only text fields and references can be scanned.
func NewPass(scanner Scanner, policy Policy, fields ...string) (*Pass, error) {
	if scanner == nil {
		return nil, &errors.ValidationError{Field: "scanner", Message: "cannot be nil"}
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		fields = DefaultFields()
	}
	for _, f := range fields {
		kind := findings.KindOf(f)
		if !findings.IsKnownField(f) || (kind != findings.KindText && f != findings.FieldReferences) {
			return nil, errors.NewValidationError("scan_fields", f, "only text fields and references can be scanned")
		}
	}
	return &Pass{scanner: scanner, policy: policy, fields: slices.Clone(fields)}, nil
}

// Apply scans one record in place and appends its redactions. A scan
// failure on a field is recorded on the record and leaves that field as it
// was. Only context cancellation is returned.
func (p *Pass) Apply(ctx context.Context, rec *findings.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := logging.FromContext(ctx)
	for _, field := range p.fields {
		value, _ := rec.Finding.Get(field)
		updated, redactions, err := p.scanValue(field, value, p.policy == PolicyReplace)
		if err != nil {
			scanErr := &errors.ScanError{Field: field, Err: err}
			logger.Warn().Err(scanErr).Str("id", rec.Finding.ID.String()).Msg("Sensitivity scan failed")
			rec.Redactions = append(rec.Redactions, findings.Redaction{Field: field, Error: err.Error()})
			continue
		}
		if len(redactions) == 0 {
			continue
		}
		if err := rec.Finding.Set(field, updated); err != nil {
			return errors.NewInvariantError("sensitivity", err.Error())
		}
		rec.Redactions = append(rec.Redactions, redactions...)
		logger.Debug().Str("field", field).Int("hits", len(redactions)).Msg("Sensitive terms found")
	}
	return nil
}

// Run applies the pass to every record.
func (p *Pass) Run(ctx context.Context, records []*findings.Record) error {
	for _, rec := range records {
		if err := p.Apply(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Inspect reports what the pass would find in a finding without changing it.
func (p *Pass) Inspect(f findings.Finding) []findings.Redaction {
	var out []findings.Redaction
	for _, field := range p.fields {
		value, _ := f.Get(field)
		_, redactions, err := p.scanValue(field, value, false)
		if err != nil {
			out = append(out, findings.Redaction{Field: field, Error: err.Error()})
			continue
		}
		out = append(out, redactions...)
	}
	return out
}

func (p *Pass) scanValue(field string, value any, replace bool) (any, []findings.Redaction, error) {
	switch v := value.(type) {
	case string:
		return p.scanText(field, v, replace)
	case []string:
		out := make([]string, len(v))
		var all []findings.Redaction
		for i, entry := range v {
			text, redactions, err := p.scanText(field, entry, replace)
			if err != nil {
				return nil, nil, err
			}
			out[i] = text.(string)
			all = append(all, redactions...)
		}
		return out, all, nil
	}
	return value, nil, nil
}

func (p *Pass) scanText(field, text string, replace bool) (any, []findings.Redaction, error) {
	hits, err := p.scanner.Scan(text)
	if err != nil {
		return nil, nil, err
	}
	if len(hits) == 0 {
		return text, nil, nil
	}
	redactions := make([]findings.Redaction, len(hits))
	for i, h := range hits {
		redactions[i] = findings.Redaction{
			Field:       field,
			Term:        h.Term,
			Replacement: h.Replacement,
			Start:       h.Start,
			End:         h.End,
			Applied:     replace && h.Replacement != "",
		}
	}
	if !replace {
		return text, redactions, nil
	}
	return Replace(text, hits), redactions, nil
}
