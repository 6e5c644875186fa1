// Package resolver turns a pending match into a merged record.
//
// For each match the decision source first accepts or rejects the pair.
// An accepted pair is diffed field by field: low-risk fields merge on their
// own, every other conflict is put to the decision source. A decision that
// breaks the field contract is refused and asked again, up to a limit.
// Skipping the record discards every decision made for it.
package resolver

import (
	"context"
	"fmt"

	"github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/differ"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/logging"
	"github.com/agentstation/ghostmerge/pkg/matcher"
)

// Outcome is what happened to a match.
type Outcome int

// Match outcomes.
const (
	OutcomeMerged Outcome = iota
	OutcomeRejected
	OutcomeSkipped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeMerged:
		return "merged"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSkipped:
		return "skipped"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the resolution of one match. Record is set only when merged.
type Result struct {
	Outcome Outcome
	Record  *findings.Record
	Reason  string
}

// Resolver runs the per-match state machine. It is not safe for
// concurrent use; acceptance order is tracked across calls.
type Resolver struct {
	source decision.Source
	opts   *options
	seq    int
}

// New creates a Resolver that asks source for decisions.
func New(source decision.Source, opts ...Option) (*Resolver, error) {
	if source == nil {
		return nil, &errors.ValidationError{Field: "source", Message: "cannot be nil"}
	}
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Resolver{source: source, opts: o}, nil
}

// Accepted returns how many matches have been merged so far.
func (r *Resolver) Accepted() int {
	return r.seq
}

// Resolve decides one pending match. The match status is updated in place.
// Decision source failures and exhausted contract retries are returned as
// errors and abort the run.
func (r *Resolver) Resolve(ctx context.Context, m *matcher.Match) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = logging.WithMatch(ctx, m.Left.ID.String(), m.Right.ID.String())
	logger := logging.FromContext(ctx)

	verdict, err := r.source.DecideMatch(ctx, m)
	if err != nil {
		return nil, errors.NewDecisionError("match", m.Ref(), err)
	}
	logger.Debug().
		Float64("score", m.Score).
		Bool("manual", m.Manual).
		Str("verdict", verdict.Action.String()).
		Msg("Match decided")

	if verdict.Action == decision.Reject {
		m.Status = matcher.StatusRejected
		r.record(m, audit.Entry{Kind: audit.KindMatchRejected, Message: verdict.Reason})
		return &Result{Outcome: OutcomeRejected, Reason: verdict.Reason}, nil
	}

	merged := m.Left.Clone()
	var resolutions []findings.Resolution
	for _, c := range r.opts.differ.Diff(m.Left, m.Right) {
		if r.opts.policies.IsLowRisk(c.Field) {
			res, err := r.autoMerge(&merged, c)
			if err != nil {
				return nil, err
			}
			resolutions = append(resolutions, res)
			continue
		}

		res, skip, err := r.decideField(ctx, m, &merged, c)
		if err != nil {
			return nil, err
		}
		if skip {
			m.Status = matcher.StatusRejected
			r.record(m, audit.Entry{Kind: audit.KindRecordSkipped, Field: c.Field, Message: "skipped by operator"})
			logger.Info().Str("field", c.Field).Msg("Record skipped")
			return &Result{Outcome: OutcomeSkipped, Reason: "skipped at " + c.Field}, nil
		}
		resolutions = append(resolutions, res)
	}

	m.Status = matcher.StatusAccepted
	r.seq++
	left, right := m.Left.Clone(), m.Right.Clone()
	rec := &findings.Record{
		Finding:     merged,
		Origin:      findings.OriginMerged,
		Left:        &left,
		Right:       &right,
		Score:       m.Score,
		Pass:        m.Pass,
		Sequence:    r.seq,
		Manual:      m.Manual,
		Resolutions: resolutions,
	}
	r.record(m, audit.Entry{Kind: audit.KindMatchAccepted, Message: verdict.Reason})
	logger.Debug().Int("sequence", r.seq).Int("resolutions", len(resolutions)).Msg("Match merged")
	return &Result{Outcome: OutcomeMerged, Record: rec, Reason: verdict.Reason}, nil
}

// autoMerge resolves a low-risk conflict: sets are unioned, anything else
// takes the suggestion.
func (r *Resolver) autoMerge(merged *findings.Finding, c differ.Conflict) (findings.Resolution, error) {
	suggestion := r.opts.policies.Suggest(c.Field, c.Left, c.Right)
	value := suggestion.Value
	if c.Kind == findings.KindSet {
		left, _ := c.Left.([]string)
		right, _ := c.Right.([]string)
		value = findings.Union(left, right)
	}
	if err := merged.Set(c.Field, value); err != nil {
		return findings.Resolution{}, errors.NewInvariantError("resolver", fmt.Sprintf("auto-merge of %s: %v", c.Field, err))
	}
	stored, _ := merged.Get(c.Field)
	return findings.Resolution{
		Field:      c.Field,
		Source:     findings.SourceAutoMerged,
		Value:      stored,
		Left:       c.Left,
		Right:      c.Right,
		Suggestion: suggestion.Value,
		Reason:     "low-risk field merged automatically",
	}, nil
}

// decideField asks for a field decision until one satisfies the contract.
func (r *Resolver) decideField(ctx context.Context, m *matcher.Match, merged *findings.Finding, c differ.Conflict) (findings.Resolution, bool, error) {
	logger := logging.FromContext(ctx)
	suggestion := r.opts.policies.Suggest(c.Field, c.Left, c.Right)
	required := r.opts.policies.IsRequired(c.Field)

	var problem string
	var last decision.FieldAction
	for attempt := 1; attempt <= r.opts.maxAttempts; attempt++ {
		query := decision.FieldConflict{
			Field:      c.Field,
			Left:       c.Left,
			Right:      c.Right,
			Suggestion: suggestion,
			Optional:   !required,
			Attempt:    attempt,
			Problem:    problem,
		}
		d, err := r.source.DecideField(ctx, m, query)
		if err != nil {
			return findings.Resolution{}, false, errors.NewDecisionError("field", m.Ref()+":"+c.Field, err)
		}
		last = d.Action

		var value any
		var source findings.ResolutionSource
		switch d.Action {
		case decision.SkipRecord:
			return findings.Resolution{}, true, nil
		case decision.UseLeft:
			value, source = c.Left, findings.SourceLeft
		case decision.UseRight:
			value, source = c.Right, findings.SourceRight
		case decision.UseSuggestion:
			value, source = suggestion.Value, findings.SourceAutoSuggested
		case decision.Manual:
			value, source = d.Value, findings.SourceManual
		case decision.Remove:
			value, source = nil, findings.SourceRemoved
		default:
			problem = fmt.Sprintf("unknown action %s", d.Action)
			r.violation(ctx, m, c.Field, d.Action, problem)
			continue
		}

		if required && findings.IsEmpty(value) {
			problem = "field is required"
			r.violation(ctx, m, c.Field, d.Action, problem)
			continue
		}
		if err := merged.Set(c.Field, value); err != nil {
			problem = err.Error()
			r.violation(ctx, m, c.Field, d.Action, problem)
			continue
		}

		stored, _ := merged.Get(c.Field)
		logger.Debug().
			Str("field", c.Field).
			Str("action", d.Action.String()).
			Int("attempt", attempt).
			Msg("Field resolved")
		return findings.Resolution{
			Field:      c.Field,
			Source:     source,
			Value:      stored,
			Left:       c.Left,
			Right:      c.Right,
			Suggestion: suggestion.Value,
			Reason:     suggestion.Reason,
		}, false, nil
	}

	ce := errors.NewContractError(c.Field, last.String(), problem)
	ce.Attempts = r.opts.maxAttempts
	return findings.Resolution{}, false, ce
}

func (r *Resolver) violation(ctx context.Context, m *matcher.Match, field string, action decision.FieldAction, problem string) {
	logging.FromContext(ctx).Warn().
		Str("field", field).
		Str("action", action.String()).
		Str("problem", problem).
		Msg("Decision refused")
	r.record(m, audit.Entry{
		Kind:    audit.KindContractViolation,
		Field:   field,
		Source:  action.String(),
		Message: problem,
	})
}

func (r *Resolver) record(m *matcher.Match, e audit.Entry) {
	if r.opts.audit == nil {
		return
	}
	e.LeftID = m.Left.ID
	e.RightID = m.Right.ID
	e.Score = m.Score
	e.Pass = m.Pass
	e.Manual = m.Manual
	r.opts.audit.Record(e)
}
