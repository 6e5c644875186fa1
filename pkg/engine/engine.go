// Package engine runs a complete merge of two finding collections.
//
// A run scores and matches the collections, resolves every match through a
// decision source, reconciles orphans until the source is done with them,
// scans the records for sensitive terms and renumbers the output. Nothing
// is returned when the decision source aborts.
package engine

import (
	"context"
	"fmt"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/logging"
	"github.com/agentstation/ghostmerge/pkg/matcher"
	"github.com/agentstation/ghostmerge/pkg/policy"
	"github.com/agentstation/ghostmerge/pkg/renumber"
	"github.com/agentstation/ghostmerge/pkg/resolver"
	"github.com/agentstation/ghostmerge/pkg/sensitivity"
	"github.com/agentstation/ghostmerge/pkg/similarity"
)

// Engine merges collections with one configuration and decision source.
// A single Engine must not run concurrently with itself.
type Engine struct {
	cfg       Config
	source    decision.Source
	scorer    *similarity.Scorer
	policies  *policy.Policies
	scanner   sensitivity.Scanner
	redactor  *sensitivity.Pass
	observer  Observer
	auditOpts []audit.Option
}

// Option configures an Engine.
type Option func(*Engine) error

// WithScanner sets the sensitivity scanner. It takes precedence over
// the configured terms file.
func WithScanner(s sensitivity.Scanner) Option {
	return func(e *Engine) error {
		if s == nil {
			return &errors.ValidationError{Field: "scanner", Message: "cannot be nil"}
		}
		e.scanner = s
		return nil
	}
}

// WithObserver receives run events.
func WithObserver(o Observer) Option {
	return func(e *Engine) error {
		if o == nil {
			return &errors.ValidationError{Field: "observer", Message: "cannot be nil"}
		}
		e.observer = o
		return nil
	}
}

// WithAuditOptions configures the audit log of each run.
func WithAuditOptions(opts ...audit.Option) Option {
	return func(e *Engine) error {
		e.auditOpts = append(e.auditOpts, opts...)
		return nil
	}
}

// New validates cfg and builds an Engine.
func New(cfg Config, source decision.Source, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, &errors.ValidationError{Field: "source", Message: "cannot be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := cfg.Scorer()
	if err != nil {
		return nil, err
	}
	policies, err := cfg.Policies()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		source:   source,
		scorer:   scorer,
		policies: policies,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.scanner == nil && cfg.SensitivityTermsFile != "" {
		terms, err := sensitivity.LoadTerms(cfg.SensitivityTermsFile)
		if err != nil {
			return nil, errors.NewConfigError("sensitivity", "cannot load terms", err)
		}
		scanner, err := sensitivity.NewTermScanner(terms)
		if err != nil {
			return nil, errors.NewConfigError("sensitivity", "cannot compile terms", err)
		}
		e.scanner = scanner
	}
	if e.scanner != nil {
		e.redactor, err = sensitivity.NewPass(e.scanner, sensitivity.Policy(cfg.SensitivityPolicy), cfg.ScanFields...)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Scorer returns the similarity scorer built from the configuration.
func (e *Engine) Scorer() *similarity.Scorer {
	return e.scorer
}

// run is the state of one merge. The pools and records are owned by it
// alone.
type run struct {
	*Engine
	log      *audit.Log
	resolver *resolver.Resolver
	logger   *zerolog.Logger
	left     []findings.Finding // unmatched left pool
	right    []findings.Finding // unmatched right pool
	records  []*findings.Record
	stats    Stats
	pass     int
	start    utc.Time
}

// Run merges left and right. Inputs are not modified.
func (e *Engine) Run(ctx context.Context, left, right []findings.Finding) (*Result, error) {
	// Step 1: Initialize run state and validate inputs
	r, err := e.initialize(ctx, left, right)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRunID(ctx, r.log.RunID())
	r.logger = logging.FromContext(ctx)
	r.logger.Info().
		Int("left", len(left)).
		Int("right", len(right)).
		Str("config", e.cfg.String()).
		Msg("Starting merge")

	// Step 2: First matching pass
	if err := r.firstPass(ctx); err != nil {
		return nil, err
	}

	// Step 3: Orphan reconciliation
	if err := r.reconcileOrphans(ctx); err != nil {
		return nil, err
	}

	// Step 4: Carry unmatched findings forward
	r.carryOrphans()

	// Step 5: Sensitivity pass
	if err := r.scan(ctx); err != nil {
		return nil, err
	}

	// Step 6: Renumber and audit against output IDs
	out := renumber.Renumber(r.records, e.cfg.IDStart)
	r.auditOutput(out)

	result := r.result(out)
	r.logger.Info().
		Int("merged", result.Stats.Merged).
		Int("left_only", result.Stats.LeftOnly).
		Int("right_only", result.Stats.RightOnly).
		Int("rejected", result.Stats.Rejected).
		Int("passes", result.Stats.Passes).
		Msg("Merge complete")
	return result, nil
}

// initialize validates the inputs and sets up the run.
func (e *Engine) initialize(ctx context.Context, left, right []findings.Finding) (*run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := findings.CheckUniqueIDs(left); err != nil {
		return nil, fmt.Errorf("left collection: %w", err)
	}
	if err := findings.CheckUniqueIDs(right); err != nil {
		return nil, fmt.Errorf("right collection: %w", err)
	}

	log := audit.New(e.auditOpts...)
	res, err := resolver.New(e.source,
		resolver.WithPolicies(e.policies),
		resolver.WithAudit(log),
		resolver.WithMaxAttempts(e.cfg.MaxDecisionAttempts),
	)
	if err != nil {
		return nil, err
	}
	return &run{
		Engine:   e,
		log:      log,
		resolver: res,
		left:     cloneAll(left),
		right:    cloneAll(right),
		start:    utc.Now(),
	}, nil
}

// firstPass matches the full collections at the main threshold.
func (r *run) firstPass(ctx context.Context) error {
	res, err := matcher.Pair(ctx, r.left, r.right, r.scorer, r.cfg.Threshold,
		matcher.WithConcurrency(r.cfg.Concurrency))
	if err != nil {
		return err
	}
	r.logger.Info().
		Int("matches", len(res.Matches)).
		Int("unmatched_left", len(res.UnmatchedLeft)).
		Int("unmatched_right", len(res.UnmatchedRight)).
		Msg("First pass matched")

	r.left, r.right = res.UnmatchedLeft, res.UnmatchedRight
	return r.resolveAll(ctx, res.Matches)
}

// resolveAll resolves matches in rank order. Rejected and skipped matches
// return their findings to the pools.
func (r *run) resolveAll(ctx context.Context, matches []*matcher.Match) error {
	for _, m := range matches {
		res, err := r.resolver.Resolve(ctx, m)
		if err != nil {
			return err
		}
		r.observer.MatchResolved(m, res)
		switch res.Outcome {
		case resolver.OutcomeMerged:
			r.records = append(r.records, res.Record)
			r.stats.Merged++
		case resolver.OutcomeRejected:
			r.stats.Rejected++
			r.requeue(m)
		case resolver.OutcomeSkipped:
			r.stats.Skipped++
			r.requeue(m)
		}
	}
	findings.SortByID(r.left)
	findings.SortByID(r.right)
	return nil
}

func (r *run) requeue(m *matcher.Match) {
	r.left = append(r.left, m.Left)
	r.right = append(r.right, m.Right)
}

// carryOrphans turns whatever is left in the pools into one-sided records.
func (r *run) carryOrphans() {
	for _, f := range r.left {
		r.records = append(r.records, findings.NewOrphanRecord(f, findings.Left))
		r.stats.LeftOnly++
	}
	for _, f := range r.right {
		r.records = append(r.records, findings.NewOrphanRecord(f, findings.Right))
		r.stats.RightOnly++
	}
	r.left, r.right = nil, nil
}

// scan runs the sensitivity pass when a scanner is configured.
func (r *run) scan(ctx context.Context) error {
	if r.redactor == nil {
		return nil
	}
	if err := r.redactor.Run(ctx, r.records); err != nil {
		return err
	}
	r.logger.Info().Int("records", len(r.records)).Msg("Sensitivity pass complete")
	return nil
}

// auditOutput records resolutions and redactions under output IDs.
func (r *run) auditOutput(out *renumber.Output) {
	for _, a := range out.Assignments {
		rec := a.Record
		base := audit.Entry{
			Pass:          rec.Pass,
			OutputLeftID:  a.LeftID,
			OutputRightID: a.RightID,
			Score:         rec.Score,
			Manual:        rec.Manual,
		}
		if id, ok := rec.LeftID(); ok {
			base.LeftID = id
		}
		if id, ok := rec.RightID(); ok {
			base.RightID = id
		}

		for _, res := range rec.Resolutions {
			e := base
			e.Kind = audit.KindFieldResolved
			if res.Source == findings.SourceAutoMerged {
				e.Kind = audit.KindFieldAutoMerged
			}
			e.Field = res.Field
			e.Source = string(res.Source)
			e.Value = res.Value
			e.Message = res.Reason
			r.log.Record(e)
		}
		for _, red := range rec.Redactions {
			e := base
			e.Field = red.Field
			switch {
			case red.Error != "":
				e.Kind = audit.KindScanError
				e.Message = red.Error
				r.stats.ScanErrors++
			case red.Applied:
				e.Kind = audit.KindRedaction
				e.Value = red.Replacement
				e.Message = fmt.Sprintf("%q at %d-%d", red.Term, red.Start, red.End)
				r.stats.Redactions++
			default:
				e.Kind = audit.KindSensitiveFlag
				e.Message = fmt.Sprintf("%q at %d-%d", red.Term, red.Start, red.End)
				r.stats.Flags++
			}
			r.log.Record(e)
		}

		e := base
		e.Kind = audit.KindRecordEmitted
		e.Source = string(rec.Origin)
		r.log.Record(e)
		r.observer.RecordEmitted(rec, a)
	}
}

func cloneAll(list []findings.Finding) []findings.Finding {
	out := make([]findings.Finding, len(list))
	for i, f := range list {
		out[i] = f.Clone()
	}
	return out
}
