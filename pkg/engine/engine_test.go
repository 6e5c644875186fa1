package engine

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/constants"
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/logging"
	"github.com/agentstation/ghostmerge/pkg/matcher"
	"github.com/agentstation/ghostmerge/pkg/renumber"
	"github.com/agentstation/ghostmerge/pkg/resolver"
	"github.com/agentstation/ghostmerge/pkg/sensitivity"
)

// stubSource answers like Automated unless told otherwise.
type stubSource struct {
	*decision.Automated
	matchErr      error
	skip          bool
	pairings      []*decision.Pairing
	repeatPairing bool
}

func newStub(orphanPasses int) *stubSource {
	a := decision.DefaultAutomated()
	a.OrphanPasses = orphanPasses
	return &stubSource{Automated: a}
}

func (s *stubSource) DecideMatch(ctx context.Context, m *matcher.Match) (decision.MatchDecision, error) {
	if s.matchErr != nil {
		return decision.MatchDecision{}, s.matchErr
	}
	return s.Automated.DecideMatch(ctx, m)
}

func (s *stubSource) DecideField(ctx context.Context, m *matcher.Match, c decision.FieldConflict) (decision.FieldDecision, error) {
	if s.skip {
		return decision.FieldDecision{Action: decision.SkipRecord}, nil
	}
	return s.Automated.DecideField(ctx, m, c)
}

func (s *stubSource) DecidePairing(context.Context, decision.Pools) (*decision.Pairing, error) {
	if len(s.pairings) == 0 {
		return nil, nil
	}
	p := s.pairings[0]
	if !s.repeatPairing {
		s.pairings = s.pairings[1:]
	}
	return p, nil
}

func fixtures() (left, right []findings.Finding) {
	left = []findings.Finding{
		{
			ID:          "1",
			Severity:    findings.SeverityHigh,
			FindingType: "Injection",
			Title:       "SQL Injection in login form",
			Description: "The login form is vulnerable to SQL injection via the username parameter.",
			Tags:        []string{"web", "sqli"},
		},
		{
			ID:          "2",
			Severity:    findings.SeverityMedium,
			FindingType: "XSS",
			Title:       "Reflected XSS",
		},
	}
	right = []findings.Finding{
		{
			ID:          "a",
			Severity:    findings.SeverityCritical,
			FindingType: "Injection",
			Title:       "SQL injection in the login form",
			Description: "Login form username parameter vulnerable to SQL injection.",
			Tags:        []string{"owasp"},
		},
		{
			ID:          "b",
			Severity:    findings.SeverityLow,
			FindingType: "Cryptography",
			Title:       "Weak TLS ciphers",
			Description: "Contact ACME Corp to rotate certificates.",
		},
	}
	return left, right
}

func newEngine(t *testing.T, cfg Config, source decision.Source, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, source, opts...)
	require.NoError(t, err)
	return e
}

func TestRunAutomated(t *testing.T) {
	left, right := fixtures()
	e := newEngine(t, DefaultConfig(), decision.DefaultAutomated())

	result, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.Merged)
	assert.Equal(t, 1, result.Stats.LeftOnly)
	assert.Equal(t, 1, result.Stats.RightOnly)
	assert.Equal(t, 1, result.Stats.Passes)

	require.Len(t, result.Left(), 2)
	require.Len(t, result.Right(), 2)

	merged := result.Left()[0]
	assert.Equal(t, findings.ID("1"), merged.ID)
	assert.Equal(t, findings.SeverityCritical, merged.Severity)
	assert.Equal(t, "SQL injection in the login form", merged.Title)
	assert.Equal(t, left[0].Description, merged.Description)
	assert.ElementsMatch(t, []string{"owasp", "sqli", "web"}, merged.Tags)
	assert.Equal(t, "merged", merged.ExtraFields[constants.ExtraMergeOrigin])
	assert.Equal(t, int64(2), merged.ExtraFields[constants.ExtraPairedOutputID])
	assert.Equal(t, findings.ID("2"), result.Right()[0].ID)

	leftOnly := result.Left()[1]
	assert.Equal(t, findings.ID("3"), leftOnly.ID)
	assert.Equal(t, int64(2), leftOnly.ExtraFields[constants.ExtraSourceIDLeft])
	assert.Equal(t, renumber.ReasonUnchanged, leftOnly.ExtraFields[constants.ExtraMergeReason])

	rightOnly := result.Right()[1]
	assert.Equal(t, findings.ID("4"), rightOnly.ID)
	assert.Equal(t, "b", rightOnly.ExtraFields[constants.ExtraSourceIDRight])

	// inputs are untouched
	assert.Equal(t, findings.SeverityHigh, left[0].Severity)
	assert.Nil(t, left[0].ExtraFields)

	resolved := result.Audit.ByOutputID("1")
	require.NotEmpty(t, resolved)
	fields := map[string]audit.Kind{}
	for _, e := range resolved {
		if e.Field != "" {
			fields[e.Field] = e.Kind
		}
	}
	assert.Equal(t, audit.KindFieldResolved, fields[findings.FieldSeverity])
	assert.Equal(t, audit.KindFieldAutoMerged, fields[findings.FieldTags])
	assert.Len(t, result.Audit.ByKind(audit.KindRecordEmitted), 3)
	assert.Len(t, result.Audit.ByKind(audit.KindMatchAccepted), 1)
	assert.NotEmpty(t, result.Metadata.RunID)
	assert.Contains(t, result.Summary(), "1 merged, 1 left-only, 1 right-only")
}

func TestRunRejectionRoundTrip(t *testing.T) {
	left, right := fixtures()
	// reject everything on the first pass, accept anything matched later
	source := decision.NewAutomated(1.01, 0)
	e := newEngine(t, DefaultConfig(), source)

	result, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.Rejected)
	assert.Equal(t, 1, result.Stats.Merged)
	require.Len(t, result.Records, 3)
	assert.Equal(t, 1, result.Records[0].Pass)

	rejected := result.Audit.ByKind(audit.KindMatchRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, findings.ID("1"), rejected[0].LeftID)
	assert.Equal(t, findings.ID("a"), rejected[0].RightID)
	assert.Equal(t, 0, rejected[0].Pass)
}

func TestRunRejectedStaysUnchanged(t *testing.T) {
	left, right := fixtures()
	source := decision.NewAutomated(1.01, 1.01)
	e := newEngine(t, DefaultConfig(), source)

	result, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Stats.Merged)
	assert.Equal(t, 2, result.Stats.Rejected)
	assert.Equal(t, 2, result.Stats.LeftOnly)
	assert.Equal(t, 2, result.Stats.RightOnly)

	for _, rec := range result.Records {
		orig := rec.Original(findings.Left)
		if orig == nil {
			orig = rec.Original(findings.Right)
		}
		if diff := cmp.Diff(*orig, rec.Finding); diff != "" {
			t.Errorf("rejected finding changed (-orig +record):\n%s", diff)
		}
	}
}

func TestRunSkipRecord(t *testing.T) {
	left, right := fixtures()
	source := newStub(0)
	source.skip = true
	e := newEngine(t, DefaultConfig(), source)

	result, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Stats.Merged)
	assert.Equal(t, 1, result.Stats.Skipped)
	assert.Equal(t, 2, result.Stats.LeftOnly)
	assert.Equal(t, 2, result.Stats.RightOnly)
	assert.Len(t, result.Audit.ByKind(audit.KindRecordSkipped), 1)
	assert.Empty(t, result.Audit.ByKind(audit.KindFieldResolved))
}

func TestRunManualPairing(t *testing.T) {
	left, right := fixtures()
	source := newStub(1)
	source.pairings = []*decision.Pairing{
		{LeftID: "99", RightID: "b"},
		{LeftID: "2", RightID: "b"},
	}
	e := newEngine(t, DefaultConfig(), source)

	result, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.Merged)
	assert.Equal(t, 1, result.Stats.Pairings)
	assert.Equal(t, 1, result.Stats.ContractViolations)
	assert.Equal(t, 0, result.Stats.LeftOnly)
	assert.Equal(t, 0, result.Stats.RightOnly)

	require.Len(t, result.Records, 2)
	paired := result.Records[1]
	assert.True(t, paired.Manual)
	assert.Equal(t, 1, paired.Pass)
	assert.Equal(t, findings.ID("2"), paired.Left.ID)

	pairings := result.Audit.ByKind(audit.KindPairing)
	require.Len(t, pairings, 1)
	assert.True(t, pairings[0].Manual)
	violations := result.Audit.ByKind(audit.KindContractViolation)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "left 99")
}

func TestRunPairingExhausted(t *testing.T) {
	left, right := fixtures()
	source := newStub(1)
	source.pairings = []*decision.Pairing{{LeftID: "2", RightID: "zz"}}
	source.repeatPairing = true
	cfg := DefaultConfig()
	cfg.MaxDecisionAttempts = 2
	e := newEngine(t, cfg, source)

	result, err := e.Run(context.Background(), left, right)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsContractViolation(err))

	var ce *errors.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Attempts)
}

func TestRunAbort(t *testing.T) {
	left, right := fixtures()
	source := newStub(0)
	source.matchErr = decision.ErrAborted
	e := newEngine(t, DefaultConfig(), source)

	result, err := e.Run(context.Background(), left, right)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsAborted(err))
}

func TestRunCanceled(t *testing.T) {
	left, right := fixtures()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t, DefaultConfig(), decision.DefaultAutomated())

	_, err := e.Run(ctx, left, right)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunDuplicateIDs(t *testing.T) {
	left, right := fixtures()
	left[1].ID = "1"
	e := newEngine(t, DefaultConfig(), decision.DefaultAutomated())

	_, err := e.Run(context.Background(), left, right)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, err.Error(), "left collection")
}

func TestRunDeterministic(t *testing.T) {
	left, right := fixtures()
	e := newEngine(t, DefaultConfig(), decision.DefaultAutomated())
	first, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	e = newEngine(t, DefaultConfig(), decision.DefaultAutomated())
	second, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Left(), second.Left()); diff != "" {
		t.Errorf("left output differs:\n%s", diff)
	}
	if diff := cmp.Diff(first.Right(), second.Right()); diff != "" {
		t.Errorf("right output differs:\n%s", diff)
	}
}

func TestRunSensitivity(t *testing.T) {
	left, right := fixtures()
	scanner, err := sensitivity.NewTermScanner([]sensitivity.Term{
		{Term: "ACME Corp", Replacement: "[CLIENT]"},
		{Term: "username"},
	})
	require.NoError(t, err)
	e := newEngine(t, DefaultConfig(), decision.DefaultAutomated(), WithScanner(scanner))

	result, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	assert.Equal(t, "Contact [CLIENT] to rotate certificates.", result.Right()[1].Description)
	assert.Equal(t, renumber.ReasonUpdated, result.Right()[1].ExtraFields[constants.ExtraMergeReason])
	assert.Equal(t, 1, result.Stats.Redactions)
	assert.Equal(t, 1, result.Stats.Flags)

	redactions := result.Audit.ByKind(audit.KindRedaction)
	require.Len(t, redactions, 1)
	assert.Equal(t, findings.ID("4"), redactions[0].OutputRightID)
	assert.Equal(t, findings.FieldDescription, redactions[0].Field)

	flags := result.Audit.ByKind(audit.KindSensitiveFlag)
	require.Len(t, flags, 1)
	assert.Equal(t, findings.ID("1"), flags[0].OutputLeftID)
}

// countingObserver records event counts.
type countingObserver struct {
	resolved []resolver.Outcome
	passes   []int
	emitted  []renumber.Assignment
}

func (o *countingObserver) MatchResolved(_ *matcher.Match, res *resolver.Result) {
	o.resolved = append(o.resolved, res.Outcome)
}

func (o *countingObserver) OrphanPass(pass int, _ decision.Pools) {
	o.passes = append(o.passes, pass)
}

func (o *countingObserver) RecordEmitted(_ *findings.Record, a renumber.Assignment) {
	o.emitted = append(o.emitted, a)
}

func TestRunObserver(t *testing.T) {
	left, right := fixtures()
	obs := &countingObserver{}
	e := newEngine(t, DefaultConfig(), decision.DefaultAutomated(), WithObserver(obs))

	_, err := e.Run(context.Background(), left, right)
	require.NoError(t, err)

	assert.Equal(t, []resolver.Outcome{resolver.OutcomeMerged}, obs.resolved)
	assert.Equal(t, []int{1}, obs.passes)
	require.Len(t, obs.emitted, 3)
	assert.Equal(t, findings.ID("1"), obs.emitted[0].LeftID)
	assert.Equal(t, findings.ID("2"), obs.emitted[0].RightID)
}

func TestRunLogsSteps(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	left, right := fixtures()
	e := newEngine(t, DefaultConfig(), decision.DefaultAutomated())

	_, err := e.Run(ctx, left, right)
	require.NoError(t, err)
	assert.True(t, tl.ContainsAll("Starting merge", "First pass matched", "Merge complete"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	require.Error(t, err)

	cfg := DefaultConfig()
	cfg.Threshold = 2
	_, err = New(cfg, decision.DefaultAutomated())
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	cfg = DefaultConfig()
	cfg.SensitivityTermsFile = "/does/not/exist.txt"
	_, err = New(cfg, decision.DefaultAutomated())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
