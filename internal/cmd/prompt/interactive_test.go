package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/matcher"
	"github.com/agentstation/ghostmerge/pkg/policy"
)

func newPrompt(input string) (*Interactive, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func testMatch() *matcher.Match {
	return &matcher.Match{
		Left:  findings.Finding{ID: "1", Title: "SQL Injection", Severity: findings.SeverityHigh, Tags: []string{"web"}},
		Right: findings.Finding{ID: "7", Title: "SQL injection", Severity: findings.SeverityCritical},
		Score: 0.82,
	}
}

func TestDecideMatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    decision.MatchAction
		wantErr error
	}{
		{name: "accept", input: "y\n", want: decision.Accept},
		{name: "reject", input: "no\n", want: decision.Reject},
		{name: "retry on junk", input: "maybe\nY\n", want: decision.Accept},
		{name: "quit", input: "q\n", wantErr: errors.ErrAborted},
		{name: "eof", input: "", wantErr: errors.ErrAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newPrompt(tt.input)
			got, err := p.DecideMatch(context.Background(), testMatch())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Action)
			assert.Contains(t, out.String(), "L1/R7")
			assert.Contains(t, out.String(), "SQL Injection")
		})
	}
}

func TestDecideMatchShowsDifferingFields(t *testing.T) {
	p, out := newPrompt("y\n")
	_, err := p.DecideMatch(context.Background(), testMatch())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "tags")
	assert.NotContains(t, out.String(), "cvss_vector")
}

func TestDecideField(t *testing.T) {
	conflict := decision.FieldConflict{
		Field:      findings.FieldSeverity,
		Left:       findings.SeverityHigh,
		Right:      findings.SeverityCritical,
		Suggestion: policy.Suggestion{Value: findings.SeverityCritical, Reason: "higher severity"},
		Attempt:    1,
	}

	tests := []struct {
		name  string
		input string
		want  decision.FieldDecision
	}{
		{name: "left", input: "l\n", want: decision.FieldDecision{Action: decision.UseLeft}},
		{name: "right", input: "right\n", want: decision.FieldDecision{Action: decision.UseRight}},
		{name: "suggested", input: "s\n", want: decision.FieldDecision{Action: decision.UseSuggestion}},
		{name: "skip", input: "k\n", want: decision.FieldDecision{Action: decision.SkipRecord}},
		{name: "manual", input: "m\nMedium\n", want: decision.FieldDecision{Action: decision.Manual, Value: "Medium"}},
		{name: "blank then left", input: "\nl\n", want: decision.FieldDecision{Action: decision.UseLeft}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newPrompt(tt.input)
			got, err := p.DecideField(context.Background(), testMatch(), conflict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "higher severity")
		})
	}
}

func TestDecideFieldManualSet(t *testing.T) {
	p, _ := newPrompt("m\nweb, sqli,,\n")
	got, err := p.DecideField(context.Background(), testMatch(), decision.FieldConflict{Field: findings.FieldTags})
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "sqli"}, got.Value)
}

func TestDecideFieldShowsProblem(t *testing.T) {
	p, out := newPrompt("q\n")
	_, err := p.DecideField(context.Background(), testMatch(), decision.FieldConflict{
		Field:   findings.FieldTitle,
		Attempt: 2,
		Problem: "field is required",
	})
	assert.ErrorIs(t, err, errors.ErrAborted)
	assert.Contains(t, out.String(), "field is required")
	assert.NotContains(t, out.String(), "[d]elete")
}

func TestDecideOrphanContinue(t *testing.T) {
	pools := decision.Pools{
		Left:  []findings.Finding{{ID: "2", Title: "Reflected XSS"}},
		Right: []findings.Finding{{ID: "9", Title: "Cross-site scripting"}},
	}

	p, out := newPrompt("y\n")
	ok, err := p.DecideOrphanContinue(context.Background(), pools)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "#2 Reflected XSS")
	assert.Contains(t, out.String(), "orphan pass 1")

	p, _ = newPrompt("\n")
	ok, err = p.DecideOrphanContinue(context.Background(), pools)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPoolLimit(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("n\n"), &out, WithPoolLimit(1))
	pools := decision.Pools{
		Left:  []findings.Finding{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		Right: []findings.Finding{{ID: "a"}},
	}
	_, err := p.DecideOrphanContinue(context.Background(), pools)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2 more")
	assert.NotContains(t, out.String(), "2 MORE")
	assert.Contains(t, out.String(), "Left")
}

func TestComparisonHeaderCase(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("y\n"), &out)
	m := &matcher.Match{
		Left:  findings.Finding{ID: "4", Title: "SQL Injection"},
		Right: findings.Finding{ID: "7", Title: "SQL injection"},
		Score: 0.9,
	}
	_, err := p.DecideMatch(context.Background(), m)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Left #4")
	assert.Contains(t, out.String(), "Right #7")
}

func TestDecidePairing(t *testing.T) {
	p, _ := newPrompt("just-one\n2 9\n")
	got, err := p.DecidePairing(context.Background(), decision.Pools{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, findings.ID("2"), got.LeftID)
	assert.Equal(t, findings.ID("9"), got.RightID)

	p, _ = newPrompt("\n")
	got, err = p.DecidePairing(context.Background(), decision.Pools{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := newPrompt("y\n")
	_, err := p.DecideMatch(ctx, testMatch())
	assert.ErrorIs(t, err, context.Canceled)
}
