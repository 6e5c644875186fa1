package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/similarity"
)

// tableScorer returns fixed scores keyed by "left/right".
type tableScorer map[string]float64

func (s tableScorer) Score(left, right findings.Finding) float64 {
	return s[left.ID.String()+"/"+right.ID.String()]
}

func ids(list []findings.Finding) []findings.ID {
	out := make([]findings.ID, len(list))
	for i, f := range list {
		out[i] = f.ID
	}
	return out
}

func side(idList ...string) []findings.Finding {
	out := make([]findings.Finding, len(idList))
	for i, id := range idList {
		out[i] = findings.Finding{ID: findings.ID(id)}
	}
	return out
}

func pairs(result *Result) []string {
	out := make([]string, len(result.Matches))
	for i, m := range result.Matches {
		out[i] = m.Ref()
	}
	return out
}

func TestPairGreedy(t *testing.T) {
	scorer := tableScorer{
		"1/a": 0.9, "1/b": 0.95,
		"2/a": 0.8, "2/b": 0.7,
		"3/c": 0.5,
	}
	result, err := Pair(context.Background(), side("1", "2", "3"), side("a", "b", "c"), scorer, 0.6)
	require.NoError(t, err)

	assert.Equal(t, []string{"L1/Rb", "L2/Ra"}, pairs(result))
	assert.Equal(t, []findings.ID{"3"}, ids(result.UnmatchedLeft))
	assert.Equal(t, []findings.ID{"c"}, ids(result.UnmatchedRight))
	assert.Len(t, result.Candidates, 9)

	for i, m := range result.Matches {
		assert.Equal(t, StatusPending, m.Status)
		assert.Equal(t, i, m.Rank)
		assert.False(t, m.Manual)
	}
}

func TestPairTieBreak(t *testing.T) {
	scorer := tableScorer{"10/x": 0.7, "2/x": 0.7, "2/y": 0.7}
	result, err := Pair(context.Background(), side("10", "2"), side("y", "x"), scorer, 0.6)
	require.NoError(t, err)

	// 2 sorts before 10 numerically and x before y lexically.
	assert.Equal(t, []string{"L2/Rx"}, pairs(result))
	assert.Equal(t, []findings.ID{"10"}, ids(result.UnmatchedLeft))
	assert.Equal(t, []findings.ID{"y"}, ids(result.UnmatchedRight))
}

func TestPairThresholdInclusive(t *testing.T) {
	scorer := tableScorer{"1/a": 0.6}
	result, err := Pair(context.Background(), side("1"), side("a"), scorer, 0.6)
	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)

	result, err = Pair(context.Background(), side("1"), side("a"), scorer, 0.61)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestPairDeterministic(t *testing.T) {
	left := []findings.Finding{
		{ID: "1", Title: "SQL Injection in Login", FindingType: "Injection"},
		{ID: "2", Title: "Reflected XSS in search", FindingType: "XSS"},
		{ID: "3", Title: "Missing HSTS header", FindingType: "Config"},
	}
	right := []findings.Finding{
		{ID: "7", Title: "Cross site scripting in search", FindingType: "XSS"},
		{ID: "8", Title: "SQL Injection - Login Form", FindingType: "Injection"},
		{ID: "9", Title: "Verbose server banner", FindingType: "Config"},
	}
	scorer := similarity.NewDefault()

	first, err := Pair(context.Background(), left, right, scorer, 0.6, WithConcurrency(4))
	require.NoError(t, err)
	for range 5 {
		again, err := Pair(context.Background(), left, right, scorer, 0.6, WithConcurrency(1))
		require.NoError(t, err)
		assert.Equal(t, pairs(first), pairs(again))
	}
	assert.Contains(t, pairs(first), "L1/R8")

	seenLeft := map[findings.ID]bool{}
	seenRight := map[findings.ID]bool{}
	for _, m := range first.Matches {
		assert.False(t, seenLeft[m.Left.ID])
		assert.False(t, seenRight[m.Right.ID])
		seenLeft[m.Left.ID] = true
		seenRight[m.Right.ID] = true
	}
	assert.Equal(t, len(left), len(first.Matches)+len(first.UnmatchedLeft))
	assert.Equal(t, len(right), len(first.Matches)+len(first.UnmatchedRight))
}

func TestPairPassOption(t *testing.T) {
	result, err := Pair(context.Background(), side("1"), side("a"), tableScorer{"1/a": 1}, 0.5, WithPass(2))
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 2, result.Matches[0].Pass)
}

func TestPairEmptySides(t *testing.T) {
	result, err := Pair(context.Background(), nil, side("a"), tableScorer{}, 0.6)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Equal(t, []findings.ID{"a"}, ids(result.UnmatchedRight))
}

func TestPairErrors(t *testing.T) {
	_, err := Pair(context.Background(), nil, nil, tableScorer{}, 1.2)
	assert.True(t, errors.IsValidationError(err))

	_, err = Pair(context.Background(), nil, nil, nil, 0.5)
	assert.True(t, errors.IsValidationError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Pair(ctx, side("1"), side("a"), tableScorer{}, 0.5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCandidates(t *testing.T) {
	scorer := tableScorer{"1/a": 0.3, "1/b": 0.9, "2/a": 0.1}
	got, err := Candidates(context.Background(), side("1", "2"), side("a", "b"), scorer, 0.2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, findings.ID("b"), got[0].RightID)
	assert.Equal(t, 0.3, got[1].Score)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "accepted", StatusAccepted.String())
	text, err := StatusRejected.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "rejected", string(text))
}
