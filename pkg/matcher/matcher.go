// Package matcher pairs findings across two collections.
//
// Every left/right pair is scored, the pairs are ranked by score and the
// best-scoring unused pairs at or above the threshold are accepted
// greedily. Ties break on the lower left ID, then the lower right ID, so
// the same inputs always yield the same matches.
package matcher

import (
	"cmp"
	"context"
	"slices"

	"github.com/sourcegraph/conc/iter"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Scorer scores a pair of findings in [0,1].
type Scorer interface {
	Score(left, right findings.Finding) float64
}

// Result is the outcome of one matching pass.
type Result struct {
	Matches        []*Match
	UnmatchedLeft  []findings.Finding
	UnmatchedRight []findings.Finding
	Candidates     []Candidate // every scored pair, ranked
}

type options struct {
	pass        int
	concurrency int
}

// Option configures a matching pass.
type Option func(*options)

// WithPass tags produced matches with an orphan pass number.
func WithPass(pass int) Option {
	return func(o *options) {
		o.pass = pass
	}
}

// WithConcurrency bounds the scoring goroutines. Zero uses GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// Pair runs one greedy matching pass. Matches are returned pending, in
// rank order; unmatched findings keep their input order.
func Pair(ctx context.Context, left, right []findings.Finding, scorer Scorer, threshold float64, opts ...Option) (*Result, error) {
	if err := checkThreshold("threshold", threshold); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	ranked, err := score(ctx, left, right, scorer, o.concurrency)
	if err != nil {
		return nil, err
	}

	usedLeft := make([]bool, len(left))
	usedRight := make([]bool, len(right))
	result := &Result{Candidates: ranked}
	for _, c := range ranked {
		if c.Score < threshold {
			break
		}
		if usedLeft[c.LeftIndex] || usedRight[c.RightIndex] {
			continue
		}
		usedLeft[c.LeftIndex] = true
		usedRight[c.RightIndex] = true
		result.Matches = append(result.Matches, &Match{
			Left:   left[c.LeftIndex],
			Right:  right[c.RightIndex],
			Score:  c.Score,
			Status: StatusPending,
			Pass:   o.pass,
			Rank:   len(result.Matches),
		})
	}

	for i, f := range left {
		if !usedLeft[i] {
			result.UnmatchedLeft = append(result.UnmatchedLeft, f)
		}
	}
	for j, f := range right {
		if !usedRight[j] {
			result.UnmatchedRight = append(result.UnmatchedRight, f)
		}
	}
	return result, nil
}

// Candidates returns every pair scoring at or above floor, ranked.
func Candidates(ctx context.Context, left, right []findings.Finding, scorer Scorer, floor float64) ([]Candidate, error) {
	if err := checkThreshold("floor", floor); err != nil {
		return nil, err
	}
	ranked, err := score(ctx, left, right, scorer, 0)
	if err != nil {
		return nil, err
	}
	cut := slices.IndexFunc(ranked, func(c Candidate) bool { return c.Score < floor })
	if cut >= 0 {
		ranked = ranked[:cut]
	}
	return ranked, nil
}

// score evaluates all pairs in parallel and ranks them.
func score(ctx context.Context, left, right []findings.Finding, scorer Scorer, concurrency int) ([]Candidate, error) {
	if scorer == nil {
		return nil, errors.NewValidationError("scorer", nil, "cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := make([]Candidate, 0, len(left)*len(right))
	for i := range left {
		for j := range right {
			pairs = append(pairs, Candidate{
				LeftID:     left[i].ID,
				RightID:    right[j].ID,
				LeftIndex:  i,
				RightIndex: j,
			})
		}
	}

	mapper := iter.Mapper[Candidate, float64]{MaxGoroutines: concurrency}
	scores := mapper.Map(pairs, func(c *Candidate) float64 {
		if ctx.Err() != nil {
			return 0
		}
		return scorer.Score(left[c.LeftIndex], right[c.RightIndex])
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for k := range pairs {
		pairs[k].Score = scores[k]
	}

	slices.SortFunc(pairs, compareCandidates)
	return pairs, nil
}

// compareCandidates orders by score descending, then left ID, then right ID.
func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := a.LeftID.Compare(b.LeftID); c != 0 {
		return c
	}
	if c := a.RightID.Compare(b.RightID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LeftIndex, b.LeftIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.RightIndex, b.RightIndex)
}

func checkThreshold(field string, v float64) error {
	if v < 0 || v > 1 {
		return errors.NewValidationError(field, v, "must be within [0,1]")
	}
	return nil
}
