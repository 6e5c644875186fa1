package decision

import (
	"context"
	"fmt"

	"github.com/agentstation/ghostmerge/pkg/constants"
	"github.com/agentstation/ghostmerge/pkg/matcher"
)

// Automated answers every query without blocking. It accepts matches at or
// above its threshold, takes every suggestion, runs a fixed number of
// orphan passes and never pairs by hand.
type Automated struct {
	AcceptThreshold float64 // first pass
	OrphanThreshold float64 // orphan passes
	OrphanPasses    int

	passes int
}

// NewAutomated creates an Automated source with one orphan pass.
func NewAutomated(acceptThreshold, orphanThreshold float64) *Automated {
	return &Automated{
		AcceptThreshold: acceptThreshold,
		OrphanThreshold: orphanThreshold,
		OrphanPasses:    1,
	}
}

// DefaultAutomated uses the standard thresholds.
func DefaultAutomated() *Automated {
	return NewAutomated(constants.DefaultThreshold, constants.DefaultOrphanThreshold)
}

// DecideMatch accepts operator pairings and matches scoring at or above
// the threshold of their pass.
func (a *Automated) DecideMatch(_ context.Context, m *matcher.Match) (MatchDecision, error) {
	if m.Manual {
		return MatchDecision{Action: Accept, Reason: "operator pairing"}, nil
	}
	threshold := a.AcceptThreshold
	if m.Pass > 0 {
		threshold = a.OrphanThreshold
	}
	if m.Score >= threshold {
		return MatchDecision{Action: Accept, Reason: fmt.Sprintf("score %.3f >= %.3f", m.Score, threshold)}, nil
	}
	return MatchDecision{Action: Reject, Reason: fmt.Sprintf("score %.3f < %.3f", m.Score, threshold)}, nil
}

// DecideField takes the suggestion. A refused suggestion falls back to the
// left value, then the right value.
func (a *Automated) DecideField(_ context.Context, _ *matcher.Match, c FieldConflict) (FieldDecision, error) {
	switch c.Attempt {
	case 0, 1:
		return FieldDecision{Action: UseSuggestion}, nil
	case 2:
		return FieldDecision{Action: UseLeft}, nil
	default:
		return FieldDecision{Action: UseRight}, nil
	}
}

// DecideOrphanContinue runs OrphanPasses passes while both pools have
// findings.
func (a *Automated) DecideOrphanContinue(_ context.Context, pools Pools) (bool, error) {
	if pools.Empty() || a.passes >= a.OrphanPasses {
		return false, nil
	}
	a.passes++
	return true, nil
}

// DecidePairing never pairs.
func (a *Automated) DecidePairing(context.Context, Pools) (*Pairing, error) {
	return nil, nil
}
