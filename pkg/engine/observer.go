package engine

import (
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/matcher"
	"github.com/agentstation/ghostmerge/pkg/renumber"
	"github.com/agentstation/ghostmerge/pkg/resolver"
)

// Observer is notified as a run progresses. Calls happen on the run's
// goroutine and block it.
type Observer interface {
	// MatchResolved is called after each match verdict and resolution
	MatchResolved(m *matcher.Match, res *resolver.Result)

	// OrphanPass is called when an orphan pass starts
	OrphanPass(pass int, pools decision.Pools)

	// RecordEmitted is called for each record once it has output IDs
	RecordEmitted(rec *findings.Record, a renumber.Assignment)
}

// NopObserver ignores every event.
type NopObserver struct{}

// MatchResolved implements Observer.
func (NopObserver) MatchResolved(*matcher.Match, *resolver.Result) {}

// OrphanPass implements Observer.
func (NopObserver) OrphanPass(int, decision.Pools) {}

// RecordEmitted implements Observer.
func (NopObserver) RecordEmitted(*findings.Record, renumber.Assignment) {}
