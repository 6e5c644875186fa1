package ghostmerge

import (
	"sync"

	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/matcher"
	"github.com/agentstation/ghostmerge/pkg/renumber"
	"github.com/agentstation/ghostmerge/pkg/resolver"
)

// Hook function types for merge events
type (
	// MatchAcceptedHook is called when a match becomes a merged record
	MatchAcceptedHook func(rec *findings.Record)

	// MatchRejectedHook is called when a match is rejected or skipped
	MatchRejectedHook func(m *matcher.Match, reason string)

	// OrphanPassHook is called when an orphan pass starts
	OrphanPassHook func(pass int, pools decision.Pools)

	// RecordEmittedHook is called for every output record with its new IDs
	RecordEmittedHook func(rec *findings.Record, leftID, rightID findings.ID)
)

// Hooks registers callbacks for merge events.
type Hooks interface {
	OnMatchAccepted(fn MatchAcceptedHook)
	OnMatchRejected(fn MatchRejectedHook)
	OnOrphanPass(fn OrphanPassHook)
	OnRecordEmitted(fn RecordEmittedHook)
}

// Compile-time interface check to ensure proper implementation.
var _ engine.Observer = (*hooks)(nil)

// hooks manages event callbacks and forwards engine events to them
type hooks struct {
	mu              sync.RWMutex
	onMatchAccepted []MatchAcceptedHook
	onMatchRejected []MatchRejectedHook
	onOrphanPass    []OrphanPassHook
	onRecordEmitted []RecordEmittedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnMatchAccepted registers a callback for merged matches
func (h *hooks) OnMatchAccepted(fn MatchAcceptedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMatchAccepted = append(h.onMatchAccepted, fn)
}

// OnMatchRejected registers a callback for rejected and skipped matches
func (h *hooks) OnMatchRejected(fn MatchRejectedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMatchRejected = append(h.onMatchRejected, fn)
}

// OnOrphanPass registers a callback for orphan passes
func (h *hooks) OnOrphanPass(fn OrphanPassHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onOrphanPass = append(h.onOrphanPass, fn)
}

// OnRecordEmitted registers a callback for output records
func (h *hooks) OnRecordEmitted(fn RecordEmittedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecordEmitted = append(h.onRecordEmitted, fn)
}

// MatchResolved triggers the accepted or rejected hooks
func (h *hooks) MatchResolved(m *matcher.Match, res *resolver.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if res.Outcome == resolver.OutcomeMerged {
		for _, hook := range h.onMatchAccepted {
			hook(res.Record)
		}
		return
	}
	for _, hook := range h.onMatchRejected {
		hook(m, res.Reason)
	}
}

// OrphanPass triggers the orphan pass hooks
func (h *hooks) OrphanPass(pass int, pools decision.Pools) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onOrphanPass {
		hook(pass, pools)
	}
}

// RecordEmitted triggers the record hooks
func (h *hooks) RecordEmitted(rec *findings.Record, a renumber.Assignment) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onRecordEmitted {
		hook(rec, a.LeftID, a.RightID)
	}
}

// OnMatchAccepted registers a callback for merged matches.
func (c *client) OnMatchAccepted(fn MatchAcceptedHook) { c.hooks.OnMatchAccepted(fn) }

// OnMatchRejected registers a callback for rejected and skipped matches.
func (c *client) OnMatchRejected(fn MatchRejectedHook) { c.hooks.OnMatchRejected(fn) }

// OnOrphanPass registers a callback for orphan passes.
func (c *client) OnOrphanPass(fn OrphanPassHook) { c.hooks.OnOrphanPass(fn) }

// OnRecordEmitted registers a callback for output records.
func (c *client) OnRecordEmitted(fn RecordEmittedHook) { c.hooks.OnRecordEmitted(fn) }
