// Package ghostmerge merges two independently maintained collections of
// security findings into two renumbered, ID-consistent collections plus an
// audit trail.
//
// The client wraps the merge engine with configuration through functional
// options, event hooks and file persistence:
//
//	gm, err := ghostmerge.New(
//	    ghostmerge.WithThreshold(0.7),
//	    ghostmerge.WithTermsFile("terms.txt"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gm.OnMatchAccepted(func(rec *findings.Record) {
//	    log.Printf("merged %s", rec.Finding.Label())
//	})
//
//	result, err := gm.MergeFiles(ctx, "team-a.json", "team-b.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = gm.Save(ctx, result, "team-a.merged.json", "team-b.merged.json")
package ghostmerge

import (
	"context"
	"sync"

	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/logging"
	"github.com/agentstation/ghostmerge/pkg/matcher"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Merger runs merges.
type Merger interface {
	// Merge merges two in-memory collections
	Merge(ctx context.Context, left, right []findings.Finding) (*engine.Result, error)

	// MergeFiles loads, validates and merges two collection files
	MergeFiles(ctx context.Context, leftPath, rightPath string) (*engine.Result, error)

	// Candidates lists every pair scoring at or above floor without deciding anything
	Candidates(ctx context.Context, left, right []findings.Finding, floor float64) ([]matcher.Candidate, error)
}

// Client merges finding collections with event hooks and persistence.
type Client interface {

	// Merger runs merges
	Merger

	// Persistence writes outputs and audit trails
	Persistence

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	// one run at a time; decision sources keep per-run state
	mu    sync.Mutex
	hooks *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &client{options: o, hooks: newHooks()}, nil
}

// Merge merges left and right with a fresh engine.
func (c *client) Merge(ctx context.Context, left, right []findings.Finding) (*engine.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	engineOpts := []engine.Option{
		engine.WithObserver(c.hooks),
		engine.WithAuditOptions(c.options.auditOpts...),
	}
	if c.options.scanner != nil {
		engineOpts = append(engineOpts, engine.WithScanner(c.options.scanner))
	}
	e, err := engine.New(c.options.config, c.options.newSource(), engineOpts...)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, left, right)
}

// MergeFiles loads both collections, then merges them.
func (c *client) MergeFiles(ctx context.Context, leftPath, rightPath string) (*engine.Result, error) {
	left, right, err := c.Load(leftPath, rightPath)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug().
		Str("left", leftPath).
		Str("right", rightPath).
		Msg("Loaded collections")
	return c.Merge(ctx, left, right)
}

// Candidates scores every pair with the configured weights.
func (c *client) Candidates(ctx context.Context, left, right []findings.Finding, floor float64) ([]matcher.Candidate, error) {
	scorer, err := c.options.config.Scorer()
	if err != nil {
		return nil, err
	}
	return matcher.Candidates(ctx, left, right, scorer, floor)
}
