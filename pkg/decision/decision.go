// Package decision defines the points where a merge run waits for an
// operator, and the non-interactive sources that answer them.
//
// The engine calls a Source synchronously at four suspension points:
// whether to accept a match, how to resolve a conflicting field, whether
// to run another orphan pass, and which orphans to pair by hand. Any error
// returned by a Source aborts the run without output.
package decision

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/matcher"
	"github.com/agentstation/ghostmerge/pkg/policy"
)

// ErrAborted is returned by sources when the operator stops the run.
var ErrAborted = errors.ErrAborted

// Source answers the engine's queries.
type Source interface {
	// DecideMatch accepts or rejects a pending match
	DecideMatch(ctx context.Context, m *matcher.Match) (MatchDecision, error)

	// DecideField resolves one conflicting field of an accepted match
	DecideField(ctx context.Context, m *matcher.Match, c FieldConflict) (FieldDecision, error)

	// DecideOrphanContinue reports whether another orphan pass should run
	DecideOrphanContinue(ctx context.Context, pools Pools) (bool, error)

	// DecidePairing returns the next manual pairing, or nil when done
	DecidePairing(ctx context.Context, pools Pools) (*Pairing, error)
}

// MatchAction is the verdict on a match.
type MatchAction int

// Match verdicts.
const (
	Accept MatchAction = iota
	Reject
)

// String returns the verdict name.
func (a MatchAction) String() string {
	if a == Reject {
		return "reject"
	}
	return "accept"
}

// ParseMatchAction parses "accept"/"yes" or "reject"/"no".
func ParseMatchAction(s string) (MatchAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept", "yes", "y":
		return Accept, nil
	case "reject", "no", "n":
		return Reject, nil
	}
	return Accept, errors.NewValidationError("decision", s, "expected accept or reject")
}

// MatchDecision answers DecideMatch.
type MatchDecision struct {
	Action MatchAction
	Reason string
}

// FieldAction is how a conflicting field is resolved.
type FieldAction int

// Field resolutions.
const (
	UseLeft FieldAction = iota
	UseRight
	UseSuggestion
	Manual
	Remove
	SkipRecord
)

var fieldActionNames = map[FieldAction]string{
	UseLeft:       "use-left",
	UseRight:      "use-right",
	UseSuggestion: "suggested",
	Manual:        "manual",
	Remove:        "remove",
	SkipRecord:    "skip",
}

// String returns the action name.
func (a FieldAction) String() string {
	if name, ok := fieldActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("field-action(%d)", int(a))
}

// ParseFieldAction parses an action name or a short alias.
func ParseFieldAction(s string) (FieldAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "use-left", "left", "l":
		return UseLeft, nil
	case "use-right", "right", "r":
		return UseRight, nil
	case "suggested", "suggestion", "auto", "s":
		return UseSuggestion, nil
	case "manual", "m":
		return Manual, nil
	case "remove", "delete", "d":
		return Remove, nil
	case "skip", "skip-record", "k":
		return SkipRecord, nil
	}
	return UseLeft, errors.NewValidationError("decision", s, "unknown field action")
}

// FieldDecision answers DecideField. Value is used only with Manual.
type FieldDecision struct {
	Action FieldAction
	Value  any
}

// FieldConflict describes a field that needs a decision.
type FieldConflict struct {
	Field      string
	Left       any
	Right      any
	Suggestion policy.Suggestion
	Optional   bool   // the field may be removed
	Attempt    int    // 1 for the first request
	Problem    string // why the previous answer was refused
}

// Pools are the findings still unmatched during orphan reconciliation.
type Pools struct {
	Left  []findings.Finding
	Right []findings.Finding
	Pass  int
}

// Empty reports whether either side has nothing left to pair.
func (p Pools) Empty() bool {
	return len(p.Left) == 0 || len(p.Right) == 0
}

// Pairing is an operator-chosen match between two orphans.
type Pairing struct {
	LeftID  findings.ID
	RightID findings.ID
}
