package matcher

import (
	"fmt"

	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Status is the lifecycle state of a match.
type Status int

// Match states.
const (
	StatusPending Status = iota
	StatusAccepted
	StatusRejected
)

// String returns the lowercase state name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the state name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Candidate is a scored pair, referenced by position in the input slices.
type Candidate struct {
	LeftID     findings.ID `json:"left_id" yaml:"left_id"`
	RightID    findings.ID `json:"right_id" yaml:"right_id"`
	Score      float64     `json:"score" yaml:"score"`
	LeftIndex  int         `json:"-" yaml:"-"`
	RightIndex int         `json:"-" yaml:"-"`
}

// Match pairs one left and one right finding.
type Match struct {
	Left   findings.Finding
	Right  findings.Finding
	Score  float64
	Status Status
	Pass   int  // 0 for the first pass, n for the nth orphan pass
	Manual bool // paired by the operator rather than the matcher
	Rank   int  // position in the matcher's accepted order
}

// Ref is a short reference such as "L3/R12".
func (m *Match) Ref() string {
	return "L" + m.Left.ID.String() + "/R" + m.Right.ID.String()
}

// NewManual builds a forced pending match for an operator pairing.
func NewManual(left, right findings.Finding, score float64, pass int) *Match {
	return &Match{
		Left:   left,
		Right:  right,
		Score:  score,
		Status: StatusPending,
		Pass:   pass,
		Manual: true,
	}
}
