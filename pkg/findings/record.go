package findings

// Origin tells how a merged record came to be.
type Origin string

// Record origins.
const (
	OriginMerged    Origin = "merged"
	OriginLeftOnly  Origin = "left-only"
	OriginRightOnly Origin = "right-only"
)

// ResolutionSource records where a resolved field value came from.
type ResolutionSource string

// Resolution sources.
const (
	SourceLeft          ResolutionSource = "left"
	SourceRight         ResolutionSource = "right"
	SourceAutoSuggested ResolutionSource = "auto-suggested"
	SourceManual        ResolutionSource = "manual"
	SourceRemoved       ResolutionSource = "removed"
	SourceAutoMerged    ResolutionSource = "auto-merged"
)

// Resolution is the decision taken for one conflicting field of a match.
type Resolution struct {
	Field      string           `json:"field" yaml:"field"`
	Source     ResolutionSource `json:"source" yaml:"source"`
	Value      any              `json:"value" yaml:"value"`
	Left       any              `json:"left" yaml:"left"`
	Right      any              `json:"right" yaml:"right"`
	Suggestion any              `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Reason     string           `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Redaction is one sensitive term found by the sensitivity pass.
type Redaction struct {
	Field       string `json:"field" yaml:"field"`
	Term        string `json:"term,omitempty" yaml:"term,omitempty"`
	Replacement string `json:"replacement,omitempty" yaml:"replacement,omitempty"`
	Start       int    `json:"start" yaml:"start"`
	End         int    `json:"end" yaml:"end"`
	Applied     bool   `json:"applied" yaml:"applied"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Record is the result of resolving one match or carrying forward one
// unmatched finding. Left and Right point at the original findings that
// contributed to it and are never modified.
type Record struct {
	Finding     Finding
	Origin      Origin
	Left        *Finding
	Right       *Finding
	Score       float64
	Pass        int
	Sequence    int
	Manual      bool
	Resolutions []Resolution
	Redactions  []Redaction
}

// LeftID returns the original left ID, if any.
func (r *Record) LeftID() (ID, bool) {
	if r.Left == nil {
		return "", false
	}
	return r.Left.ID, true
}

// RightID returns the original right ID, if any.
func (r *Record) RightID() (ID, bool) {
	if r.Right == nil {
		return "", false
	}
	return r.Right.ID, true
}

// Original returns the original finding on the given side.
func (r *Record) Original(side Side) *Finding {
	if side == Left {
		return r.Left
	}
	return r.Right
}

// NewOrphanRecord carries an unmatched finding forward unchanged.
func NewOrphanRecord(f Finding, side Side) *Record {
	orig := f.Clone()
	rec := &Record{Finding: f.Clone()}
	if side == Left {
		rec.Origin = OriginLeftOnly
		rec.Left = &orig
	} else {
		rec.Origin = OriginRightOnly
		rec.Right = &orig
	}
	return rec
}
