// Package audit records every decision a merge run makes.
//
// Entries are appended in the order events happen. Match verdicts, contract
// violations and scan failures are keyed by original IDs; field
// resolutions and redactions are recorded once output IDs are known, so a
// reviewer can trace any output record back to how it was produced.
package audit

import (
	"slices"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Kind classifies an entry.
type Kind string

// Entry kinds.
const (
	KindMatchAccepted     Kind = "match-accepted"
	KindMatchRejected     Kind = "match-rejected"
	KindRecordSkipped     Kind = "record-skipped"
	KindPairing           Kind = "pairing"
	KindFieldResolved     Kind = "field-resolved"
	KindFieldAutoMerged   Kind = "field-auto-merged"
	KindContractViolation Kind = "contract-violation"
	KindOrphanPass        Kind = "orphan-pass"
	KindRedaction         Kind = "redaction"
	KindSensitiveFlag     Kind = "sensitive-flag"
	KindScanError         Kind = "scan-error"
	KindRecordEmitted     Kind = "record-emitted"
)

// Entry is one audited event.
type Entry struct {
	Time          utc.Time    `json:"time" yaml:"time"`
	Kind          Kind        `json:"kind" yaml:"kind"`
	Pass          int         `json:"pass" yaml:"pass"`
	LeftID        findings.ID `json:"left_id,omitempty" yaml:"left_id,omitempty"`
	RightID       findings.ID `json:"right_id,omitempty" yaml:"right_id,omitempty"`
	OutputLeftID  findings.ID `json:"output_left_id,omitempty" yaml:"output_left_id,omitempty"`
	OutputRightID findings.ID `json:"output_right_id,omitempty" yaml:"output_right_id,omitempty"`
	Field         string      `json:"field,omitempty" yaml:"field,omitempty"`
	Source        string      `json:"source,omitempty" yaml:"source,omitempty"`
	Value         any         `json:"value,omitempty" yaml:"value,omitempty"`
	Score         float64     `json:"score,omitempty" yaml:"score,omitempty"`
	Manual        bool        `json:"manual,omitempty" yaml:"manual,omitempty"`
	Message       string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// Log is an append-only audit trail for one run.
type Log struct {
	runID   string
	entries []Entry
	now     func() utc.Time
}

// Option configures a Log.
type Option func(*Log)

// WithRunID sets the run identifier instead of a random UUID.
func WithRunID(id string) Option {
	return func(l *Log) {
		l.runID = id
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() utc.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates an empty Log with a fresh run ID.
func New(opts ...Option) *Log {
	l := &Log{
		runID: uuid.NewString(),
		now:   utc.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RunID returns the run identifier.
func (l *Log) RunID() string {
	return l.runID
}

// Record appends an entry, stamping it when Time is unset.
func (l *Log) Record(e Entry) {
	if e.Time.IsZero() {
		e.Time = l.now()
	}
	l.entries = append(l.entries, e)
}

// Entries returns a copy of all entries in order.
func (l *Log) Entries() []Entry {
	return slices.Clone(l.entries)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// ByKind returns the entries of one kind in order.
func (l *Log) ByKind(kind Kind) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ByOutputID returns the entries that mention an output ID on either side.
func (l *Log) ByOutputID(id findings.ID) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.OutputLeftID == id || e.OutputRightID == id {
			out = append(out, e)
		}
	}
	return out
}

// Counts tallies entries per kind.
func (l *Log) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range l.entries {
		counts[e.Kind]++
	}
	return counts
}
