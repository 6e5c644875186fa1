package engine

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/renumber"
)

// Result is the outcome of a successful run.
type Result struct {
	// Core data
	Output  *renumber.Output
	Records []*findings.Record // emission order, before renumbering

	// Audit trail keyed by output ID
	Audit *audit.Log

	Stats    Stats
	Metadata Metadata
}

// Stats counts what happened during a run.
type Stats struct {
	Merged             int
	LeftOnly           int
	RightOnly          int
	Rejected           int
	Skipped            int
	Passes             int
	Pairings           int
	ContractViolations int
	Redactions         int
	Flags              int
	ScanErrors         int
}

// Audit converts the stats for the audit report.
func (s Stats) Audit() audit.Stats {
	return audit.Stats{
		Merged:    s.Merged,
		LeftOnly:  s.LeftOnly,
		RightOnly: s.RightOnly,
		Rejected:  s.Rejected + s.Skipped,
		Passes:    s.Passes,
	}
}

// Metadata describes the run itself.
type Metadata struct {
	RunID     string
	StartTime utc.Time
	EndTime   utc.Time
	Duration  time.Duration
}

// Left returns the renumbered left collection.
func (r *Result) Left() []findings.Finding {
	return r.Output.Left
}

// Right returns the renumbered right collection.
func (r *Result) Right() []findings.Finding {
	return r.Output.Right
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Stats
	msg := fmt.Sprintf("%d merged, %d left-only, %d right-only", s.Merged, s.LeftOnly, s.RightOnly)
	if s.Rejected+s.Skipped > 0 {
		msg += fmt.Sprintf(", %d rejected", s.Rejected+s.Skipped)
	}
	if s.Passes > 0 {
		msg += fmt.Sprintf(", %d orphan passes", s.Passes)
	}
	if s.Redactions+s.Flags > 0 {
		msg += fmt.Sprintf(", %d redactions, %d flags", s.Redactions, s.Flags)
	}
	if s.ScanErrors > 0 {
		msg += fmt.Sprintf(", %d scan errors", s.ScanErrors)
	}
	return msg
}

func (r *run) result(out *renumber.Output) *Result {
	end := utc.Now()
	r.stats.ContractViolations = r.log.Counts()[audit.KindContractViolation]
	return &Result{
		Output:  out,
		Records: r.records,
		Audit:   r.log,
		Stats:   r.stats,
		Metadata: Metadata{
			RunID:     r.log.RunID(),
			StartTime: r.start,
			EndTime:   end,
			Duration:  end.Time.Sub(r.start.Time),
		},
	}
}
