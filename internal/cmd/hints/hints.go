// Package hints suggests the next command after a merge or a scan.
package hints

import (
	"fmt"
	"io"

	"github.com/agentstation/ghostmerge/internal/cmd/emoji"
	"github.com/agentstation/ghostmerge/pkg/engine"
)

// Hint is one suggestion with an optional command to run.
type Hint struct {
	Message string
	Command string
}

// String renders the hint on one or two lines.
func (h Hint) String() string {
	if h.Command == "" {
		return fmt.Sprintf("%s %s", emoji.Info, h.Message)
	}
	return fmt.Sprintf("%s %s\n   Run: %s", emoji.Info, h.Message, h.Command)
}

// Write prints hints separated by blank lines, preceded by one.
func Write(w io.Writer, hs []Hint) error {
	for _, h := range hs {
		if _, err := fmt.Fprintf(w, "\n%s\n", h); err != nil {
			return err
		}
	}
	return nil
}

// MergeContext describes a finished merge run.
type MergeContext struct {
	Left, Right string
	Stats       engine.Stats
	Automated   bool
	DryRun      bool
	Audited     bool
}

// ForMerge returns the hints for a finished merge.
func ForMerge(mc MergeContext) []Hint {
	var hs []Hint
	s := mc.Stats
	if s.Rejected+s.Skipped > 0 && mc.Automated {
		hs = append(hs, Hint{
			Message: fmt.Sprintf("%d candidate pairs scored below the auto-accept threshold", s.Rejected+s.Skipped),
			Command: fmt.Sprintf("ghostmerge candidates -a %s -b %s", mc.Left, mc.Right),
		})
	}
	if s.LeftOnly > 0 && s.RightOnly > 0 && s.Pairings == 0 && mc.Automated {
		hs = append(hs, Hint{
			Message: "Unmatched findings remain on both sides; pair them by hand",
			Command: fmt.Sprintf("ghostmerge merge -a %s -b %s --mode interactive", mc.Left, mc.Right),
		})
	}
	if s.Flags > 0 && !mc.Audited {
		hs = append(hs, Hint{
			Message: fmt.Sprintf("%d sensitive terms were flagged but not replaced; keep an audit trail to review them", s.Flags),
			Command: "ghostmerge merge ... --audit audit.md",
		})
	}
	if s.ScanErrors > 0 {
		hs = append(hs, Hint{Message: fmt.Sprintf("%d fields could not be scanned; run with -v for details", s.ScanErrors)})
	}
	if mc.DryRun {
		hs = append(hs, Hint{Message: "Dry run: no collections were written"})
	}
	return hs
}

// ForScan returns the hints for a finished scan.
func ForScan(hits int, strict bool) []Hint {
	if hits == 0 || strict {
		return nil
	}
	return []Hint{{
		Message: fmt.Sprintf("%d terms found; merge with --policy replace to redact them", hits),
	}}
}
