// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/ghostmerge/internal/cmd/emoji"
	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/matcher"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// TitleWidth is where long titles are cut in narrow tables.
const TitleWidth = 48

// CandidatesToTableData converts scored pairs to table format. Titles are
// looked up in the input collections.
func CandidatesToTableData(candidates []matcher.Candidate, left, right []findings.Finding) Data {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{
			c.LeftID.String(),
			c.RightID.String(),
			FormatScore(c.Score),
			Truncate(left[c.LeftIndex].Title, TitleWidth),
			Truncate(right[c.RightIndex].Title, TitleWidth),
		})
	}
	return Data{
		Headers:         []string{"Left", "Right", "Score", "Left Title", "Right Title"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignRight, AlignRight, AlignLeft, AlignLeft},
	}
}

// StatsToTableData converts run totals to a two-column table.
func StatsToTableData(stats engine.Stats) Data {
	rows := [][]string{
		{"Merged", strconv.Itoa(stats.Merged)},
		{"Left only", strconv.Itoa(stats.LeftOnly)},
		{"Right only", strconv.Itoa(stats.RightOnly)},
		{"Rejected", strconv.Itoa(stats.Rejected)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
		{"Orphan passes", strconv.Itoa(stats.Passes)},
		{"Manual pairings", strconv.Itoa(stats.Pairings)},
	}
	if stats.ContractViolations > 0 {
		rows = append(rows, []string{"Refused decisions", strconv.Itoa(stats.ContractViolations)})
	}
	if stats.Redactions+stats.Flags+stats.ScanErrors > 0 {
		rows = append(rows,
			[]string{"Redactions", strconv.Itoa(stats.Redactions)},
			[]string{"Flagged terms", strconv.Itoa(stats.Flags)},
			[]string{"Scan errors", strconv.Itoa(stats.ScanErrors)},
		)
	}
	return Data{
		Headers:         []string{"Outcome", "Count"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// FileCheck is the outcome of validating one collection file.
type FileCheck struct {
	Path     string `json:"path" yaml:"path"`
	Findings int    `json:"findings" yaml:"findings"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ChecksToTableData converts validation outcomes to table format.
func ChecksToTableData(checks []FileCheck) Data {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		status := emoji.Success
		if c.Error != "" {
			status = emoji.Error
		}
		rows = append(rows, []string{status, c.Path, strconv.Itoa(c.Findings), c.Error})
	}
	return Data{
		Headers:         []string{"", "File", "Findings", "Error"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignCenter, AlignLeft, AlignRight, AlignLeft},
	}
}

// Hit is one sensitive term found in a finding.
type Hit struct {
	ID findings.ID `json:"id" yaml:"id"`
	findings.Redaction `yaml:",inline"`
}

// HitsToTableData converts scan hits to table format.
func HitsToTableData(hits []Hit) Data {
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		if h.Error != "" {
			rows = append(rows, []string{h.ID.String(), h.Field, emoji.Error, "-", h.Error})
			continue
		}
		replacement := h.Replacement
		if replacement == "" {
			replacement = emoji.Warning + " flag only"
		}
		rows = append(rows, []string{
			h.ID.String(),
			h.Field,
			h.Term,
			replacement,
			fmt.Sprintf("%d-%d", h.Start, h.End),
		})
	}
	return Data{
		Headers:         []string{"ID", "Field", "Term", "Replacement", "Span"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
}

// FormatScore renders a similarity score with three decimals.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
