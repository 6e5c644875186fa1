package audit

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml"
	md "github.com/nao1215/markdown"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

// File is the on-disk form of an audit log.
type File struct {
	RunID   string  `json:"run_id" yaml:"run_id"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// File returns the serializable form of the log.
func (l *Log) File() File {
	return File{RunID: l.runID, Entries: l.Entries()}
}

// EncodeYAML encodes the log as a File.
func (l *Log) EncodeYAML() ([]byte, error) {
	data, err := yaml.MarshalWithOptions(l.File(), yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	return data, nil
}

// LoadFile decodes an audit YAML document.
func LoadFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	return &f, nil
}

// Stats are the run totals shown at the top of a report.
type Stats struct {
	Merged    int
	LeftOnly  int
	RightOnly int
	Rejected  int
	Passes    int
}

// WriteMarkdown renders a human-readable report of the run.
func (l *Log) WriteMarkdown(w io.Writer, stats Stats) error {
	doc := md.NewMarkdown(w)
	doc.H1("Merge audit")
	doc.PlainText("Run " + md.Code(l.runID))
	doc.LF()

	doc.H2("Summary")
	doc.BulletList(
		fmt.Sprintf("Merged records: %d", stats.Merged),
		fmt.Sprintf("Left-only records: %d", stats.LeftOnly),
		fmt.Sprintf("Right-only records: %d", stats.RightOnly),
		fmt.Sprintf("Rejected matches: %d", stats.Rejected),
		fmt.Sprintf("Orphan passes: %d", stats.Passes),
	)

	counts := l.Counts()
	kinds := slices.Sorted(maps.Keys(counts))
	rows := make([][]string, 0, len(kinds))
	for _, k := range kinds {
		rows = append(rows, []string{string(k), strconv.Itoa(counts[k])})
	}
	doc.Table(md.TableSet{Header: []string{"Event", "Count"}, Rows: rows})

	if matches := l.filter(KindMatchAccepted, KindMatchRejected, KindRecordSkipped, KindPairing); len(matches) > 0 {
		doc.H2("Matches")
		doc.Table(md.TableSet{
			Header: []string{"Event", "Left", "Right", "Score", "Pass", "Note"},
			Rows: rowsOf(matches, func(e Entry) []string {
				return []string{string(e.Kind), e.LeftID.String(), e.RightID.String(), fmt.Sprintf("%.3f", e.Score), strconv.Itoa(e.Pass), e.Message}
			}),
		})
	}

	if fields := l.filter(KindFieldResolved, KindFieldAutoMerged, KindContractViolation); len(fields) > 0 {
		doc.H2("Field decisions")
		doc.Table(md.TableSet{
			Header: []string{"Output", "Field", "Source", "Value", "Note"},
			Rows: rowsOf(fields, func(e Entry) []string {
				return []string{outputRef(e), e.Field, e.Source, cell(e.Value), e.Message}
			}),
		})
	}

	if hits := l.filter(KindRedaction, KindSensitiveFlag, KindScanError); len(hits) > 0 {
		doc.H2("Sensitive content")
		doc.Table(md.TableSet{
			Header: []string{"Output", "Event", "Field", "Note"},
			Rows: rowsOf(hits, func(e Entry) []string {
				return []string{outputRef(e), string(e.Kind), e.Field, e.Message}
			}),
		})
	}

	return doc.Build()
}

func (l *Log) filter(kinds ...Kind) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if slices.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

func rowsOf(entries []Entry, row func(Entry) []string) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = row(e)
	}
	return rows
}

// outputRef renders output IDs, falling back to original IDs.
func outputRef(e Entry) string {
	ref := func(out, orig findings.ID, side string) string {
		switch {
		case !out.IsZero():
			return side + out.String()
		case !orig.IsZero():
			return side + "(" + orig.String() + ")"
		}
		return ""
	}
	l, r := ref(e.OutputLeftID, e.LeftID, "L"), ref(e.OutputRightID, e.RightID, "R")
	switch {
	case l != "" && r != "":
		return l + "/" + r
	case l != "":
		return l
	}
	return r
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
