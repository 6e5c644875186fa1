// Package prompt implements an operator-facing decision source that asks
// every merge question on a terminal.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/agentstation/ghostmerge/internal/cmd/emoji"
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/matcher"
)

var _ decision.Source = (*Interactive)(nil)

// Interactive reads answers line by line from in and writes questions to
// out. End of input aborts the run.
type Interactive struct {
	in  *bufio.Reader
	out io.Writer

	valueWidth int
	poolLimit  int

	heading *color.Color
	warn    *color.Color
	good    *color.Color
	bad     *color.Color
}

// Option configures an Interactive source.
type Option func(*Interactive)

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(p *Interactive) {
		for _, c := range []*color.Color{p.heading, p.warn, p.good, p.bad} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// WithValueWidth sets the column width used for field values.
func WithValueWidth(width int) Option {
	return func(p *Interactive) {
		p.valueWidth = width
	}
}

// WithPoolLimit caps how many orphans of each side are listed.
func WithPoolLimit(n int) Option {
	return func(p *Interactive) {
		p.poolLimit = n
	}
}

// New creates an Interactive source. Color is off unless enabled.
func New(in io.Reader, out io.Writer, opts ...Option) *Interactive {
	p := &Interactive{
		in:         bufio.NewReader(in),
		out:        out,
		valueWidth: 60,
		poolLimit:  25,
		heading:    color.New(color.Bold, color.FgCyan),
		warn:       color.New(color.FgYellow),
		good:       color.New(color.FgGreen),
		bad:        color.New(color.FgRed),
	}
	WithColor(false)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DecideMatch shows both findings side by side and asks for a verdict.
func (p *Interactive) DecideMatch(ctx context.Context, m *matcher.Match) (decision.MatchDecision, error) {
	kind := "Candidate match"
	if m.Manual {
		kind = "Manual pairing"
	}
	if m.Pass > 0 {
		kind += fmt.Sprintf(" (orphan pass %d)", m.Pass)
	}
	p.printf("\n%s %s  score %.3f\n", p.heading.Sprint(kind), m.Ref(), m.Score)
	p.render(p.comparison(m.Left, m.Right))

	for {
		answer, err := p.ask(ctx, "Accept this match? [y]es / [n]o / [q]uit:")
		if err != nil {
			return decision.MatchDecision{}, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return decision.MatchDecision{Action: decision.Accept, Reason: "operator accepted"}, nil
		case "n", "no":
			return decision.MatchDecision{Action: decision.Reject, Reason: "operator rejected"}, nil
		case "q", "quit":
			return decision.MatchDecision{}, errors.ErrAborted
		}
		p.printf("%s answer y, n or q\n", p.warn.Sprint(emoji.Warning))
	}
}

// DecideField shows the conflicting values and the suggestion and asks how
// to resolve the field.
func (p *Interactive) DecideField(ctx context.Context, m *matcher.Match, c decision.FieldConflict) (decision.FieldDecision, error) {
	p.printf("\n%s %s in %s\n", p.heading.Sprint("Conflict:"), c.Field, m.Ref())
	if c.Problem != "" {
		p.printf("%s previous answer refused: %s\n", p.warn.Sprint(emoji.Warning), c.Problem)
	}

	tw := p.newTable()
	tw.AppendHeader(table.Row{"", "Value"})
	tw.AppendRow(table.Row{"[l] left", display(c.Left)})
	tw.AppendRow(table.Row{"[r] right", display(c.Right)})
	suggested := display(c.Suggestion.Value)
	if c.Suggestion.Reason != "" {
		suggested += "\n(" + c.Suggestion.Reason + ")"
	}
	tw.AppendRow(table.Row{"[s] " + emoji.Arrow + " suggested", suggested})
	p.render(tw)

	choices := "[l]eft / [r]ight / [s]uggested / [m]anual"
	if c.Optional {
		choices += " / [d]elete"
	}
	choices += " / s[k]ip record / [q]uit:"

	for {
		answer, err := p.ask(ctx, choices)
		if err != nil {
			return decision.FieldDecision{}, err
		}
		if strings.EqualFold(answer, "q") || strings.EqualFold(answer, "quit") {
			return decision.FieldDecision{}, errors.ErrAborted
		}
		action, perr := decision.ParseFieldAction(answer)
		if perr != nil || answer == "" {
			p.printf("%s unknown choice %q\n", p.warn.Sprint(emoji.Warning), answer)
			continue
		}
		if action != decision.Manual {
			return decision.FieldDecision{Action: action}, nil
		}
		value, err := p.manualValue(ctx, c.Field)
		if err != nil {
			return decision.FieldDecision{}, err
		}
		return decision.FieldDecision{Action: decision.Manual, Value: value}, nil
	}
}

func (p *Interactive) manualValue(ctx context.Context, field string) (any, error) {
	hint := "Value:"
	kind := findings.KindOf(field)
	if kind == findings.KindSet {
		hint = "Values, comma separated:"
	}
	answer, err := p.ask(ctx, hint)
	if err != nil {
		return nil, err
	}
	if kind == findings.KindSet {
		var out []string
		for _, v := range strings.Split(answer, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out, nil
	}
	return answer, nil
}

// DecideOrphanContinue lists the remaining orphans and asks whether to run
// another pass.
func (p *Interactive) DecideOrphanContinue(ctx context.Context, pools decision.Pools) (bool, error) {
	p.printf("\n%s %d left, %d right\n", p.heading.Sprint("Unmatched findings:"), len(pools.Left), len(pools.Right))
	p.render(p.poolTable(pools))

	for {
		answer, err := p.ask(ctx, fmt.Sprintf("Run orphan pass %d? [y/N/q]:", pools.Pass+1))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		case "q", "quit":
			return false, errors.ErrAborted
		}
		p.printf("%s answer y, n or q\n", p.warn.Sprint(emoji.Warning))
	}
}

// DecidePairing asks for one "LEFT RIGHT" pair of IDs. A blank line ends
// manual pairing.
func (p *Interactive) DecidePairing(ctx context.Context, pools decision.Pools) (*decision.Pairing, error) {
	for {
		answer, err := p.ask(ctx, "Pair orphans as LEFT_ID RIGHT_ID (blank when done, q to quit):")
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}
		if strings.EqualFold(answer, "q") {
			return nil, errors.ErrAborted
		}
		parts := strings.FieldsFunc(answer, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
		if len(parts) != 2 {
			p.printf("%s expected two IDs\n", p.warn.Sprint(emoji.Warning))
			continue
		}
		left, lerr := findings.ParseID(parts[0])
		right, rerr := findings.ParseID(parts[1])
		if lerr != nil || rerr != nil {
			p.printf("%s expected two IDs\n", p.warn.Sprint(emoji.Warning))
			continue
		}
		p.printf("%s pairing L%s with R%s\n", p.good.Sprint(emoji.Success), left, right)
		return &decision.Pairing{LeftID: left, RightID: right}, nil
	}
}

func (p *Interactive) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.printf("%s ", question)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", errors.WrapIO("read", "input", err)
		}
		if line == "" {
			p.printf("\n%s input closed\n", p.bad.Sprint(emoji.Error))
			return "", errors.ErrAborted
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Interactive) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Interactive) newTable() table.Writer {
	tw := table.NewWriter()
	// Headers and footers keep their case so they read like the prompt text.
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, WidthMax: p.valueWidth, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: p.valueWidth, AlignHeader: text.AlignLeft},
	})
	return tw
}

func (p *Interactive) render(tw table.Writer) {
	p.printf("%s\n", tw.Render())
}

// comparison lays out the fields that drive matching, plus any other
// field that differs.
func (p *Interactive) comparison(left, right findings.Finding) table.Writer {
	tw := p.newTable()
	tw.AppendHeader(table.Row{"Field", "Left #" + left.ID.String(), "Right #" + right.ID.String()})
	shown := map[string]bool{}
	for _, field := range []string{findings.FieldTitle, findings.FieldSeverity, findings.FieldFindingType, findings.FieldDescription} {
		lv, _ := left.Get(field)
		rv, _ := right.Get(field)
		tw.AppendRow(table.Row{field, display(lv), display(rv)})
		shown[field] = true
	}
	for _, field := range findings.Fields {
		if shown[field] {
			continue
		}
		lv, _ := left.Get(field)
		rv, _ := right.Get(field)
		if display(lv) != display(rv) {
			tw.AppendRow(table.Row{p.warn.Sprint(field), display(lv), display(rv)})
		}
	}
	return tw
}

func (p *Interactive) poolTable(pools decision.Pools) table.Writer {
	tw := p.newTable()
	tw.AppendHeader(table.Row{"", "Left", "Right"})
	rows := max(len(pools.Left), len(pools.Right))
	for i := 0; i < rows && i < p.poolLimit; i++ {
		tw.AppendRow(table.Row{i + 1, poolEntry(pools.Left, i), poolEntry(pools.Right, i)})
	}
	if rows > p.poolLimit {
		tw.AppendFooter(table.Row{"", fmt.Sprintf("%d more", rows-p.poolLimit), ""})
	}
	return tw
}

func poolEntry(list []findings.Finding, i int) string {
	if i >= len(list) {
		return ""
	}
	return list[i].Label()
}

func display(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case []string:
		if len(x) == 0 {
			return "-"
		}
		return strings.Join(x, ", ")
	case float64:
		return fmt.Sprintf("%.1f", x)
	}
	return fmt.Sprint(v)
}
