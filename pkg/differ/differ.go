// Package differ detects field-level disagreements between two findings.
package differ

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/policy"
	"github.com/agentstation/ghostmerge/pkg/similarity"
)

// Differ handles conflict detection between findings.
type Differ interface {
	// Diff lists the fields whose values disagree, in field order
	Diff(left, right findings.Finding) []Conflict

	// Equal compares two values of one field by the field's kind
	Equal(field string, left, right any) bool
}

// Conflict is one field on which two findings disagree.
type Conflict struct {
	Field string        `json:"field" yaml:"field"`
	Kind  findings.Kind `json:"-" yaml:"-"`
	Left  any           `json:"left" yaml:"left"`
	Right any           `json:"right" yaml:"right"`
}

// String renders the conflict on one line.
func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Field, Format(c.Left, 40), Format(c.Right, 40))
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields []string
	strictText   bool
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff compares every known field and the union of extra field keys.
func (d *differ) Diff(left, right findings.Finding) []Conflict {
	fields := slices.Clone(findings.Fields)
	for _, key := range unionKeys(left, right) {
		fields = append(fields, findings.ExtraField(key))
	}

	var conflicts []Conflict
	for _, field := range fields {
		if d.ignored(field) {
			continue
		}
		lv, _ := left.Get(field)
		rv, _ := right.Get(field)
		if d.Equal(field, lv, rv) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Field: field,
			Kind:  findings.KindOf(field),
			Left:  lv,
			Right: rv,
		})
	}
	return conflicts
}

// Equal compares text after the scorer's normalization, exact fields after
// case and whitespace folding, sets regardless of order and scores
// numerically. Extra fields compare numbers by value.
func (d *differ) Equal(field string, left, right any) bool {
	switch findings.KindOf(field) {
	case findings.KindText:
		ls, rs := asString(left), asString(right)
		if d.strictText {
			return strings.TrimSpace(ls) == strings.TrimSpace(rs)
		}
		return similarity.Normalize(ls) == similarity.Normalize(rs)
	case findings.KindExact:
		return findings.FoldExact(asString(left)) == findings.FoldExact(asString(right))
	case findings.KindSeverity:
		return fmt.Sprint(left) == fmt.Sprint(right)
	case findings.KindScore:
		lf, lok := left.(float64)
		rf, rok := right.(float64)
		if !lok || !rok {
			return lok == rok
		}
		return cmp.Equal(lf, rf, approx)
	case findings.KindSet:
		return sameSet(asStrings(left), asStrings(right))
	default:
		return cmp.Equal(numeric(left), numeric(right), approx)
	}
}

var approx = cmp.Comparer(func(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
})

func (d *differ) ignored(field string) bool {
	for _, pattern := range d.ignoreFields {
		if policy.MatchesPattern(field, pattern) {
			return true
		}
	}
	return false
}

func unionKeys(left, right findings.Finding) []string {
	keys := append(left.ExtraKeys(), right.ExtraKeys()...)
	slices.Sort(keys)
	return slices.Compact(keys)
}

func sameSet(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asStrings(v any) []string {
	list, _ := v.([]string)
	return list
}

// numeric widens integer and float scalars to float64 so that 5 and 5.0
// from different decoders compare equal.
func numeric(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case string:
		return strings.TrimSpace(x)
	}
	return v
}

// Format renders a field value for display, truncated to maxLen runes.
func Format(v any, maxLen int) string {
	var s string
	switch x := v.(type) {
	case nil:
		s = "(empty)"
	case []string:
		if len(x) == 0 {
			s = "(empty)"
		} else {
			s = strings.Join(x, ", ")
		}
	case float64:
		s = fmt.Sprintf("%.1f", x)
	case string:
		s = x
		if strings.TrimSpace(x) == "" {
			s = "(empty)"
		}
	default:
		s = fmt.Sprint(x)
	}
	return truncateString(strings.Join(strings.Fields(s), " "), maxLen)
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
