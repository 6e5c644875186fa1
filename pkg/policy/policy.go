// Package policy classifies finding fields and suggests resolutions for
// conflicting values.
//
// Field classes (low-risk, required) and suggestion rules are expressed as
// field path patterns such as "tags" or "extra_fields.*". When several
// patterns match a field the most specific one wins.
package policy

import (
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Type names a suggestion policy.
type Type string

// String returns the string representation of a policy type.
func (t Type) String() string {
	return string(t)
}

// Name returns a display name such as "Prefer Higher Severity".
func (t Type) Name() string {
	return cases.Title(language.English).String(strings.ReplaceAll(t.String(), "-", " "))
}

// IsValid reports whether t is a known policy.
func (t Type) IsValid() bool {
	return slices.Contains(Types, t)
}

// Suggestion policies.
const (
	PreferLeft           Type = "prefer-left"
	PreferRight          Type = "prefer-right"
	PreferNonEmpty       Type = "prefer-non-empty"
	PreferLonger         Type = "prefer-longer"
	PreferHigherSeverity Type = "prefer-higher-severity"
	PreferHigherScore    Type = "prefer-higher-score"
	Union                Type = "union"
)

// Types lists every policy.
var Types = []Type{
	PreferLeft,
	PreferRight,
	PreferNonEmpty,
	PreferLonger,
	PreferHigherSeverity,
	PreferHigherScore,
	Union,
}

// ParseType validates a policy name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", errors.NewValidationError("policy", s, "unknown suggestion policy")
	}
	return t, nil
}

// Rule binds a field path pattern to a policy.
type Rule struct {
	Path   string `json:"path" yaml:"path"`     // e.g. "severity", "extra_fields.*"
	Policy Type   `json:"policy" yaml:"policy"` // policy applied to matching fields
}

// DefaultRules returns the standard suggestion rules.
func DefaultRules() []Rule {
	return []Rule{
		{Path: findings.FieldSeverity, Policy: PreferHigherSeverity},
		{Path: findings.FieldCVSSScore, Policy: PreferHigherScore},
		{Path: findings.FieldTags, Policy: Union},
		{Path: findings.FieldReferences, Policy: Union},
		{Path: findings.ExtraPrefix + "*", Policy: PreferNonEmpty},
		{Path: "*", Policy: PreferNonEmpty},
	}
}

// DefaultLowRisk lists the fields merged without asking.
func DefaultLowRisk() []string {
	return []string{findings.FieldTags, findings.FieldReferences, findings.ExtraPrefix + "*"}
}

// DefaultRequired lists the fields a merged finding must keep.
func DefaultRequired() []string {
	return []string{findings.FieldTitle, findings.FieldSeverity}
}

// RulesFromMap converts a field -> policy name mapping, as found in
// configuration files, into rules sorted by path.
func RulesFromMap(m map[string]string) ([]Rule, error) {
	rules := make([]Rule, 0, len(m))
	var problems errors.MultiError
	for path, name := range m {
		t, err := ParseType(name)
		if err != nil {
			problems.Append(errors.NewValidationError("automated_defaults."+path, name, "unknown suggestion policy"))
			continue
		}
		rules = append(rules, Rule{Path: path, Policy: t})
	}
	if err := problems.ErrorOrNil(); err != nil {
		return nil, err
	}
	slices.SortFunc(rules, func(a, b Rule) int { return strings.Compare(a.Path, b.Path) })
	return rules, nil
}

// ByField returns the most specific rule matching a field path.
// Exact matches beat patterns; longer patterns beat shorter ones.
func ByField(field string, rules []Rule) *Rule {
	var best *Rule
	bestScore := -1
	for i, r := range rules {
		if !MatchesPattern(field, r.Path) {
			continue
		}
		score := len(r.Path)
		if r.Path == field {
			score = 1 << 20
		}
		if score > bestScore {
			best = &rules[i]
			bestScore = score
		}
	}
	return best
}

// MatchesPattern checks if a field path matches a pattern (supports * wildcards)
func MatchesPattern(field, pattern string) bool {
	if field == pattern {
		return true
	}

	// Trailing wildcard matches any suffix, including dots
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(field, strings.TrimSuffix(pattern, "*"))
	}

	matched, err := filepath.Match(pattern, field)
	if err != nil {
		return false
	}
	return matched
}

func matchesAny(field string, patterns []string) bool {
	for _, p := range patterns {
		if MatchesPattern(field, p) {
			return true
		}
	}
	return false
}
