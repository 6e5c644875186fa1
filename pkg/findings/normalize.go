package findings

import (
	"slices"
	"strings"
	"unicode"
)

// NormalizeTags lower-cases tags, splits entries on commas and whitespace,
// drops blanks and duplicates, and sorts the result. Empty input yields nil.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, entry := range tags {
		for _, tag := range strings.FieldsFunc(entry, isTagSeparator) {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}

func isTagSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

// NormalizeReferences splits entries on newlines, trims them and removes
// duplicates while keeping first-seen order. References are case sensitive.
func NormalizeReferences(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, entry := range refs {
		for _, ref := range strings.FieldsFunc(entry, func(r rune) bool { return r == '\n' || r == '\r' }) {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				continue
			}
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FoldExact folds case and collapses whitespace for exact-match fields.
func FoldExact(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Union merges two string sets keeping left order, then new right entries.
func Union(left, right []string) []string {
	seen := make(map[string]struct{}, len(left)+len(right))
	out := make([]string, 0, len(left)+len(right))
	for _, list := range [][]string{left, right} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
