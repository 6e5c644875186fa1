package similarity

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC normalization and case folding, replaces every
// rune that is not a letter or digit with a space and collapses whitespace.
func Normalize(s string) string {
	// cases.Caser keeps state, so each call gets its own.
	folded := cases.Fold().String(norm.NFKC.String(s))
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Tokens returns the sorted, deduplicated words of s after Normalize.
func Tokens(s string) []string {
	words := strings.Fields(Normalize(s))
	slices.Sort(words)
	return slices.Compact(words)
}

// TokenSetRatio compares two token sets. With I the shared tokens and A, B
// the tokens unique to each side, it is the best indel ratio among I vs
// I+A, I vs I+B and I+A vs I+B. Inputs must be sorted and deduplicated.
func TokenSetRatio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	var common, onlyA, onlyB []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch strings.Compare(a[i], b[j]) {
		case 0:
			common = append(common, a[i])
			i++
			j++
		case -1:
			onlyA = append(onlyA, a[i])
			i++
		default:
			onlyB = append(onlyB, b[j])
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)

	base := strings.Join(common, " ")
	withA := joinTokens(base, onlyA)
	withB := joinTokens(base, onlyB)

	best := Ratio(withA, withB)
	if base != "" {
		best = max(best, Ratio(base, withA), Ratio(base, withB))
	}
	return best
}

func joinTokens(base string, extra []string) string {
	if len(extra) == 0 {
		return base
	}
	if base == "" {
		return strings.Join(extra, " ")
	}
	return base + " " + strings.Join(extra, " ")
}

// Ratio is the normalized indel similarity 2*LCS/(len(a)+len(b)) over runes.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return float64(2*lcs(ra, rb)) / float64(total)
}

// lcs is the longest common subsequence length with two DP rows.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
