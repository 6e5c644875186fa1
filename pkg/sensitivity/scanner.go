// Package sensitivity finds and replaces client-sensitive terms in merged
// findings before they are written out.
package sensitivity

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Hit is one occurrence of a term, as byte offsets into the scanned text.
type Hit struct {
	Start       int
	End         int
	Term        string
	Replacement string // empty for flag-only terms
}

// Scanner finds sensitive spans in text.
type Scanner interface {
	Scan(text string) ([]Hit, error)
}

type compiledTerm struct {
	Term
	re *regexp.Regexp
}

// TermScanner matches a fixed term list case-insensitively. Occurrences
// that fall inside a replacement already present in the text are ignored,
// so scanning replaced text finds nothing new.
type TermScanner struct {
	terms []compiledTerm
}

// NewTermScanner compiles the terms.
func NewTermScanner(terms []Term) (*TermScanner, error) {
	s := &TermScanner{}
	for _, t := range terms {
		phrase := strings.TrimSpace(t.Term)
		if phrase == "" {
			return nil, errors.NewValidationError("term", t.Term, "empty term")
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(phrase))
		if err != nil {
			return nil, errors.NewValidationError("term", t.Term, err.Error())
		}
		s.terms = append(s.terms, compiledTerm{Term: Term{Term: phrase, Replacement: t.Replacement}, re: re})
	}
	return s, nil
}

// Len returns the number of terms.
func (s *TermScanner) Len() int {
	return len(s.terms)
}

// Scan returns non-overlapping hits ordered by position. Where hits
// overlap, the earlier and then the longer one is kept.
func (s *TermScanner) Scan(text string) ([]Hit, error) {
	if text == "" {
		return nil, nil
	}
	protected := s.replacementSpans(text)

	var hits []Hit
	for _, t := range s.terms {
		for _, loc := range t.re.FindAllStringIndex(text, -1) {
			if covered(protected, loc[0], loc[1]) {
				continue
			}
			hits = append(hits, Hit{Start: loc[0], End: loc[1], Term: t.Term.Term, Replacement: t.Replacement})
		}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.End, a.End)
	})
	kept := hits[:0]
	end := -1
	for _, h := range hits {
		if h.Start < end {
			continue
		}
		kept = append(kept, h)
		end = h.End
	}
	return kept, nil
}

// replacementSpans locates every replacement token already in text.
func (s *TermScanner) replacementSpans(text string) [][2]int {
	var spans [][2]int
	for _, t := range s.terms {
		if t.Replacement == "" {
			continue
		}
		for offset := 0; offset < len(text); {
			i := strings.Index(text[offset:], t.Replacement)
			if i < 0 {
				break
			}
			start := offset + i
			spans = append(spans, [2]int{start, start + len(t.Replacement)})
			offset = start + len(t.Replacement)
		}
	}
	return spans
}

func covered(spans [][2]int, start, end int) bool {
	for _, sp := range spans {
		if start < sp[1] && end > sp[0] {
			return true
		}
	}
	return false
}

// Replace applies the hits that carry a replacement. Hits must be sorted
// and non-overlapping, as returned by Scan.
func Replace(text string, hits []Hit) string {
	var b strings.Builder
	last := 0
	for _, h := range hits {
		if h.Replacement == "" {
			continue
		}
		b.WriteString(text[last:h.Start])
		b.WriteString(h.Replacement)
		last = h.End
	}
	b.WriteString(text[last:])
	return b.String()
}
