package sensitivity

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Term is a sensitive phrase. A term without a replacement is only flagged.
type Term struct {
	Term        string `toml:"term" yaml:"term"`
	Replacement string `toml:"replacement,omitempty" yaml:"replacement,omitempty"`
}

// FlagOnly reports whether the term has no replacement.
func (t Term) FlagOnly() bool {
	return t.Replacement == ""
}

// ParseTerms reads the line format:
//
//	# comment
//	ACME Corp => [CLIENT]
//	internal.acme.local
//
// Matching is case-insensitive, so a repeated term replaces the earlier
// entry regardless of case.
func ParseTerms(r io.Reader, source string) ([]Term, error) {
	var terms []Term
	index := make(map[string]int)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var t Term
		if before, after, found := strings.Cut(text, "=>"); found {
			t = Term{Term: strings.TrimSpace(before), Replacement: strings.TrimSpace(after)}
		} else {
			t = Term{Term: text}
		}
		if t.Term == "" {
			return nil, &errors.ParseError{Format: "terms", File: source, Line: line, Message: "empty term"}
		}
		key := strings.ToLower(t.Term)
		if i, ok := index[key]; ok {
			terms[i] = t
			continue
		}
		index[key] = len(terms)
		terms = append(terms, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO("read", source, err)
	}
	return terms, nil
}

type termsFile struct {
	Terms []Term `toml:"terms"`
}

// LoadTerms reads a terms file; ".toml" files hold a [[terms]] array.
func LoadTerms(path string) ([]Term, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("terms file", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTerms(bytes.NewReader(data), path)
	}

	var f termsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("toml", path, err)
	}
	for i, t := range f.Terms {
		if strings.TrimSpace(t.Term) == "" {
			return nil, &errors.ParseError{Format: "toml", File: path, Line: i + 1, Message: "empty term"}
		}
	}
	return f.Terms, nil
}
