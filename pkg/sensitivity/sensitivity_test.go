package sensitivity

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

const termsText = `
# client names
ACME Corp => [CLIENT]
acme => [CLIENT-SHORT]
internal.acme.local
Globex => [GLOBEX-REDACTED]
`

func scanner(t *testing.T) *TermScanner {
	t.Helper()
	terms, err := ParseTerms(strings.NewReader(termsText), "terms.txt")
	require.NoError(t, err)
	s, err := NewTermScanner(terms)
	require.NoError(t, err)
	return s
}

func TestParseTerms(t *testing.T) {
	terms, err := ParseTerms(strings.NewReader(termsText+"ACME CORP => [C]\n"), "terms.txt")
	require.NoError(t, err)
	require.Len(t, terms, 4)
	assert.Equal(t, Term{Term: "ACME CORP", Replacement: "[C]"}, terms[0])
	assert.True(t, terms[2].FlagOnly())

	_, err = ParseTerms(strings.NewReader("ok\n => x\n"), "bad.txt")
	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestLoadTermsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.toml")
	data := "[[terms]]\nterm = \"ACME Corp\"\nreplacement = \"[CLIENT]\"\n\n[[terms]]\nterm = \"secret-host\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	terms, err := LoadTerms(path)
	require.NoError(t, err)
	assert.Equal(t, []Term{{Term: "ACME Corp", Replacement: "[CLIENT]"}, {Term: "secret-host"}}, terms)

	_, err = LoadTerms(filepath.Join(t.TempDir(), "none.txt"))
	assert.True(t, errors.IsNotFound(err))
}

func TestScan(t *testing.T) {
	s := scanner(t)
	text := "Contact acme corp via internal.acme.local today"
	hits, err := s.Scan(text)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "ACME Corp", hits[0].Term)
	assert.Equal(t, "acme corp", text[hits[0].Start:hits[0].End])
	assert.Equal(t, "internal.acme.local", hits[1].Term)
	assert.Empty(t, hits[1].Replacement)
}

func TestScanIdempotent(t *testing.T) {
	s := scanner(t)
	text := "Globex and ACME Corp share acme servers"
	hits, err := s.Scan(text)
	require.NoError(t, err)
	once := Replace(text, hits)
	assert.Equal(t, "[GLOBEX-REDACTED] and [CLIENT] share [CLIENT-SHORT] servers", once)

	again, err := s.Scan(once)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, once, Replace(once, again))
}

func TestNewTermScannerEmpty(t *testing.T) {
	_, err := NewTermScanner([]Term{{Term: " "}})
	assert.True(t, errors.IsValidationError(err))
}

type failingScanner struct{}

func (failingScanner) Scan(text string) ([]Hit, error) {
	if strings.Contains(text, "boom") {
		return nil, errors.New("scanner offline")
	}
	return nil, nil
}

func record() *findings.Record {
	return &findings.Record{
		Finding: findings.Finding{
			ID:          "1",
			Title:       "ACME Corp login bypass",
			Description: "The ACME Corp portal allows bypass.",
			Impact:      "Data on internal.acme.local exposed",
			References:  []string{"https://acme.example/advisory", "https://owasp.org"},
		},
		Origin: findings.OriginMerged,
	}
}

func TestPassReplace(t *testing.T) {
	p, err := NewPass(scanner(t), PolicyReplace)
	require.NoError(t, err)
	rec := record()

	require.NoError(t, p.Apply(context.Background(), rec))
	assert.Equal(t, "The [CLIENT] portal allows bypass.", rec.Finding.Description)
	assert.Equal(t, "Data on internal.acme.local exposed", rec.Finding.Impact, "flag-only terms stay")
	assert.Equal(t, "https://[CLIENT-SHORT].example/advisory", rec.Finding.References[0])
	assert.Equal(t, "ACME Corp login bypass", rec.Finding.Title, "title is not scanned by default")

	var applied, flagged int
	for _, r := range rec.Redactions {
		if r.Applied {
			applied++
		} else {
			flagged++
		}
	}
	assert.Equal(t, 2, applied)
	assert.Equal(t, 1, flagged)

	before := len(rec.Redactions)
	require.NoError(t, p.Apply(context.Background(), rec))
	assert.Equal(t, "The [CLIENT] portal allows bypass.", rec.Finding.Description)
	assert.Equal(t, before+1, len(rec.Redactions), "only the flag-only hit is seen again")
}

func TestPassFlag(t *testing.T) {
	p, err := NewPass(scanner(t), PolicyFlag, findings.FieldTitle, findings.FieldDescription)
	require.NoError(t, err)
	rec := record()

	require.NoError(t, p.Apply(context.Background(), rec))
	assert.Equal(t, "ACME Corp login bypass", rec.Finding.Title)
	require.Len(t, rec.Redactions, 2)
	assert.False(t, rec.Redactions[0].Applied)
	assert.Equal(t, findings.FieldTitle, rec.Redactions[0].Field)
}

func TestPassScanError(t *testing.T) {
	p, err := NewPass(failingScanner{}, PolicyReplace, findings.FieldDescription, findings.FieldImpact)
	require.NoError(t, err)
	rec := record()
	rec.Finding.Description = "boom"

	require.NoError(t, p.Apply(context.Background(), rec))
	assert.Equal(t, "boom", rec.Finding.Description)
	require.Len(t, rec.Redactions, 1)
	assert.Equal(t, "scanner offline", rec.Redactions[0].Error)
}

func TestPassInspect(t *testing.T) {
	p, err := NewPass(scanner(t), PolicyReplace)
	require.NoError(t, err)
	f := record().Finding
	got := p.Inspect(f)
	assert.Len(t, got, 3)
	for _, r := range got {
		assert.False(t, r.Applied)
	}
	assert.Equal(t, "The ACME Corp portal allows bypass.", f.Description)
}

func TestNewPassValidation(t *testing.T) {
	_, err := NewPass(nil, PolicyReplace)
	assert.Error(t, err)
	_, err = NewPass(scanner(t), "shred")
	assert.Error(t, err)
	_, err = NewPass(scanner(t), PolicyFlag, findings.FieldSeverity)
	assert.Error(t, err)
	_, err = NewPass(scanner(t), PolicyFlag, findings.FieldTags)
	assert.Error(t, err)
}
