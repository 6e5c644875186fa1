package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/findings"
)

func conflictFields(conflicts []Conflict) []string {
	out := make([]string, len(conflicts))
	for i, c := range conflicts {
		out[i] = c.Field
	}
	return out
}

func TestDiff(t *testing.T) {
	left := findings.Finding{
		ID:          "1",
		Title:       "SQL Injection in Login",
		Severity:    findings.SeverityHigh,
		CVSSScore:   findings.Score(8.1),
		FindingType: "Injection",
		Description: "The login form is injectable.",
		Tags:        []string{"sqli", "web"},
		ExtraFields: map[string]any{"owner": "app", "retest": true},
	}
	right := findings.Finding{
		ID:          "7",
		Title:       "SQL Injection - Login Form",
		Severity:    findings.SeverityCritical,
		CVSSScore:   findings.Score(8.1),
		FindingType: "  injection ",
		Description: "the LOGIN form is injectable",
		Tags:        []string{"web", "sqli"},
		ExtraFields: map[string]any{"owner": "app", "ticket": "SEC-1"},
	}

	conflicts := New().Diff(left, right)
	assert.Equal(t, []string{
		findings.FieldSeverity,
		findings.FieldTitle,
		findings.ExtraField("retest"),
		findings.ExtraField("ticket"),
	}, conflictFields(conflicts))

	require.NotEmpty(t, conflicts)
	assert.Equal(t, findings.SeverityHigh, conflicts[0].Left)
	assert.Equal(t, findings.SeverityCritical, conflicts[0].Right)
	assert.Equal(t, findings.KindSeverity, conflicts[0].Kind)
	assert.Nil(t, conflicts[3].Left)
}

func TestDiffIdentical(t *testing.T) {
	f := findings.Finding{ID: "1", Title: "x", Severity: findings.SeverityLow, References: []string{"a", "b"}}
	assert.Empty(t, New().Diff(f, f.Clone()))
}

func TestDiffIgnoredFields(t *testing.T) {
	left := findings.Finding{Title: "a", ExtraFields: map[string]any{"merge_origin": "merged"}}
	right := findings.Finding{Title: "b"}
	d := New(WithIgnoredFields(findings.FieldTitle, "extra_fields.*"))
	assert.Empty(t, d.Diff(left, right))
}

func TestEqual(t *testing.T) {
	d := New()
	tests := []struct {
		name        string
		field       string
		left, right any
		want        bool
	}{
		{"text normalized", findings.FieldImpact, "Data  loss!", "data loss", true},
		{"text differs", findings.FieldImpact, "data loss", "data theft", false},
		{"text empty vs nil", findings.FieldImpact, "", nil, true},
		{"exact folded", findings.FieldFindingType, "Injection ", "injection", true},
		{"exact punctuation", findings.FieldFindingType, "XSS-Stored", "XSS Stored", false},
		{"score equal", findings.FieldCVSSScore, 7.5, 7.5, true},
		{"score vs nil", findings.FieldCVSSScore, 7.5, nil, false},
		{"both scores nil", findings.FieldCVSSScore, nil, nil, true},
		{"set order", findings.FieldReferences, []string{"a", "b"}, []string{"b", "a"}, true},
		{"set differs", findings.FieldTags, []string{"a"}, []string{"a", "b"}, false},
		{"extra numbers", findings.ExtraField("n"), int64(5), 5.0, true},
		{"extra bool", findings.ExtraField("b"), true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Equal(tt.field, tt.left, tt.right))
		})
	}

	strict := New(WithStrictText(true))
	assert.False(t, strict.Equal(findings.FieldImpact, "Data loss", "data loss"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "(empty)", Format(nil, 10))
	assert.Equal(t, "(empty)", Format("  ", 10))
	assert.Equal(t, "a, b", Format([]string{"a", "b"}, 10))
	assert.Equal(t, "7.5", Format(7.5, 10))
	assert.Equal(t, "a long...", Format("a long\nline of text", 9))
	assert.Equal(t, "High", Format(findings.SeverityHigh, 10))
}
