package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/errors"
)

func TestIDCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b ID
		want int
	}{
		{"numeric less", "2", "10", -1},
		{"numeric equal", "7", "7", 0},
		{"numeric greater", "11", "9", 1},
		{"numbers before strings", "99", "abc", -1},
		{"strings lexical", "b-2", "a-9", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(float64(12))
	require.NoError(t, err)
	assert.Equal(t, ID("12"), id)

	id, err = ParseID(" F-3 ")
	require.NoError(t, err)
	assert.Equal(t, ID("F-3"), id)

	_, err = ParseID(1.5)
	assert.Error(t, err)
	_, err = ParseID(nil)
	assert.Error(t, err)
}

func TestIDJSON(t *testing.T) {
	data, err := ID("42").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))

	data, err = ID("F-1").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"F-1"`, string(data))

	var id ID
	require.NoError(t, id.UnmarshalJSON([]byte("17")))
	assert.Equal(t, ID("17"), id)
	require.NoError(t, id.UnmarshalJSON([]byte(`"x"`)))
	assert.Equal(t, ID("x"), id)
}

func TestSeverity(t *testing.T) {
	sev, err := ParseSeverity(" critical ")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, sev)

	sev, err = ParseSeverity("Info")
	require.NoError(t, err)
	assert.Equal(t, SeverityInformational, sev)

	_, err = ParseSeverity("Severe")
	assert.Error(t, err)

	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Equal(t, 0, Severity("bogus").Rank())
	assert.False(t, Severity("").IsValid())
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Web, SQLi", "web  auth", "", "AUTH"})
	assert.Equal(t, []string{"auth", "sqli", "web"}, got)
	assert.Empty(t, NormalizeTags(nil))
}

func TestNormalizeReferences(t *testing.T) {
	got := NormalizeReferences([]string{"https://owasp.org\nhttps://cwe.mitre.org/89", " https://owasp.org ", ""})
	assert.Equal(t, []string{"https://owasp.org", "https://cwe.mitre.org/89"}, got)
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Union([]string{"a", "b"}, []string{"c", "a"}))
}

func TestFindingGetSet(t *testing.T) {
	f := Finding{ID: "1", Title: "SQL Injection", Severity: SeverityHigh}

	t.Run("text", func(t *testing.T) {
		require.NoError(t, f.Set(FieldImpact, "  Data loss "))
		v, ok := f.Get(FieldImpact)
		require.True(t, ok)
		assert.Equal(t, "Data loss", v)

		err := f.Set(FieldImpact, 3)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("severity", func(t *testing.T) {
		require.NoError(t, f.Set(FieldSeverity, "critical"))
		assert.Equal(t, SeverityCritical, f.Severity)
		assert.Error(t, f.Set(FieldSeverity, "urgent"))
		assert.Equal(t, SeverityCritical, f.Severity)
	})

	t.Run("cvss score", func(t *testing.T) {
		require.NoError(t, f.Set(FieldCVSSScore, "7.5"))
		v, _ := f.Get(FieldCVSSScore)
		assert.Equal(t, 7.5, v)
		assert.Error(t, f.Set(FieldCVSSScore, 11.0))
		assert.Error(t, f.Set(FieldCVSSScore, "high"))
		require.NoError(t, f.Set(FieldCVSSScore, nil))
		v, _ = f.Get(FieldCVSSScore)
		assert.Nil(t, v)
	})

	t.Run("sets", func(t *testing.T) {
		require.NoError(t, f.Set(FieldTags, "Web, SQLi"))
		assert.Equal(t, []string{"sqli", "web"}, f.Tags)
		require.NoError(t, f.Set(FieldReferences, []any{"https://a", "https://b"}))
		assert.Equal(t, []string{"https://a", "https://b"}, f.References)
		assert.Error(t, f.Set(FieldTags, map[string]any{}))
	})

	t.Run("extra fields", func(t *testing.T) {
		require.NoError(t, f.Set(ExtraField("owner"), "blue team"))
		v, ok := f.Get(ExtraField("owner"))
		require.True(t, ok)
		assert.Equal(t, "blue team", v)
		assert.Error(t, f.Set(ExtraField("nested"), map[string]any{"a": 1}))
		require.NoError(t, f.Set(ExtraField("owner"), nil))
		assert.NotContains(t, f.ExtraFields, "owner")
	})

	t.Run("unknown field", func(t *testing.T) {
		assert.Error(t, f.Set("priority", "p1"))
		_, ok := f.Get("priority")
		assert.False(t, ok)
	})
}

func TestClone(t *testing.T) {
	f := Finding{
		ID:          "1",
		CVSSScore:   Score(5),
		Tags:        []string{"a"},
		ExtraFields: map[string]any{"k": "v"},
	}
	c := f.Clone()
	*c.CVSSScore = 9
	c.Tags[0] = "changed"
	c.ExtraFields["k"] = "changed"

	assert.Equal(t, 5.0, *f.CVSSScore)
	assert.Equal(t, "a", f.Tags[0])
	assert.Equal(t, "v", f.ExtraFields["k"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSeverity, KindOf(FieldSeverity))
	assert.Equal(t, KindScore, KindOf(FieldCVSSScore))
	assert.Equal(t, KindExact, KindOf(FieldFindingType))
	assert.Equal(t, KindSet, KindOf(FieldTags))
	assert.Equal(t, KindExtra, KindOf(ExtraField("x")))
	assert.Equal(t, KindText, KindOf(FieldDescription))
}

func TestNewOrphanRecord(t *testing.T) {
	f := Finding{ID: "4", Title: "Open redirect"}
	rec := NewOrphanRecord(f, Right)
	assert.Equal(t, OriginRightOnly, rec.Origin)
	assert.Nil(t, rec.Left)
	id, ok := rec.RightID()
	require.True(t, ok)
	assert.Equal(t, ID("4"), id)
	_, ok = rec.LeftID()
	assert.False(t, ok)
}
