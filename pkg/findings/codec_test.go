package findings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/pkg/errors"
)

const sampleJSON = `[
  {
    "id": 1,
    "severity": "High",
    "cvss_score": "8.1",
    "finding_type": "Injection",
    "title": "SQL Injection in Login",
    "description": "",
    "references": "https://owasp.org/sqli\nhttps://cwe.mitre.org/89",
    "tags": "Web, SQLi",
    "extra_fields": {"owner": "app team", "retest": true},
    "priority": "p1"
  },
  {
    "id": "F-2",
    "severity": "low",
    "title": "Verbose banner",
    "tags": ["info", "Info"]
  }
]`

func TestDecodeJSON(t *testing.T) {
	list, err := Decode([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, list, 2)

	first := list[0]
	assert.Equal(t, ID("1"), first.ID)
	assert.Equal(t, SeverityHigh, first.Severity)
	require.NotNil(t, first.CVSSScore)
	assert.Equal(t, 8.1, *first.CVSSScore)
	assert.Equal(t, "", first.Description)
	assert.Equal(t, []string{"https://owasp.org/sqli", "https://cwe.mitre.org/89"}, first.References)
	assert.Equal(t, []string{"sqli", "web"}, first.Tags)
	assert.Equal(t, "app team", first.ExtraFields["owner"])
	assert.Equal(t, true, first.ExtraFields["retest"])
	assert.Equal(t, "p1", first.ExtraFields["priority"])

	second := list[1]
	assert.Equal(t, ID("F-2"), second.ID)
	assert.Equal(t, SeverityLow, second.Severity)
	assert.Equal(t, []string{"info"}, second.Tags)
	assert.Nil(t, second.CVSSScore)
}

func TestDecodeYAML(t *testing.T) {
	data := []byte(`
- id: 3
  severity: Medium
  title: Weak TLS ciphers
  cvss_score: 5.3
  tags: [tls, crypto]
  retest: 2
`)
	list, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ID("3"), list[0].ID)
	assert.Equal(t, 5.3, *list[0].CVSSScore)
	assert.Equal(t, []string{"crypto", "tls"}, list[0].Tags)
	assert.Equal(t, int64(2), list[0].ExtraFields["retest"])
}

func TestDecodeValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts []DecodeOption
		want string
	}{
		{
			name: "bad severity",
			data: `[{"id": 1, "severity": "Severe", "title": "x"}]`,
			want: "unknown severity",
		},
		{
			name: "disallowed severity",
			data: `[{"id": 1, "severity": "Informational", "title": "x"}]`,
			opts: []DecodeOption{WithAllowedSeverities(SeverityHigh, SeverityCritical)},
			want: "not allowed",
		},
		{
			name: "bad cvss",
			data: `[{"id": 1, "severity": "High", "cvss_score": "n/a"}]`,
			want: "invalid cvss score",
		},
		{
			name: "duplicate ids",
			data: `[{"id": 1, "severity": "High"}, {"id": "1", "severity": "Low"}]`,
			want: "duplicate id 1",
		},
		{
			name: "missing id",
			data: `[{"severity": "High"}]`,
			want: "missing id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), FormatJSON, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	_, err := Decode([]byte(`[{"id": 1,`), FormatJSON, WithSourceName("left.json"))
	require.Error(t, err)
	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "left.json", pe.File)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	list, err := Decode([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Save(context.Background(), path, list))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, list, loaded)

			matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp-*"))
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, errors.IsNotFound(err))
}

func TestEncodeNumericIDs(t *testing.T) {
	data, err := Encode([]Finding{{ID: "5", Severity: SeverityLow}}, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": 5`)
	assert.Contains(t, string(data), `"cvss_score": null`)
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, WriteFile(context.Background(), path, []byte("new")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSaveAllLockedTargetLeavesBothUntouched(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "a.json")
	right := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(left, []byte("old a"), 0o644))
	require.NoError(t, os.WriteFile(right, []byte("old b"), 0o644))

	held := flock.New(right + ".lock")
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = held.Unlock() })

	prev := lockTimeout
	lockTimeout = 50 * time.Millisecond
	t.Cleanup(func() { lockTimeout = prev })

	err = SaveAll(context.Background(),
		Output{Path: left, Findings: []Finding{{ID: "1", Title: "A", Severity: SeverityHigh}}},
		Output{Path: right, Findings: []Finding{{ID: "2", Title: "B", Severity: SeverityLow}}},
	)
	require.Error(t, err)
	assert.True(t, errors.IsLocked(err))

	for path, want := range map[string]string{left: "old a", right: "old b"} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, want, string(data), path)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSaveAllWritesEveryTarget(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "a.json")
	right := filepath.Join(dir, "out", "b.yaml")
	require.NoError(t, SaveAll(context.Background(),
		Output{Path: left, Findings: []Finding{{ID: "1", Title: "A", Severity: SeverityHigh}}},
		Output{Path: right, Findings: []Finding{{ID: "2", Title: "B", Severity: SeverityLow}}},
	))
	got, err := Load(right)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Title)
	got, err = Load(left)
	require.NoError(t, err)
	assert.Equal(t, "A", got[0].Title)
}

func TestWriteFilesSamePathTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	err := WriteFiles(context.Background(), File{Path: path, Data: []byte("1")}, File{Path: path, Data: []byte("2")})
	assert.True(t, errors.IsValidationError(err))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
