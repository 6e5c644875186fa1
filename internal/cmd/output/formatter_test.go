package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ghostmerge/internal/cmd/table"
	"github.com/agentstation/ghostmerge/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "", want: ""},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableFormatter(t *testing.T) {
	data := table.Data{
		Headers:         []string{"Left", "Score"},
		Rows:            [][]string{{"1", "0.913"}},
		ColumnAlignment: []table.Align{table.AlignRight, table.AlignRight},
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "LEFT")
	assert.Contains(t, out, "0.913")
}

func TestTableFormatterStruct(t *testing.T) {
	type summary struct {
		RunID  string `json:"run_id"`
		Merged int    `json:"merged"`
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, summary{RunID: "r1", Merged: 3}))
	assert.Contains(t, strings.ToUpper(buf.String()), "RUN ID")
	assert.Contains(t, buf.String(), "r1")
}

func TestWrite(t *testing.T) {
	data := table.Data{Headers: []string{"Outcome"}, Rows: [][]string{{"merged"}}}
	raw := map[string]int{"merged": 2}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", data, raw))
	assert.JSONEq(t, `{"merged": 2}`, buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, "yaml", data, raw))
	assert.Equal(t, "merged: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, "table", data, raw))
	assert.Contains(t, buf.String(), "merged")

	assert.Error(t, Write(&buf, "csv", data, raw))
}
