package output

import (
	"io"

	"github.com/agentstation/ghostmerge/internal/cmd/table"
)

// Write handles the common pattern of formatting command results: tables
// get the prepared table data, structured formats get raw.
func Write(w io.Writer, format string, tableData table.Data, raw any) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	f = DetectFormat(string(f))

	var data any = raw
	if f == FormatTable {
		data = tableData
	}
	return NewFormatter(f).Format(w, data)
}
