// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/ghostmerge/internal/cmd/table"
	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter writes a value in one encoding.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(io.Writer, any) error

// Format calls f.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter returns the formatter for format. Unknown formats render
// as tables.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return FormatterFunc(writeJSON)
	case FormatYAML:
		return FormatterFunc(writeYAML)
	default:
		return &TableFormatter{}
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeYAML(w io.Writer, data any) error {
	b, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// TableFormatter renders table.Data directly and flattens structs and
// struct slices into tables. Anything else falls back to JSON.
type TableFormatter struct{}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case table.Data:
		return render(w, v)
	case *table.Data:
		return render(w, *v)
	}
	if td, ok := reflectTable(reflect.ValueOf(data)); ok {
		return render(w, td)
	}
	return writeJSON(w, data)
}

var alignments = map[table.Align]tw.Align{
	table.AlignLeft:   tw.AlignLeft,
	table.AlignCenter: tw.AlignCenter,
	table.AlignRight:  tw.AlignRight,
}

func render(w io.Writer, data table.Data) error {
	var cfg tablewriter.Config
	if n := len(data.ColumnAlignment); n > 0 {
		per := make([]tw.Align, n)
		for i, a := range data.ColumnAlignment {
			if mapped, ok := alignments[a]; ok {
				per[i] = mapped
			} else {
				per[i] = tw.Skip
			}
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: per}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: per}
	}

	tbl := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	if len(data.Headers) > 0 {
		tbl.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := tbl.Append(cells(row)...); err != nil {
			return err
		}
	}
	return tbl.Render()
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}

// DetectFormat returns explicit when set, otherwise table for a terminal
// and JSON for pipes and redirects.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat validates a --format value. The empty string means detect.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case FormatTable, FormatJSON, FormatYAML, "":
		return f, nil
	}
	return "", errors.NewValidationError("format", s, "must be one of: table, json, yaml")
}

// reflectTable turns a struct into a Property/Value table and a non-empty
// struct slice into one row per element.
func reflectTable(v reflect.Value) (table.Data, bool) {
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.Struct:
		td := table.Data{Headers: []string{"Property", "Value"}}
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			td.Rows = append(td.Rows, []string{label(field), fmt.Sprint(v.Field(i).Interface())})
		}
		return td, true
	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct:
		elem := v.Index(0).Type()
		var td table.Data
		for i := 0; i < elem.NumField(); i++ {
			if elem.Field(i).IsExported() {
				td.Headers = append(td.Headers, label(elem.Field(i)))
			}
		}
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			var row []string
			for j := 0; j < item.NumField(); j++ {
				if elem.Field(j).IsExported() {
					row = append(row, fmt.Sprint(item.Field(j).Interface()))
				}
			}
			td.Rows = append(td.Rows, row)
		}
		return td, true
	}
	return table.Data{}, false
}

// label prefers the json tag ("run_id" becomes "Run Id").
func label(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if tag == "" || tag == "-" {
		return f.Name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(tag, "_", " "))
}
