package table

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/ghostmerge/pkg/audit"
)

// AuditToTableData converts audit entries to table format, one row per
// entry in recorded order. Output IDs are shown as "L/R" pairs.
func AuditToTableData(entries []audit.Entry, now time.Time) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			formatTimestamp(e.Time.Time, now),
			string(e.Kind),
			strconv.Itoa(e.Pass),
			pairRef(e.LeftID.String(), e.RightID.String()),
			pairRef(e.OutputLeftID.String(), e.OutputRightID.String()),
			e.Field,
			e.Source,
			Truncate(formatValueAsYAML(e.Value), TitleWidth),
			e.Message,
		})
	}
	return Data{
		Headers: []string{"When", "Kind", "Pass", "Input", "Output", "Field", "Source", "Value", "Message"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft,   // When
			AlignLeft,   // Kind
			AlignRight,  // Pass
			AlignCenter, // Input
			AlignCenter, // Output
			AlignLeft,   // Field
			AlignLeft,   // Source
			AlignLeft,   // Value
			AlignLeft,   // Message
		},
	}
}

// FilterEntries keeps entries whose kind is in kinds and whose field
// matches one of patterns. Empty filters keep everything.
func FilterEntries(entries []audit.Entry, kinds []string, patterns []string) []audit.Entry {
	var out []audit.Entry
	for _, e := range entries {
		if len(kinds) > 0 && !containsFold(kinds, string(e.Kind)) {
			continue
		}
		if len(patterns) > 0 && (e.Field == "" || !MatchField(e.Field, patterns)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// MatchField checks if a field matches any of the provided patterns.
// Supports wildcard matching (e.g., "extra_fields.*" matches "extra_fields.owner").
// Matching is case-insensitive.
func MatchField(field string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	fieldLower := strings.ToLower(field)
	for _, pattern := range patterns {
		patternLower := strings.ToLower(pattern)

		matched, err := filepath.Match(patternLower, fieldLower)
		if err == nil && matched {
			return true
		}

		if strings.HasSuffix(patternLower, ".*") {
			prefix := strings.TrimSuffix(patternLower, ".*")
			if strings.HasPrefix(fieldLower, prefix+".") || fieldLower == prefix {
				return true
			}
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func pairRef(left, right string) string {
	switch {
	case left == "" && right == "":
		return "-"
	case right == "":
		return left + "/-"
	case left == "":
		return "-/" + right
	}
	return left + "/" + right
}

// formatValueAsYAML formats an audit value for display.
// Complex values (maps, slices) are flattened YAML.
func formatValueAsYAML(val any) string {
	if val == nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		if v == "" {
			return "<empty>"
		}
		return v
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	}

	yamlBytes, err := yaml.MarshalWithOptions(val, yaml.Flow(true))
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(yamlBytes), "\n")
}

// formatTimestamp formats a timestamp relative to now.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("2006-01-02 15:04")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hr ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02 15:04")
}
