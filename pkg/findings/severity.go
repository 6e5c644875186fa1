package findings

import (
	"fmt"
	"strings"
)

// Severity is the ordered risk rating of a finding.
type Severity string

// Severity levels, highest first.
const (
	SeverityCritical      Severity = "Critical"
	SeverityHigh          Severity = "High"
	SeverityMedium        Severity = "Medium"
	SeverityLow           Severity = "Low"
	SeverityInformational Severity = "Informational"
)

// Severities lists every level from highest to lowest.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInformational,
}

// Rank orders severities; higher is more severe and unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInformational:
		return 1
	default:
		return 0
	}
}

// String returns the severity name.
func (s Severity) String() string {
	return string(s)
}

// IsValid reports whether s is a known level.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// ParseSeverity parses a level name case-insensitively. "Info" and
// "Informative" are accepted for Informational.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, nil
	case "high":
		return SeverityHigh, nil
	case "medium", "moderate":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	case "informational", "info", "informative":
		return SeverityInformational, nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}
