// Package findings defines the finding record model shared by every stage
// of a merge, together with the JSON and YAML collaborator that reads and
// writes finding collections.
package findings

import (
	"maps"
	"slices"
	"strings"
)

// Side names one of the two input collections.
type Side string

// Sides of a merge.
const (
	Left  Side = "left"
	Right Side = "right"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Finding is one security-assessment report entry.
type Finding struct {
	ID                         ID             `json:"id" yaml:"id"`
	Severity                   Severity       `json:"severity" yaml:"severity"`
	CVSSScore                  *float64       `json:"cvss_score" yaml:"cvss_score"`
	CVSSVector                 string         `json:"cvss_vector" yaml:"cvss_vector"`
	FindingType                string         `json:"finding_type" yaml:"finding_type"`
	Title                      string         `json:"title" yaml:"title"`
	Description                string         `json:"description" yaml:"description"`
	Impact                     string         `json:"impact" yaml:"impact"`
	Mitigation                 string         `json:"mitigation" yaml:"mitigation"`
	ReplicationSteps           string         `json:"replication_steps" yaml:"replication_steps"`
	HostDetectionTechniques    string         `json:"host_detection_techniques" yaml:"host_detection_techniques"`
	NetworkDetectionTechniques string         `json:"network_detection_techniques" yaml:"network_detection_techniques"`
	References                 []string       `json:"references" yaml:"references"`
	FindingGuidance            string         `json:"finding_guidance" yaml:"finding_guidance"`
	Tags                       []string       `json:"tags" yaml:"tags"`
	ExtraFields                map[string]any `json:"extra_fields" yaml:"extra_fields"`
}

// Clone returns a deep copy; resolution never mutates input findings.
func (f Finding) Clone() Finding {
	c := f
	if f.CVSSScore != nil {
		score := *f.CVSSScore
		c.CVSSScore = &score
	}
	c.References = slices.Clone(f.References)
	c.Tags = slices.Clone(f.Tags)
	if f.ExtraFields != nil {
		c.ExtraFields = maps.Clone(f.ExtraFields)
	}
	return c
}

// ExtraKeys returns the sorted extra field keys.
func (f Finding) ExtraKeys() []string {
	return slices.Sorted(maps.Keys(f.ExtraFields))
}

// Label is a short human reference such as "#12 SQL Injection".
func (f Finding) Label() string {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		title = "(untitled)"
	}
	return "#" + f.ID.String() + " " + title
}

// Score returns a pointer to v, for building findings with a CVSS score.
func Score(v float64) *float64 {
	return &v
}

// Index maps IDs to positions in a collection.
func Index(list []Finding) map[ID]int {
	idx := make(map[ID]int, len(list))
	for i, f := range list {
		idx[f.ID] = i
	}
	return idx
}

// SortByID orders a collection by ID in place.
func SortByID(list []Finding) {
	slices.SortStableFunc(list, func(a, b Finding) int {
		return a.ID.Compare(b.ID)
	})
}
