package findings

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Field names as they appear on the wire.
const (
	FieldSeverity                   = "severity"
	FieldCVSSScore                  = "cvss_score"
	FieldCVSSVector                 = "cvss_vector"
	FieldFindingType                = "finding_type"
	FieldTitle                      = "title"
	FieldDescription                = "description"
	FieldImpact                     = "impact"
	FieldMitigation                 = "mitigation"
	FieldReplicationSteps           = "replication_steps"
	FieldHostDetectionTechniques    = "host_detection_techniques"
	FieldNetworkDetectionTechniques = "network_detection_techniques"
	FieldReferences                 = "references"
	FieldFindingGuidance            = "finding_guidance"
	FieldTags                       = "tags"
	FieldExtraFields                = "extra_fields"
)

// ExtraPrefix addresses a single extra field, as in "extra_fields.owner".
const ExtraPrefix = FieldExtraFields + "."

// Fields lists the mergeable standard fields in resolution order.
var Fields = []string{
	FieldSeverity,
	FieldCVSSScore,
	FieldCVSSVector,
	FieldFindingType,
	FieldTitle,
	FieldDescription,
	FieldImpact,
	FieldMitigation,
	FieldReplicationSteps,
	FieldHostDetectionTechniques,
	FieldNetworkDetectionTechniques,
	FieldReferences,
	FieldFindingGuidance,
	FieldTags,
}

// Kind classifies how a field's values are compared and merged.
type Kind int

// Field kinds.
const (
	KindText Kind = iota
	KindExact
	KindSeverity
	KindScore
	KindSet
	KindExtra
)

// KindOf returns the kind of a field name.
func KindOf(field string) Kind {
	switch field {
	case FieldSeverity:
		return KindSeverity
	case FieldCVSSScore:
		return KindScore
	case FieldCVSSVector, FieldFindingType:
		return KindExact
	case FieldTags, FieldReferences:
		return KindSet
	}
	if IsExtraField(field) {
		return KindExtra
	}
	return KindText
}

// IsExtraField reports whether field addresses an extra field.
func IsExtraField(field string) bool {
	return strings.HasPrefix(field, ExtraPrefix)
}

// ExtraField returns the field name of an extra key.
func ExtraField(key string) string {
	return ExtraPrefix + key
}

// IsKnownField reports whether field can be read and written.
func IsKnownField(field string) bool {
	if IsExtraField(field) {
		return len(field) > len(ExtraPrefix)
	}
	_, ok := textField(&Finding{}, field)
	return ok || field == FieldSeverity || field == FieldCVSSScore || field == FieldTags || field == FieldReferences
}

// textField returns a pointer to a plain string field.
func textField(f *Finding, field string) (*string, bool) {
	switch field {
	case FieldCVSSVector:
		return &f.CVSSVector, true
	case FieldFindingType:
		return &f.FindingType, true
	case FieldTitle:
		return &f.Title, true
	case FieldDescription:
		return &f.Description, true
	case FieldImpact:
		return &f.Impact, true
	case FieldMitigation:
		return &f.Mitigation, true
	case FieldReplicationSteps:
		return &f.ReplicationSteps, true
	case FieldHostDetectionTechniques:
		return &f.HostDetectionTechniques, true
	case FieldNetworkDetectionTechniques:
		return &f.NetworkDetectionTechniques, true
	case FieldFindingGuidance:
		return &f.FindingGuidance, true
	}
	return nil, false
}

// Get returns a field value: string for text, Severity, float64 or nil for
// the CVSS score, []string for sets, and the raw scalar (or nil) for extras.
func (f Finding) Get(field string) (any, bool) {
	if s, ok := textField(&f, field); ok {
		return *s, true
	}
	switch field {
	case FieldSeverity:
		return f.Severity, true
	case FieldCVSSScore:
		if f.CVSSScore == nil {
			return nil, true
		}
		return *f.CVSSScore, true
	case FieldTags:
		return f.Tags, true
	case FieldReferences:
		return f.References, true
	}
	if IsExtraField(field) {
		return f.ExtraFields[strings.TrimPrefix(field, ExtraPrefix)], true
	}
	return nil, false
}

// Set assigns a field value after checking it against the field's type.
// A nil value clears the field.
func (f *Finding) Set(field string, value any) error {
	if s, ok := textField(f, field); ok {
		if value == nil {
			*s = ""
			return nil
		}
		str, ok := value.(string)
		if !ok {
			return errors.NewValidationError(field, value, fmt.Sprintf("expected text, got %T", value))
		}
		*s = strings.TrimSpace(str)
		return nil
	}

	switch field {
	case FieldSeverity:
		if value == nil {
			f.Severity = ""
			return nil
		}
		sev, err := coerceSeverity(value)
		if err != nil {
			return errors.WrapValidation(field, err)
		}
		f.Severity = sev
		return nil
	case FieldCVSSScore:
		if value == nil {
			f.CVSSScore = nil
			return nil
		}
		score, err := CoerceScore(value)
		if err != nil {
			return errors.NewValidationError(field, value, err.Error())
		}
		f.CVSSScore = &score
		return nil
	case FieldTags:
		list, err := coerceStrings(value)
		if err != nil {
			return errors.NewValidationError(field, value, err.Error())
		}
		f.Tags = NormalizeTags(list)
		return nil
	case FieldReferences:
		list, err := coerceStrings(value)
		if err != nil {
			return errors.NewValidationError(field, value, err.Error())
		}
		f.References = NormalizeReferences(list)
		return nil
	}

	if IsExtraField(field) && len(field) > len(ExtraPrefix) {
		key := strings.TrimPrefix(field, ExtraPrefix)
		if value == nil {
			delete(f.ExtraFields, key)
			return nil
		}
		if !isScalar(value) {
			return errors.NewValidationError(field, value, fmt.Sprintf("extra fields hold scalars, got %T", value))
		}
		if f.ExtraFields == nil {
			f.ExtraFields = make(map[string]any)
		}
		f.ExtraFields[key] = value
		return nil
	}

	return errors.NewValidationError(field, value, "unknown field")
}

func coerceSeverity(value any) (Severity, error) {
	switch v := value.(type) {
	case Severity:
		return ParseSeverity(string(v))
	case string:
		return ParseSeverity(v)
	default:
		return "", fmt.Errorf("expected a severity name, got %T", value)
	}
}

// CoerceScore converts numbers and numeric strings into a CVSS score in [0,10].
func CoerceScore(value any) (float64, error) {
	var score float64
	switch v := value.(type) {
	case float64:
		score = v
	case float32:
		score = float64(v)
	case int:
		score = float64(v)
	case int64:
		score = float64(v)
	case uint64:
		score = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid cvss score %q", v.String())
		}
		score = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid cvss score %q", v)
		}
		score = f
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
	if math.IsNaN(score) || score < 0 || score > 10 {
		return 0, fmt.Errorf("cvss score %v outside 0..10", score)
	}
	return score, nil
}

func coerceStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if !isScalar(item) {
				return nil, fmt.Errorf("list items must be scalars, got %T", item)
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", value)
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number, Severity, ID:
		return true
	}
	return false
}

// IsEmpty reports whether a field value carries no information.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case Severity:
		return x == ""
	case []string:
		return len(x) == 0
	case *float64:
		return x == nil
	}
	return false
}
