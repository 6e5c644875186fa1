package findings

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID identifies a finding within one side's collection. Input IDs may be
// integers or strings; IDs are only unique within a side.
type ID string

// IntID returns the ID for an integer identifier.
func IntID(n int) ID {
	return ID(strconv.Itoa(n))
}

// String returns the ID text.
func (id ID) String() string {
	return string(id)
}

// Int returns the integer value of a numeric ID.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// Compare orders IDs numerically when both are integers, otherwise
// integers sort before strings and strings compare lexically.
func (id ID) Compare(other ID) int {
	a, aNum := id.Int()
	b, bNum := other.Int()
	switch {
	case aNum && bNum:
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(string(id), string(other))
}

// Value returns the ID as it should appear in output: an int64 for numeric
// IDs and a string otherwise.
func (id ID) Value() any {
	if n, ok := id.Int(); ok {
		return n
	}
	return string(id)
}

// MarshalJSON writes numeric IDs as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Value())
}

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalYAML writes numeric IDs as YAML integers.
func (id ID) MarshalYAML() (any, error) {
	return id.Value(), nil
}

// UnmarshalYAML accepts a YAML integer or string.
func (id *ID) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID converts a decoded scalar into an ID. Floats are accepted only
// when they hold an integral value.
func ParseID(v any) (ID, error) {
	switch x := v.(type) {
	case ID:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "", fmt.Errorf("empty id")
		}
		return ID(s), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return ID(strconv.FormatInt(n, 10)), nil
		}
		f, err := x.Float64()
		if err != nil {
			return "", fmt.Errorf("invalid id %q", x.String())
		}
		return ParseID(f)
	case int:
		return ID(strconv.Itoa(x)), nil
	case int64:
		return ID(strconv.FormatInt(x, 10)), nil
	case uint64:
		return ID(strconv.FormatUint(x, 10)), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return "", fmt.Errorf("id %v is not an integer", x)
		}
		return ID(strconv.FormatInt(int64(x), 10)), nil
	case nil:
		return "", fmt.Errorf("missing id")
	default:
		return "", fmt.Errorf("unsupported id type %T", v)
	}
}
