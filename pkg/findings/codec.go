package findings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/gofrs/flock"

	"github.com/agentstation/ghostmerge/pkg/constants"
	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Format is a collection interchange format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from a file extension, defaulting to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeOption configures collection decoding.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	allowed []Severity
	source  string
}

// WithAllowedSeverities restricts the accepted severity levels.
func WithAllowedSeverities(levels ...Severity) DecodeOption {
	return func(o *decodeOptions) {
		o.allowed = levels
	}
}

// WithSourceName names the input in error messages.
func WithSourceName(name string) DecodeOption {
	return func(o *decodeOptions) {
		o.source = name
	}
}

// Decode parses and validates a collection. Every invalid record is
// reported; nothing is returned unless the whole collection is valid.
func Decode(data []byte, format Format, opts ...DecodeOption) ([]Finding, error) {
	o := &decodeOptions{allowed: Severities}
	for _, opt := range opts {
		opt(o)
	}

	var raw []map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapParse(string(format), o.source, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.WrapParse(string(FormatJSON), o.source, err)
		}
	}

	list := make([]Finding, 0, len(raw))
	var problems errors.MultiError
	for i, m := range raw {
		f, err := FromMap(m, o.allowed)
		if err != nil {
			problems.Append(fmt.Errorf("record %d: %w", i, err))
			continue
		}
		list = append(list, f)
	}
	problems.Append(CheckUniqueIDs(list))
	if err := problems.ErrorOrNil(); err != nil {
		return nil, err
	}
	return list, nil
}

// FromMap builds a validated Finding from an untyped record. Unknown
// scalar keys are kept as extra fields.
func FromMap(m map[string]any, allowed []Severity) (Finding, error) {
	var f Finding
	var problems errors.MultiError

	id, err := ParseID(m["id"])
	if err != nil {
		problems.Append(errors.NewValidationError("id", m["id"], err.Error()))
	}
	f.ID = id

	rawSeverity, _ := m[FieldSeverity].(string)
	sev, err := ParseSeverity(rawSeverity)
	switch {
	case err != nil:
		problems.Append(errors.NewValidationError(FieldSeverity, m[FieldSeverity], err.Error()))
	case len(allowed) > 0 && !slices.Contains(allowed, sev):
		problems.Append(errors.NewValidationError(FieldSeverity, sev, fmt.Sprintf("severity %s not allowed", sev)))
	default:
		f.Severity = sev
	}

	for key, value := range m {
		switch key {
		case "id", FieldSeverity:
			continue
		case FieldExtraFields:
			extras, ok := value.(map[string]any)
			if value != nil && !ok {
				problems.Append(errors.NewValidationError(key, value, "expected a mapping"))
				continue
			}
			for k, v := range extras {
				problems.Append(f.Set(ExtraField(k), normalizeNumber(v)))
			}
			continue
		}

		value = normalizeNumber(value)
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			value = nil
		}
		if _, isText := textField(&f, key); isText && value != nil && isScalar(value) {
			value = fmt.Sprint(value)
		}
		if IsKnownField(key) {
			problems.Append(f.Set(key, value))
			continue
		}
		if value != nil && isScalar(value) {
			problems.Append(f.Set(ExtraField(key), value))
		}
	}

	if err := problems.ErrorOrNil(); err != nil {
		return Finding{}, err
	}
	return f, nil
}

// normalizeNumber turns JSON numbers and YAML integers into int64 or
// float64.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if fl, err := n.Float64(); err == nil {
			return fl
		}
		return n.String()
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
		return float64(n)
	case int:
		return int64(n)
	}
	return v
}

// CheckUniqueIDs reports IDs that occur more than once in one collection.
func CheckUniqueIDs(list []Finding) error {
	seen := make(map[ID]struct{}, len(list))
	var problems errors.MultiError
	for _, f := range list {
		if f.ID.IsZero() {
			continue
		}
		if _, ok := seen[f.ID]; ok {
			problems.Append(errors.NewValidationError("id", f.ID, "duplicate id "+f.ID.String()))
			continue
		}
		seen[f.ID] = struct{}{}
	}
	return problems.ErrorOrNil()
}

// Encode serializes a collection.
func Encode(list []Finding, format Format) ([]byte, error) {
	if list == nil {
		list = []Finding{}
	}
	switch format {
	case FormatYAML:
		return yaml.MarshalWithOptions(list, yaml.Indent(2), yaml.IndentSequence(false))
	default:
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Load reads and decodes a collection file.
func Load(path string, opts ...DecodeOption) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("collection", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	opts = append([]DecodeOption{WithSourceName(path)}, opts...)
	return Decode(data, DetectFormat(path), opts...)
}

// Output is one collection bound for one file.
type Output struct {
	Path     string
	Findings []Finding
}

// Save encodes a collection and writes it atomically under a file lock.
func Save(ctx context.Context, path string, list []Finding) error {
	return SaveAll(ctx, Output{Path: path, Findings: list})
}

// SaveAll writes several collections as one unit. Every target is locked
// and staged in a temp file before the first one is replaced, so an encode,
// lock or write failure leaves all targets untouched.
func SaveAll(ctx context.Context, outputs ...Output) error {
	files := make([]File, len(outputs))
	for i, o := range outputs {
		format := DetectFormat(o.Path)
		data, err := Encode(o.Findings, format)
		if err != nil {
			return errors.WrapParse(string(format), o.Path, err)
		}
		files[i] = File{Path: o.Path, Data: data}
	}
	return WriteFiles(ctx, files...)
}

// File is encoded content bound for path.
type File struct {
	Path string
	Data []byte
}

// lockTimeout bounds the wait for each output lock.
var lockTimeout = constants.LockTimeout

// WriteFile replaces path with data. See WriteFiles.
func WriteFile(ctx context.Context, path string, data []byte) error {
	return WriteFiles(ctx, File{Path: path, Data: data})
}

// WriteFiles replaces each file's path with its data. It holds an exclusive
// lock on a sidecar ".lock" file per target, taken in path order, and
// renames temp files into place only after all of them are written. Readers
// never see a partial collection. A lock still held by another writer after
// the lock timeout is reported as errors.ErrLocked.
func WriteFiles(ctx context.Context, files ...File) error {
	order := make([]int, len(files))
	for i := range files {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return strings.Compare(files[a].Path, files[b].Path) })
	for k := 1; k < len(order); k++ {
		if files[order[k]].Path == files[order[k-1]].Path {
			return errors.NewValidationError("output", files[order[k]].Path, "written twice in one save")
		}
	}

	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}

	for _, i := range order {
		unlock, err := acquire(ctx, files[i].Path)
		if err != nil {
			return err
		}
		defer unlock()
	}

	staged := make([]string, 0, len(files))
	defer func() {
		for _, name := range staged {
			_ = os.Remove(name)
		}
	}()
	for _, f := range files {
		name, err := stage(f)
		if err != nil {
			return err
		}
		staged = append(staged, name)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			return errors.WrapIO("rename", f.Path, err)
		}
	}
	return nil
}

func acquire(ctx context.Context, path string) (func(), error) {
	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, constants.LockRetryDelay)
	switch {
	case ctx.Err() != nil:
		return nil, errors.WrapIO("lock", path, ctx.Err())
	case err != nil && !errors.Is(err, context.DeadlineExceeded):
		return nil, errors.WrapIO("lock", path, err)
	case err != nil || !locked:
		return nil, errors.WrapIO("lock", path, errors.ErrLocked)
	}
	return func() { _ = lock.Unlock() }, nil
}

func stage(f File) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return "", errors.WrapIO("create", f.Path, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", errors.WrapIO("write", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", errors.WrapIO("write", name, err)
	}
	if err := os.Chmod(name, constants.FilePermissions); err != nil {
		_ = os.Remove(name)
		return "", errors.WrapIO("write", name, err)
	}
	return name, nil
}
