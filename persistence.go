package ghostmerge

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence handles collection and audit files.
type Persistence interface {
	// Load reads and validates both input collections
	Load(leftPath, rightPath string) (left, right []findings.Finding, err error)

	// Save writes both output collections
	Save(ctx context.Context, result *engine.Result, leftPath, rightPath string) error

	// SaveAudit writes the audit trail as YAML, JSON or a markdown report
	SaveAudit(ctx context.Context, result *engine.Result, path string) error
}

// Load reads both collections with the configured severity rules.
func (c *client) Load(leftPath, rightPath string) ([]findings.Finding, []findings.Finding, error) {
	opts, err := c.options.config.DecodeOptions()
	if err != nil {
		return nil, nil, err
	}
	left, err := findings.Load(leftPath, opts...)
	if err != nil {
		return nil, nil, err
	}
	right, err := findings.Load(rightPath, opts...)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// Save writes the left and right outputs. The format follows each path's
// extension. Neither file is replaced unless both can be written.
func (c *client) Save(ctx context.Context, result *engine.Result, leftPath, rightPath string) error {
	if result == nil || result.Output == nil {
		return &errors.ValidationError{Field: "result", Message: "nothing to save"}
	}
	if leftPath == rightPath {
		return errors.NewValidationError("output", leftPath, "left and right outputs must differ")
	}
	return findings.SaveAll(ctx,
		findings.Output{Path: leftPath, Findings: result.Left()},
		findings.Output{Path: rightPath, Findings: result.Right()},
	)
}

// SaveAudit writes the audit trail. ".md" paths get a markdown report,
// ".json" paths JSON and anything else YAML.
func (c *client) SaveAudit(ctx context.Context, result *engine.Result, path string) error {
	if result == nil || result.Audit == nil {
		return &errors.ValidationError{Field: "result", Message: "no audit log"}
	}
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		var buf bytes.Buffer
		if err := result.Audit.WriteMarkdown(&buf, result.Stats.Audit()); err != nil {
			return err
		}
		data = buf.Bytes()
	case ".json":
		encoded, err := json.MarshalIndent(result.Audit.File(), "", "  ")
		if err != nil {
			return errors.WrapParse("json", path, err)
		}
		data = append(encoded, '\n')
	default:
		encoded, err := result.Audit.EncodeYAML()
		if err != nil {
			return err
		}
		data = encoded
	}
	return findings.WriteFile(ctx, path, data)
}

// OutputPath is the default output path for an input collection.
func OutputPath(input, suffix string) string {
	return input + suffix
}
