// Package emoji provides symbol constants for CLI output.
// These symbols create a consistent visual language across commands.
package emoji

// Symbol constants for status indicators and operator prompts.
const (
	// Success represents successful completion of an operation.
	// Used for: valid files, accepted matches.
	Success = "✓"

	// Error represents failures.
	// Used for: invalid files, rejected matches, scan errors.
	Error = "✗"

	// Warning represents non-critical issues.
	// Used for: flag-only terms, refused decisions.
	Warning = "!"

	// Arrow marks the suggested value of a conflict.
	Arrow = "→"

	// Info represents informational messages.
	Info = "i"
)
