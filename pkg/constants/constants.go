// Package constants provides shared constants used throughout the ghostmerge codebase.
// This includes timeouts, limits, file permissions, and matching defaults
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second

	// LockTimeout is how long a writer waits for an output file lock
	LockTimeout = 10 * time.Second

	// LockRetryDelay is the delay between output lock attempts
	LockRetryDelay = 100 * time.Millisecond
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Matching defaults
const (
	// DefaultThreshold is the minimum score for a first pass match
	DefaultThreshold = 0.6

	// DefaultOrphanThreshold is the minimum score for orphan pass matches
	DefaultOrphanThreshold = 0.45

	// DefaultWeightTitle is the default title weight
	DefaultWeightTitle = 0.5

	// DefaultWeightDescription is the default description weight
	DefaultWeightDescription = 0.3

	// DefaultWeightFindingType is the default finding type weight
	DefaultWeightFindingType = 0.2

	// DefaultIDStart is the first ID assigned when renumbering output
	DefaultIDStart = 1

	// DefaultMaxDecisionAttempts bounds how often an invalid decision is re-requested
	DefaultMaxDecisionAttempts = 5

	// DefaultOutputSuffix is appended to input paths when no output path is given
	DefaultOutputSuffix = ".merged.json"

	// DefaultCandidateFloor is the lowest score listed by the candidates command
	DefaultCandidateFloor = 0.2
)

// Output extra field keys written by renumbering
const (
	// ExtraSourceIDLeft holds the original left ID
	ExtraSourceIDLeft = "source_id_left"

	// ExtraSourceIDRight holds the original right ID
	ExtraSourceIDRight = "source_id_right"

	// ExtraMergeOrigin holds merged, left-only or right-only
	ExtraMergeOrigin = "merge_origin"

	// ExtraPairedOutputID holds the ID of the same merged record in the other collection
	ExtraPairedOutputID = "paired_output_id"

	// ExtraMergeReason is "unchanged" or "updated" relative to the side's original finding
	ExtraMergeReason = "merge_reason"
)
