// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on this interface rather than on
// the concrete App so they can be tested with a Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/ghostmerge"
	"github.com/agentstation/ghostmerge/pkg/engine"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/ghostmerge/app implements it.
type Interface interface {
	// Client creates a merge client from the loaded engine configuration.
	// Options passed here are applied after the configuration, so they win.
	Client(opts ...ghostmerge.Option) (ghostmerge.Client, error)

	// EngineConfig returns a copy of the engine configuration loaded from
	// the config file, the environment and defaults.
	EngineConfig() engine.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// NoColor reports whether colored output is disabled.
	NoColor() bool

	// Quiet reports whether informational output such as hints is suppressed.
	Quiet() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
