// Package app provides the application context and dependency management
// for the ghostmerge CLI. It centralizes configuration, logging and client
// construction so commands only see appcontext.Interface.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/ghostmerge"
	"github.com/agentstation/ghostmerge/internal/appcontext"
	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/errors"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the ghostmerge application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
// Configuration is loaded from .env files, the environment and
// ~/.ghostmerge.yaml, and can be replaced with functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Quiet reports whether -q was given.
func (a *App) Quiet() bool {
	return a.config.Quiet
}

// NoColor reports whether colored output is disabled.
func (a *App) NoColor() bool {
	return a.config.NoColor
}

// EngineConfig returns a copy of the merge configuration.
func (a *App) EngineConfig() engine.Config {
	return a.config.Engine
}

// Client creates a merge client. Every call returns a new client, so
// commands never share decision state.
func (a *App) Client(opts ...ghostmerge.Option) (ghostmerge.Client, error) {
	all := append([]ghostmerge.Option{ghostmerge.WithConfig(a.config.Engine)}, opts...)
	client, err := ghostmerge.New(all...)
	if err != nil {
		return nil, errors.NewConfigError("client", "cannot create merge client", err)
	}
	return client, nil
}

// Shutdown performs graceful shutdown of the application.
// Merges hold no background work, so there is only the log to flush.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutting down")
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
