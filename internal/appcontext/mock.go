package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/ghostmerge"
	"github.com/agentstation/ghostmerge/pkg/engine"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
type Mock struct {
	ClientFunc       func(...ghostmerge.Option) (ghostmerge.Client, error)
	EngineConfigFunc func() engine.Config
	LoggerFunc       func() *zerolog.Logger
	Format           string
	Plain            bool
	Silent           bool
	VersionFunc      func() string
}

// Client returns a client using the mock function, or a real client built
// from EngineConfig.
func (m *Mock) Client(opts ...ghostmerge.Option) (ghostmerge.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	all := append([]ghostmerge.Option{ghostmerge.WithConfig(m.EngineConfig())}, opts...)
	return ghostmerge.New(all...)
}

// EngineConfig returns the mock configuration or the defaults.
func (m *Mock) EngineConfig() engine.Config {
	if m.EngineConfigFunc != nil {
		return m.EngineConfigFunc()
	}
	return engine.DefaultConfig()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns Format, or "table".
func (m *Mock) OutputFormat() string {
	if m.Format == "" {
		return "table"
	}
	return m.Format
}

// NoColor returns Plain.
func (m *Mock) NoColor() bool {
	return m.Plain
}

// Quiet returns Silent.
func (m *Mock) Quiet() bool {
	return m.Silent
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
