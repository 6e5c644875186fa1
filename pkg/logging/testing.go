package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger records JSON log events in memory.
type TestLogger struct {
	*zerolog.Logger
	Buffer *bytes.Buffer
}

// NewTestLogger returns a trace-level logger writing to a buffer. The
// global level is restored when t finishes.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	buf := &bytes.Buffer{}
	l := zerolog.New(buf).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	return &TestLogger{Logger: &l, Buffer: buf}
}

// CaptureLoggingForTest installs a TestLogger as the default until t ends.
func CaptureLoggingForTest(t testing.TB) *TestLogger {
	t.Helper()
	prev := *Default()
	tl := NewTestLogger(t)
	SetDefault(*tl.Logger)
	t.Cleanup(func() { SetDefault(prev) })
	return tl
}

// Output returns everything logged so far.
func (tl *TestLogger) Output() string { return tl.Buffer.String() }

// Lines returns one entry per logged event.
func (tl *TestLogger) Lines() []string {
	out := strings.TrimSpace(tl.Output())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Count returns the number of logged events.
func (tl *TestLogger) Count() int { return len(tl.Lines()) }

// Contains reports whether any event contains substr.
func (tl *TestLogger) Contains(substr string) bool {
	return strings.Contains(tl.Output(), substr)
}

// ContainsAll reports whether the output contains every substr.
func (tl *TestLogger) ContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !tl.Contains(s) {
			return false
		}
	}
	return true
}
