// Package logging wraps zerolog for ghostmerge. Loggers travel in the
// context so that every event of a merge run carries its run ID, and
// events about a pair carry both original finding IDs.
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithMatch(ctx, "4", "7")
//	logging.FromContext(ctx).Debug().Str("field", "severity").Msg("Requesting decision")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agentstation/ghostmerge/pkg/constants"
)

// Config describes a logger.
type Config struct {
	Level  string // trace, debug, info, warn, error, off
	Format string // auto, json, console
	Output string // stderr, stdout, discard or a file path

	// TimeFormat is a Go layout or one of kitchen, rfc3339, unix.
	TimeFormat string
	NoColor    bool
	AddCaller  bool

	// Fields are attached to every event.
	Fields map[string]any
}

// DefaultConfig returns info-level console-or-JSON logging to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
		Fields:     map[string]any{},
	}
}

var defaultLogger = NewLoggerFromConfig(&Config{
	Level:   os.Getenv("LOG_LEVEL"),
	Format:  os.Getenv("LOG_FORMAT"),
	NoColor: os.Getenv("NO_COLOR") != "",
})

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's global.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// NewLoggerFromConfig builds a logger. Debug and trace levels always
// record the caller.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	zctx := zerolog.New(writer(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		zctx = zctx.Caller()
	}
	for k, v := range cfg.Fields {
		zctx = addField(zctx, k, v)
	}
	return zctx.Logger()
}

func writer(cfg *Config) io.Writer {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		return io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return out
	case "console", "pretty":
	default:
		f, ok := out.(*os.File)
		if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			return out
		}
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: timeLayout(cfg.TimeFormat), NoColor: cfg.NoColor}
}

// ParseLevel maps a level name to a zerolog level. Unknown names are info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func timeLayout(name string) string {
	switch strings.ToLower(name) {
	case "", "kitchen":
		return time.Kitchen
	case "rfc3339":
		return time.RFC3339
	case "unix":
		return ""
	}
	if strings.Contains(name, "15:04") || strings.Contains(name, "2006") {
		return name
	}
	return time.Kitchen
}

func addField(zctx zerolog.Context, key string, value any) zerolog.Context {
	switch v := value.(type) {
	case string:
		return zctx.Str(key, v)
	case int:
		return zctx.Int(key, v)
	case float64:
		return zctx.Float64(key, v)
	case bool:
		return zctx.Bool(key, v)
	case error:
		return zctx.AnErr(key, v)
	case interface{ String() string }:
		return zctx.Stringer(key, v)
	default:
		return zctx.Interface(key, v)
	}
}
