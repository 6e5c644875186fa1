package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	runIDKey
)

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && l != nil {
			return l
		}
	}
	return Default()
}

// WithField derives a context whose logger carries key=value.
func WithField(ctx context.Context, key string, value any) context.Context {
	l := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &l)
}

// WithRunID tags the context and its logger with a merge run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return WithField(context.WithValue(ctx, runIDKey, runID), "run_id", runID)
}

// RunID returns the merge run ID stored by WithRunID.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithMatch tags the logger with the original IDs of a pair.
func WithMatch(ctx context.Context, leftID, rightID string) context.Context {
	l := FromContext(ctx).With().Str("left_id", leftID).Str("right_id", rightID).Logger()
	return WithLogger(ctx, &l)
}

// WithPass tags the logger with the matching pass; 1 is the first pass.
func WithPass(ctx context.Context, pass int) context.Context {
	return WithField(ctx, "pass", pass)
}

// WithError tags the logger with err. A nil err returns ctx unchanged.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, "error", err)
}
