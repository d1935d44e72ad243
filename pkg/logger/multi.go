package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout sends each record to every sink. serve pairs the console with a
// JSON log file through it.
type fanout []slog.Handler

// Multi returns a logger that writes every record to each of loggers. Nil
// loggers are skipped and a lone remaining logger is returned unchanged.
// A sink that fails, such as a log file on a full disk, does not stop the
// others from receiving the record.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	var sinks fanout
	var only *slog.Logger
	for _, l := range loggers {
		if l == nil {
			continue
		}
		only = l
		sinks = append(sinks, l.Handler())
	}

	switch len(sinks) {
	case 0:
		return Nop()
	case 1:
		return only
	default:
		return slog.New(sinks)
	}
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle returns the failures of all sinks joined together.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) derive(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
