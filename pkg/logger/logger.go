// Package logger provides opinionated slog loggers for uidsl
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

type config struct {
	level     slog.Level
	format    Format
	source    bool
	component string
	writers   []io.Writer
}

// New builds a *slog.Logger. The default is a text handler at Info level
// writing to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo, format: FormatText}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer = os.Stdout
	switch len(c.writers) {
	case 0:
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	var h slog.Handler
	switch c.format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source})
	case FormatPretty:
		h = prettyHandler(w, c)
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source})
	}

	l := slog.New(h)
	if c.component != "" {
		l = l.With("component", c.component)
	}
	return l
}

func prettyHandler(w io.Writer, c *config) slog.Handler {
	h := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		ReportCaller:    c.source,
		Level:           charmlog.Level(c.level),
	})

	profile := termenv.Ascii
	if f, ok := w.(*os.File); ok {
		profile = termenv.NewOutput(f).EnvColorProfile()
	}
	h.SetColorProfile(profile)
	return h
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
