package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Option configures a Logger created with New.
type Option func(*config)

// Format selects how records are encoded.
type Format string

const (
	// FormatText is slog's logfmt-style text handler.
	FormatText Format = "text"

	// FormatPretty is the colorized charmbracelet/log handler for terminals.
	FormatPretty Format = "pretty"

	// FormatJSON is slog's JSON handler, used for log files and collectors.
	FormatJSON Format = "json"
)

// ParseFormat maps a flag or config value to a Format. The empty string
// selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatPretty, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want text, pretty or json)", s)
	}
}

// WithFormat selects the record encoding.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithLevel sets the minimum level that is written.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithDebug lowers the level to Debug when debug is set and leaves it
// alone otherwise.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithOutput sets where records go. Several writers receive identical
// bytes. Defaults to os.Stdout.
func WithOutput(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource includes source file:line in log output.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithComponent tags every record with component=name, so lines from the
// studio, the API and the event workers can be told apart in one file.
func WithComponent(name string) Option {
	return func(c *config) {
		c.component = name
	}
}
