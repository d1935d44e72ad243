// Package cliui provides reusable terminal UI helpers (spinners, step indicators,
// markdown and code rendering) for uidsl CLI commands.
package cliui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/papercomputeco/uidsl/pkg/diagnostic"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	// Run spinner animation in background
	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	// Clear the spinner line and print final result
	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}

// RenderCode renders source code as a fenced markdown block so glamour can
// syntax highlight it. On failure the plain code is returned with the error.
func RenderCode(lang, code string) (string, error) {
	fence := "```"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	return RenderMarkdown(fmt.Sprintf("%s%s\n%s\n%s\n", fence, lang, strings.TrimRight(code, "\n"), fence))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or fallback when it is not a terminal.
func Width(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Truncate shortens s to at most width display cells, ending with an
// ellipsis when cut. Escape sequences are preserved.
func Truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

// KeyValue renders an aligned "key: value" line.
func KeyValue(key, value string) string {
	return fmt.Sprintf("  %s %s", KeyStyle.Render(fmt.Sprintf("%-10s", key+":")), ValueStyle.Render(value))
}

// Diagnostic renders a single diagnostic with its level colored.
func Diagnostic(d diagnostic.Diagnostic) string {
	var level string
	switch d.Level {
	case diagnostic.LevelError:
		level = ErrorStyle.Render("error")
	case diagnostic.LevelWarning:
		level = WarningStyle.Render("warning")
	default:
		level = InfoStyle.Render(string(d.Level))
	}

	line := fmt.Sprintf("  %s %s %s", level, KeyStyle.Render(d.Code), d.Message)
	if d.NodeID != "" {
		line += " " + DimStyle.Render("("+d.NodeID+")")
	}
	return line
}

// Diagnostics writes one line per diagnostic, or a success line when there
// are none.
func Diagnostics(w io.Writer, diags []diagnostic.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintf(w, "  %s no diagnostics\n", SuccessMark)
		return
	}
	for _, d := range diags {
		fmt.Fprintln(w, Diagnostic(d))
	}
}
