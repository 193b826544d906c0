// Package output provides styled console output for the client.
// All local logging goes through here so color handling, terminal width,
// and quiet/verbose behavior stay consistent across the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Console writes leveled, styled log lines.
type Console struct {
	w       io.Writer
	color   bool
	verbose bool

	mu sync.Mutex
}

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// New creates a Console writing to w. Color is enabled only when w is a
// terminal, the environment supports it, and NO_COLOR is unset.
func New(w io.Writer, verbose bool) *Console {
	return &Console{
		w:       w,
		color:   detectColor(w),
		verbose: verbose,
	}
}

// Default returns a stdout console.
func Default(verbose bool) *Console {
	return New(os.Stdout, verbose)
}

func detectColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

func (c *Console) print(style lipgloss.Style, prefix, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	line := prefix + " " + msg
	if c.color {
		line = style.Render(prefix) + " " + msg
	}
	fmt.Fprintln(c.w, line)
}

// Info prints an informational line.
func (c *Console) Info(format string, args ...any) {
	c.print(infoStyle, "•", format, args...)
}

// Success prints a success line.
func (c *Console) Success(format string, args ...any) {
	c.print(successStyle, "✓", format, args...)
}

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...any) {
	c.print(warnStyle, "!", format, args...)
}

// Error prints an error line.
func (c *Console) Error(format string, args ...any) {
	c.print(errorStyle, "✗", format, args...)
}

// Debug prints only when verbose is enabled.
func (c *Console) Debug(format string, args ...any) {
	if !c.verbose {
		return
	}
	c.print(dimStyle, "·", format, args...)
}

// Wrap word-wraps text to the terminal width (or 80 columns when the
// width is unknown), for long question/status blocks.
func (c *Console) Wrap(text string) string {
	width := 80
	if f, ok := c.w.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return wordwrap.String(text, width)
}

// Truncate shortens s to max display cells, appending an ellipsis.
// Display width is measured per-rune so wide glyphs count properly.
func Truncate(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}
