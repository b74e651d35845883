// Package output provides formatted output for provisioning runs.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Stats holds execution statistics for output.
type Stats interface {
	GetApplied() int
	GetSkipped() int
	GetFailed() int
	GetTotal() int
	GetDuration() time.Duration
}

// Output handles formatted output.
type Output struct {
	w        io.Writer
	useColor bool
	debug    bool
}

// New creates a new output handler. Color is enabled when w is a terminal.
func New(w io.Writer) *Output {
	return &Output{
		w:        w,
		useColor: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColor enables or disables color output.
func (o *Output) SetColor(enabled bool) {
	o.useColor = enabled
}

// SetDebug enables or disables debug output.
func (o *Output) SetDebug(enabled bool) {
	o.debug = enabled
}

// color returns the string wrapped in color codes if enabled.
func (o *Output) color(c, s string) string {
	if !o.useColor {
		return s
	}
	return c + s + colorReset
}

// JobStart prints the job banner.
func (o *Output) JobStart(target, source string) {
	o.printf("\n%s %s\n", o.color(colorBold, "JOB"), target)
	if source != "" {
		o.printf("%s %s\n", o.color(colorGray, "source"), source)
	}
	if o.debug {
		o.printf("%s\n", strings.Repeat("-", 60))
	}
}

// JobEnd prints the run summary.
func (o *Output) JobEnd(stats Stats) {
	o.printf("\n%s ", o.color(colorBold, "RECAP"))

	applied := o.color(colorGreen, fmt.Sprintf("applied=%d", stats.GetApplied()))
	skipped := o.color(colorCyan, fmt.Sprintf("skipped=%d", stats.GetSkipped()))
	failed := o.color(colorRed, fmt.Sprintf("failed=%d", stats.GetFailed()))

	o.printf("%s %s %s", applied, skipped, failed)
	o.printf(" %s\n", o.color(colorGray, fmt.Sprintf("(%d addresses, %.2fs)", stats.GetTotal(), stats.GetDuration().Seconds())))
}

// ItemResult prints the result for one address in a single line.
// Skip reasons and failures are always shown; other messages only in
// debug mode.
func (o *Output) ItemResult(address, status, message string) {
	var indicator string
	var statusColor string
	showMessage := o.debug

	switch {
	case strings.HasPrefix(status, "applied"):
		indicator = "✓"
		statusColor = colorGreen
	case strings.HasPrefix(status, "skipped"):
		indicator = "○"
		statusColor = colorCyan
		showMessage = true
	case strings.HasPrefix(status, "failed"):
		indicator = "✗"
		statusColor = colorRed
		showMessage = true
	default:
		indicator = "?"
		statusColor = colorGray
	}

	o.printf("  %s %s\n", o.color(statusColor, indicator), address)

	if showMessage && message != "" {
		for _, line := range strings.Split(strings.TrimSpace(message), "\n") {
			o.printf("    %s %s\n", o.color(colorGray, "→"), strings.TrimSpace(line))
		}
	}
}

// Check prints an offline verdict for one address with its detail.
func (o *Output) Check(address string, ok bool, detail string) {
	indicator := o.color(colorGreen, "✓")
	if !ok {
		indicator = o.color(colorRed, "✗")
	}

	o.printf("  %s %s\n", indicator, address)
	if detail != "" {
		o.printf("    %s %s\n", o.color(colorGray, "→"), detail)
	}
}

// Section prints a section header.
func (o *Output) Section(name string) {
	o.printf("\n%s\n", o.color(colorBold, name))
}

// Info prints an informational message.
func (o *Output) Info(format string, args ...any) {
	o.printf("%s %s\n", o.color(colorBlue, "INFO"), fmt.Sprintf(format, args...))
}

// Warn prints a warning message.
func (o *Output) Warn(format string, args ...any) {
	o.printf("%s %s\n", o.color(colorYellow, "WARN"), fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (o *Output) Error(format string, args ...any) {
	o.printf("%s %s\n", o.color(colorRed, "ERROR"), fmt.Sprintf(format, args...))
}

// Debug prints a debug message (only in debug mode).
func (o *Output) Debug(format string, args ...any) {
	if o.debug {
		o.printf("%s %s\n", o.color(colorGray, "DEBUG"), fmt.Sprintf(format, args...))
	}
}

func (o *Output) printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}
