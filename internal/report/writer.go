package report

import (
	"fmt"
	"io"
	"time"

	"github.com/nao1215/hitsz-autonet/internal/model"
)

// Writer defines the interface for history output.
// Implementations write attempt history in various formats.
type Writer interface {
	// Write outputs the history to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(history *model.History) (int, error)
}

// Format names an output format of the history command.
type Format string

const (
	// FormatText is the human-readable terminal format.
	FormatText Format = "text"

	// FormatJSON is the machine-readable format.
	FormatJSON Format = "json"

	// FormatMarkdown is the format for sharing and documentation.
	FormatMarkdown Format = "markdown"
)

// NewWriter returns the Writer for format.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// baseWriter provides common functionality for history writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for every timestamp in text and Markdown output.
const timeLayout = "2006-01-02 15:04:05 MST"

// formatTime renders t in local time, or "-" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// formatDuration rounds d to 100ms.
func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

// verifiedText describes how an attempt ended in a single cell.
func verifiedText(a *model.Attempt) string {
	if a.Succeeded() {
		return string(a.VerifiedBy)
	}
	if a.VersionMismatch {
		return "version mismatch"
	}
	return "-"
}

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
