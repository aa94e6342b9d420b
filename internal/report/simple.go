package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nao1215/hitsz-autonet/internal/model"
)

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// showErrors adds the failure message column.
	showErrors bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithErrors shows the failure message of each attempt.
func WithErrors(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showErrors = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showErrors: true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the history in human-readable format.
func (w *SimpleWriter) Write(history *model.History) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, history)
	w.writeSummary(&sb, history)
	w.writeAttempts(&sb, history)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the title and generation time.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, history *model.History) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                    HITSZ NET LOGIN HISTORY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", formatTime(history.GeneratedAt)))
}

// writeSummary writes the per-outcome counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, history *model.History) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, o := range model.Outcomes() {
		if n := history.Counts[o]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %-22s %d\n", o.String()+":", n))
		}
	}
	sb.WriteString(fmt.Sprintf("  %-22s %d (%.1f%% successful)\n", "total:", history.Total(), history.SuccessRate()))

	if last := history.LastSuccess(); last != nil {
		sb.WriteString(fmt.Sprintf("  %-22s %s\n", "last success:", formatTime(last.StartedAt)))
	}
	sb.WriteString("\n")
}

// writeAttempts writes one aligned row per attempt.
func (w *SimpleWriter) writeAttempts(sb *strings.Builder, history *model.History) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECENT ATTEMPTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(history.Attempts) == 0 {
		sb.WriteString("  No login attempts recorded\n")
		return
	}

	tw := tabwriter.NewWriter(sb, 0, 0, 2, ' ', 0)
	header := "  STARTED\tOUTCOME\tVERIFIED\tDURATION\tPROBES\tDRIVER"
	if w.showErrors {
		header += "\tERROR"
	}
	fmt.Fprintln(tw, header)

	for i := range history.Attempts {
		a := &history.Attempts[i]
		row := fmt.Sprintf("  %s\t%s\t%s\t%s\t%d\t%s",
			formatTime(a.StartedAt),
			a.Outcome,
			verifiedText(a),
			formatDuration(a.Duration),
			a.ProbeAttempts,
			orDash(a.DriverSource),
		)
		if w.showErrors {
			row += "\t" + truncateString(orDash(a.ErrorMessage), 60)
		}
		fmt.Fprintln(tw, row)
	}
	_ = tw.Flush()
}
