package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/hitsz-autonet/internal/model"
)

// MarkdownWriter outputs history in Markdown format, with a mermaid pie
// chart of outcomes, for pasting into issues or notes.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the history in Markdown format.
func (w *MarkdownWriter) Write(history *model.History) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("HITSZ Net Login History")
	md.PlainText("")

	w.writeSummary(md, history)
	w.writeAttempts(md, history)
	w.writeFooter(md, history)

	return len(md.String()), md.Build()
}

// writeSummary writes the outcome table, the pie chart and a status alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, history *model.History) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Outcomes())+1)
	for _, o := range model.Outcomes() {
		if n := history.Counts[o]; n > 0 {
			rows = append(rows, []string{"`" + o.String() + "`", strconv.Itoa(n)})
		}
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(history.Total()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if history.Total() > 0 {
		w.writePieChart(md, history)
	}

	w.writeAlert(md, history)
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, history *model.History) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Login Outcomes"),
		piechart.WithShowData(true),
	)

	for _, o := range model.Outcomes() {
		if n := history.Counts[o]; n > 0 {
			chart.LabelAndIntValue(o.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert summarizes the latest attempt.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, history *model.History) {
	latest := history.Latest()
	switch {
	case latest == nil:
		md.Note("No login attempts recorded yet.")
	case latest.VersionMismatch:
		md.Cautionf("The latest attempt failed on a browser driver version mismatch. %s",
			"Connect to another network and run `hitsz-autonet --update-driver`.")
	case latest.Outcome == model.OutcomeMissingCredentials:
		md.Importantf("The latest attempt had no credentials. Run `%s` and fill in the account.", "hitsz-autonet init")
	case !latest.Succeeded():
		md.Warningf("The latest attempt failed (%s). The monitor retries on its next poll.", latest.Outcome)
	default:
		md.Tip(fmt.Sprintf("The latest attempt succeeded (%s). Overall success rate: %.1f%%.",
			latest.VerifiedBy, history.SuccessRate()))
	}
	md.PlainText("")
}

// writeAttempts writes the attempts table.
func (w *MarkdownWriter) writeAttempts(md *markdown.Markdown, history *model.History) {
	md.H2("Recent Attempts")
	md.PlainText("")

	if len(history.Attempts) == 0 {
		md.PlainText("No login attempts recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(history.Attempts))
	for i := range history.Attempts {
		a := &history.Attempts[i]
		rows[i] = []string{
			formatTime(a.StartedAt),
			"`" + a.Outcome.String() + "`",
			verifiedText(a),
			formatDuration(a.Duration),
			strconv.Itoa(a.ProbeAttempts),
			orDash(a.DriverSource),
			truncateString(orDash(a.ErrorMessage), 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Started", "Outcome", "Verified", "Duration", "Probes", "Driver", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, history *model.History) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated %s by [hitsz-autonet](https://github.com/nao1215/hitsz-autonet)*",
		formatTime(history.GeneratedAt))
}
