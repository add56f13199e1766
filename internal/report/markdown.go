package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sstiscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing, for example as a
// comment on a pull request or an issue.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the scan result in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writeAttempts(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.ScanResult) {
	md.H1("sstiscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan ID", "`" + result.ID + "`"},
			{"Target", "`" + result.Target + "`"},
			{"Method", result.Method},
			{"Scan Date", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", strconv.FormatInt(result.Duration().Milliseconds(), 10) + " ms"},
			{"Status", w.getStatusText(result)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on result state.
func (w *MarkdownWriter) getStatusText(result *model.ScanResult) string {
	switch {
	case result.Vulnerable:
		return "🔴 Vulnerable"
	case result.Aborted:
		return "⚠️ Aborted - " + result.Error
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the outcome counts, a chart and the verdict alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.ScanResult) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(outcomeOrder)+1)
	for _, o := range outcomeOrder {
		rows = append(rows, []string{o.String(), strconv.Itoa(result.Count(o))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(result.Attempts)) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(result.Attempts) > 1 {
		w.writePieChart(md, result)
	}

	w.writeAlert(md, result)
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *model.ScanResult) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Payload Outcomes"),
		piechart.WithShowData(true),
	)

	for _, o := range outcomeOrder {
		if n := result.Count(o); n > 0 {
			chart.LabelAndIntValue(o.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.ScanResult) {
	switch {
	case result.Vulnerable:
		md.Cautionf(
			"Possible SSTI: payload `%s` was rendered as `%s`. Review the request logs before confirming.",
			result.Payload, result.Expected,
		)
	case result.Aborted:
		md.Warningf("The scan was aborted and is inconclusive: %s", result.Error)
	case result.Count(model.OutcomeReflected) > 0:
		md.Note("Some payloads were reflected without being evaluated.")
	default:
		md.Tip("No SSTI vulnerabilities detected.")
	}
	md.PlainText("")
}

// writeAttempts writes one table row per payload sent.
func (w *MarkdownWriter) writeAttempts(md *markdown.Markdown, result *model.ScanResult) {
	md.H2("Payloads")
	md.PlainText("")

	if len(result.Attempts) == 0 {
		md.PlainText("No payloads were sent.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Attempts))
	for i, a := range result.Attempts {
		status := "-"
		if a.StatusCode != 0 {
			status = strconv.Itoa(a.StatusCode)
		}
		rows[i] = []string{
			"`" + truncateString(a.Payload, 50) + "`",
			a.Engine,
			dash(a.Expected),
			a.Outcome.String(),
			status,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Payload", "Engine", "Expected", "Outcome", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, a := range result.Attempts {
		if a.Error != "" {
			md.Details("Error for "+a.Payload, a.Error)
		}
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sstiscan](https://github.com/nao1215/sstiscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
