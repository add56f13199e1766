package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sstiscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// Plain ASCII sections keep the output readable when piped to a file.
type SimpleWriter struct {
	baseWriter

	// verbose adds engine, status and error details per payload.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the scan result in human-readable format.
func (w *SimpleWriter) Write(result *model.ScanResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result)
	w.writeAttempts(&sb, result)
	w.writeFooter(&sb, result)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          SSTISCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Scan ID:   %s\n", result.ID)
	fmt.Fprintf(sb, "Target:    %s\n", result.Target)
	fmt.Fprintf(sb, "Method:    %s\n", result.Method)
	fmt.Fprintf(sb, "Scan Date: %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:  %s\n", result.Duration().Round(time.Millisecond))

	switch {
	case result.Vulnerable:
		sb.WriteString("Status:    VULNERABLE\n")
	case result.Aborted:
		fmt.Fprintf(sb, "Status:    ABORTED - %s\n", result.Error)
	default:
		sb.WriteString("Status:    Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the per-outcome counts and the detection, if any.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  EVALUATED: %d\n", result.Count(model.OutcomeEvaluated))
	fmt.Fprintf(sb, "  REFLECTED: %d\n", result.Count(model.OutcomeReflected))
	fmt.Fprintf(sb, "  NOT FOUND: %d\n", result.Count(model.OutcomeNotFound))
	fmt.Fprintf(sb, "  ERROR:     %d\n", result.Count(model.OutcomeError))
	sb.WriteString("\n")

	if result.Vulnerable {
		fmt.Fprintf(sb, "  [!!!] Payload %s rendered as %s\n\n", result.Payload, result.Expected)
	}
}

// writeAttempts lists every payload that was sent, in order.
func (w *SimpleWriter) writeAttempts(sb *strings.Builder, result *model.ScanResult) {
	if len(result.Attempts) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAYLOADS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, a := range result.Attempts {
		fmt.Fprintf(sb, "  [%s] %s\n", w.getOutcomeIndicator(a.Outcome), a.Payload)
		if !w.verbose {
			continue
		}
		fmt.Fprintf(sb, "    Engine:   %s\n", a.Engine)
		if a.Expected != "" {
			fmt.Fprintf(sb, "    Expected: %s\n", a.Expected)
		}
		if a.StatusCode != 0 {
			fmt.Fprintf(sb, "    Status:   %d\n", a.StatusCode)
		}
		if a.Error != "" {
			fmt.Fprintf(sb, "    Error:    %s\n", a.Error)
		}
	}
	sb.WriteString("\n")
}

// getOutcomeIndicator returns a visual indicator for an outcome.
func (w *SimpleWriter) getOutcomeIndicator(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeEvaluated:
		return "!!!"
	case model.OutcomeReflected:
		return "~"
	case model.OutcomeNotFound:
		return "-"
	case model.OutcomeError:
		return "x"
	default:
		return "?"
	}
}

// writeFooter writes the verdict line and the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString(result.Verdict())
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sstiscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
