package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sstiscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the scan result wrapped with its verdict and summary.
func (w *JSONWriter) Write(result *model.ScanResult) (int, error) {
	return w.WriteValue(NewJSONReport(result))
}

// WriteValue marshals v to JSON and writes it to the output.
// The history command uses it for lists of stored scans.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a ScanResult with fields derived from it, so consumers do
// not have to recompute the verdict or the outcome counts.
type JSONReport struct {
	// Verdict is the line printed on stdout.
	Verdict string `json:"verdict"`

	// DurationMS is the scan duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Summary counts attempts per outcome.
	Summary map[string]int `json:"summary"`

	// Result is the full scan result.
	Result *model.ScanResult `json:"result"`
}

// NewJSONReport creates the JSON representation of result.
func NewJSONReport(result *model.ScanResult) *JSONReport {
	summary := make(map[string]int, len(outcomeOrder))
	for _, o := range outcomeOrder {
		summary[o.String()] = result.Count(o)
	}

	return &JSONReport{
		Verdict:    result.Verdict(),
		DurationMS: result.Duration().Milliseconds(),
		Summary:    summary,
		Result:     result,
	}
}

// outcomeOrder is the order outcomes are listed in summaries.
var outcomeOrder = []model.Outcome{
	model.OutcomeEvaluated,
	model.OutcomeReflected,
	model.OutcomeNotFound,
	model.OutcomeError,
}
