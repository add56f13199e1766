// Package report renders scan results for people and tools.
//
// Three writers are provided:
//   - SimpleWriter: plain text for terminals and log files
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub-flavored Markdown for sharing
//
// All of them implement Writer, so the CLI picks one from flags and writes
// the same *model.ScanResult through it. The one-line verdict printed on
// stdout is not produced here; reports are additional output.
package report
