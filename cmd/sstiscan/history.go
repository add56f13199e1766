package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sstiscan/internal/database"
	"github.com/nao1215/sstiscan/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show results of previous scans",
		Long: `History lists scans recorded in the local database.

Every scan is stored unless --no-history was given. Results are kept under
the XDG data directory (or --data-dir) in a single SQLite file.

Examples:
  # List every recorded scan, newest first
  sstiscan history

  # List scans of one target
  sstiscan history https://example.com/search

  # List every target that has been scanned
  sstiscan history --targets

  # Print one stored result as Markdown
  sstiscan history --show 0b7c1f7e-6f0a-4b8e-9a43-3f0b1c2d3e4f --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("targets", "L", false,
		"List all scanned targets")
	cmd.Flags().StringP("show", "s", "",
		"Print the stored result with this scan ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().Bool("markdown", false,
		"Output the --show result in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listTargets, err := cmd.Flags().GetBool("targets")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetString("show")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("cannot specify both --json and --markdown")
	}

	var target string
	if len(args) > 0 {
		target = args[0]
	}

	out := cmd.OutOrStdout()

	// Reading history must not create an empty database.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(getDataDir(cmd), opts)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No scan history found.")
		fmt.Fprintln(out, "\nRun 'sstiscan <url>' to scan a target.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case showID != "":
		return showScan(ctx, out, db, showID, jsonOutput, markdownOutput)
	case listTargets:
		return listScannedTargets(ctx, out, db, jsonOutput)
	default:
		return listScanHistory(ctx, out, db, target, jsonOutput)
	}
}

// showScan prints one stored result through a report writer.
func showScan(ctx context.Context, out io.Writer, db *database.HistoryDB, id string, jsonOutput, markdownOutput bool) error {
	result, err := db.GetByID(ctx, id)
	if err != nil {
		return err
	}

	format := report.FormatText
	switch {
	case jsonOutput:
		format = report.FormatJSON
	case markdownOutput:
		format = report.FormatMarkdown
	}

	_, err = report.New(format, out).Write(result)
	return err
}

// listScannedTargets lists all targets that have scan records in the database.
func listScannedTargets(ctx context.Context, out io.Writer, db *database.HistoryDB, jsonOutput bool) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if jsonOutput {
		if targets == nil {
			targets = []string{}
		}
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(targets)
		return err
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No scanned targets found in the database.")
		return nil
	}

	fmt.Fprintf(out, "Scanned targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'sstiscan history <url>' to see scan history for a target.")

	return nil
}

// listScanHistory lists stored scans, optionally for a single target.
func listScanHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, target string, jsonOutput bool) error {
	scans, err := db.GetHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if jsonOutput {
		if scans == nil {
			scans = []database.ScanMetadata{}
		}
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(scans)
		return err
	}

	if len(scans) == 0 {
		if target != "" {
			fmt.Fprintf(out, "No scan history found for %s\n", target)
		} else {
			fmt.Fprintln(out, "No scan history found.")
		}
		return nil
	}

	if target != "" {
		fmt.Fprintf(out, "Scan history for %s (%d scans):\n\n", target, len(scans))
	} else {
		fmt.Fprintf(out, "Scan history (%d scans):\n\n", len(scans))
	}
	fmt.Fprintf(out, "  %-36s  %-19s  %-6s  %-10s  %s\n", "ID", "Date", "Method", "Result", "Target")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))

	for _, meta := range scans {
		fmt.Fprintf(out, "  %-36s  %-19s  %-6s  %-10s  %s\n",
			meta.ID,
			meta.StartedAt.Format("2006-01-02 15:04:05"),
			meta.Method,
			formatResult(meta),
			meta.Target,
		)
	}

	fmt.Fprintln(out, "\nUse 'sstiscan history --show <id>' to print a stored result.")

	return nil
}

// formatResult summarizes a stored scan in one word.
func formatResult(meta database.ScanMetadata) string {
	switch {
	case meta.Vulnerable:
		return "VULNERABLE"
	case meta.Aborted:
		return "aborted"
	default:
		return "clean"
	}
}
