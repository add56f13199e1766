package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sstiscan/internal/config"
)

// NewRootCmd creates the root command for sstiscan.
// The root command itself runs a scan; history, payloads, init and version
// are subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sstiscan [flags] <url>",
		Short: "Detect Server-Side Template Injection in a web endpoint",
		Long: `sstiscan probes a single HTTP endpoint for Server-Side Template Injection (SSTI).

It sends a fixed list of template expressions such as {{7*7}} and ${7*7} in the
ssti_test query parameter (GET) or form field (POST) and reports a possible
vulnerability when a response contains the evaluated result.

Payloads are sent one at a time and the scan stops at the first detection. A
timeout, connection error or HTTP error status ends the scan with a negative
result.

Examples:
  # Scan a search endpoint with GET
  sstiscan "https://example.com/search?q=test"

  # Scan a form with POST
  sstiscan -m POST -d "name=test&email=a@example.com" https://example.com/contact

  # Send extra headers
  sstiscan -H "Cookie: session=abc" -H "X-Requested-With: XMLHttpRequest" https://example.com/

  # Write a Markdown report
  sstiscan --markdown -o report.md https://example.com/search

Configuration file (.sstiscan) example:
  defaults:
    timeout: 15
  targets:
    "https://example.com/search":
      headers:
        - "Authorization: Bearer <token>"`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runScanCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose (debug) logging")
	cmd.PersistentFlags().String("data-dir", config.XDGDataDir(),
		"Directory holding the scan history database")

	addScanFlags(cmd)

	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewPayloadsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getDataDir returns the --data-dir value, falling back to the XDG data
// directory when the flag is not registered on cmd or its root.
func getDataDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		dir, err = cmd.Root().PersistentFlags().GetString("data-dir")
		if err != nil {
			return config.XDGDataDir()
		}
	}
	if dir == "" {
		return config.XDGDataDir()
	}
	return dir
}
