package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/sstiscan/internal/payload"
	"github.com/nao1215/sstiscan/internal/report"
)

// NewPayloadsCmd creates the payloads command.
func NewPayloadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payloads",
		Short: "List the built-in payloads in scan order",
		Long: `List every payload sstiscan sends, in the order they are tried, with the
template engine family each one targets and the value it renders to when
evaluated. Payloads without an expected value are only checked for reflection.`,
		Args: cobra.NoArgs,
		RunE: runPayloadsCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

// payloadEntry is one row of the payloads listing.
type payloadEntry struct {
	Engine   string `json:"engine"`
	Payload  string `json:"payload"`
	Expected string `json:"expected,omitempty"`
}

// runPayloadsCmd executes the payloads command.
func runPayloadsCmd(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	all := payload.All()
	entries := make([]payloadEntry, 0, len(all))
	for _, p := range all {
		expected, _ := payload.Expected(p) //nolint:errcheck // no expected value means reflection-only
		entries = append(entries, payloadEntry{Engine: p.Engine, Payload: p.Raw, Expected: expected})
	}

	if asJSON {
		_, err := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(entries)
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tENGINE\tEXPECTED\tPAYLOAD")
	for i, e := range entries {
		expected := e.Expected
		if expected == "" {
			expected = "(reflection only)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.Engine, expected, e.Payload)
	}
	return tw.Flush()
}
