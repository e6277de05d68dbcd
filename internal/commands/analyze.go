package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/analysis"
	"budget/internal/core"
)

func newAnalyzeCommand(rt *runtime) *cobra.Command {
	var granularity string
	var entriesOnly bool

	cmd := &cobra.Command{
		Use:   "analyze <ledger>",
		Short: "Print the JSON report of a ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := core.ParseGranularity(granularity)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, rt, core.LedgerID(args[0]), g, entriesOnly)
		},
	}

	cmd.Flags().StringVar(&granularity, "granularity", "month", "display buckets: day or month")
	cmd.Flags().BoolVar(&entriesOnly, "entries", false, "print only the normalized entries")

	return cmd
}

func runAnalyze(cmd *cobra.Command, rt *runtime, id core.LedgerID, g core.Granularity, entriesOnly bool) error {
	app, err := rt.app(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	var out any
	if entriesOnly {
		entries, err := app.Analysis.Entries(cmd.Context(), id)
		if err != nil {
			return err
		}
		out = entries
	} else {
		report, err := app.Analysis.Analyze(cmd.Context(), id, analysis.Options{Granularity: g})
		if err != nil {
			return err
		}
		out = report
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
