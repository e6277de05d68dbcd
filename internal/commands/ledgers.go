package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/backend"
)

func newLedgersCommand(rt *runtime) *cobra.Command {
	var count bool

	cmd := &cobra.Command{
		Use:   "ledgers",
		Short: "List the ledgers known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ids, err := app.Backend.Backend.ListLedgers(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing ledgers: %w", err)
			}
			for _, id := range ids {
				if !count {
					fmt.Fprintln(cmd.OutOrStdout(), id)
					continue
				}
				n, err := backend.CountTransactions(cmd.Context(), app.Backend.Backend, id)
				if err != nil {
					return fmt.Errorf("counting %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", id, n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&count, "count", false, "print the number of transactions next to each ledger")
	return cmd
}
