package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

func newAddCommand(rt *runtime) *cobra.Command {
	var tx core.RawTransaction

	cmd := &cobra.Command{
		Use:   "add <ledger>",
		Short: "Append a transaction to a ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, rt, core.LedgerID(args[0]), tx)
		},
	}

	cmd.Flags().StringVar(&tx.Date, "date", time.Now().Format("2006-01-02"), "transaction date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tx.Kind, "kind", "", "income or expense (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&tx.Amount, "amount", "", "amount, '.' or ',' as decimal separator (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&tx.Category, "category", "", "category")
	cmd.Flags().StringVar(&tx.Note, "note", "", "free-text note")
	cmd.Flags().StringVar(&tx.Currency, "currency", "", "ISO currency code, defaults to the base currency")
	cmd.Flags().StringVar(&tx.AttachmentText, "attachment", "", "text extracted from a receipt")

	return cmd
}

func runAdd(cmd *cobra.Command, rt *runtime, id core.LedgerID, tx core.RawTransaction) error {
	tx.Currency = strings.ToUpper(strings.TrimSpace(tx.Currency))

	app, err := rt.app(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	writer, err := app.Backend.Writable()
	if err != nil {
		return fmt.Errorf("%s backend: %w", rt.cfg.DataBackend, err)
	}

	var publisher services.RefreshPublisher
	client, err := cli.NewAMQPClient(rt.cfg, rt.logger)
	if err != nil {
		rt.logger.Warn("AMQP unavailable, refresh will wait for the next sweep", log.FieldError, err)
	} else if client != nil {
		defer client.Close()
		publisher = client
	}

	result, err := services.NewTransactionService(writer, publisher, rt.logger).Record(cmd.Context(), id, tx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Ref)
	return nil
}
