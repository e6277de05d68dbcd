// Package commands implements the budgetctl command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
)

// runtime is filled by the root command before any subcommand runs.
type runtime struct {
	backend string
	cfg     *config.Config
	logger  *log.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:   "budgetctl",
		Short: "Record transactions and inspect ledger reports",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&rt.backend, "backend", "", "data backend, overrides DATA_BACKEND (memory, sqlite, sheets)")

	rootCmd.AddCommand(
		newAddCommand(rt),
		newAnalyzeCommand(rt),
		newLedgersCommand(rt),
		newMigrateCommand(rt),
	)
	return rootCmd
}

func (rt *runtime) load(cmd *cobra.Command) error {
	cli.LoadEnvFile()
	cfg := config.Load()
	if rt.backend != "" {
		cfg.DataBackend = rt.backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rt.cfg = cfg
	// stdout carries command output, logs go to stderr
	rt.logger = log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	return nil
}

func (rt *runtime) app(cmd *cobra.Command) (*cli.App, error) {
	app, err := cli.NewApp(cmd.Context(), rt.cfg, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return app, nil
}
