package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"budget/internal/storage"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = rt.cfg.SQLiteDBPath
			}
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
			version, err := storage.RunMigrations(dbPath)
			if err != nil {
				return fmt.Errorf("migrating %s: %w", dbPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", dbPath, version)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database file, defaults to SQLITE_DB_PATH")

	return cmd
}
