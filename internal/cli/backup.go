package cli

import (
	"fmt"

	"gatehouse/internal/config"
	"gatehouse/internal/platform/storage"

	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [dest]",
		Short: "Write a zip snapshot of the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			dest := ""
			if len(args) > 0 {
				dest = args[0]
			}
			path, err := storage.BackupToZip(cmd.Context(), db, dest)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s\n", path)
			return nil
		},
	}
}
