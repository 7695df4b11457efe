package cli

import (
	"fmt"
	"strings"

	"gatehouse/internal/config"
	featuresettings "gatehouse/internal/features/settings"
	sqlitestore "gatehouse/internal/platform/storage/sqlite"

	"github.com/spf13/cobra"
)

func footerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "footer",
		Short: "Manage the footer note",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <markdown>",
		Short: "Store the footer note (empty restores the default)",
		Args:  cobra.MinimumNArgs(1),
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

			svc := featuresettings.NewService(sqlitestore.NewRepos(db).Settings)
			note := strings.Join(args, " ")
			if err := svc.SaveFooterSettings(cmd.Context(), featuresettings.FooterSettings{Markdown: note}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "footer updated")
			return nil
		},
	})
	return cmd
}
