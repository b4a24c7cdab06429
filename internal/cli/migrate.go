package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/backend"
	applog "expensetracker/internal/log"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg, applog.ComponentStorage)

			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			if !bcfg.Type.IsSQL() {
				return fmt.Errorf("backend %s has no schema to migrate", bcfg.Type)
			}

			// Open applies the embedded migrations before returning
			repo, err := backend.OpenRepository(cmd.Context(), bcfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			logger.Info("Migrations applied",
				applog.FieldOperation, applog.OpMigrate,
				"backend", bcfg.Type)
			return nil
		},
	}
}
