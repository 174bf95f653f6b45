package cmd

import (
	"fmt"

	"github.com/Govind-619/LinkSphere/config"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StoreDriver != config.StorePostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StorePostgres)
			}
			db, err := config.ConnectDatabase(cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			utils.LogInfo("Database migration completed")
			return nil
		},
	}
}
