package cmd

import (
	"fmt"

	"ecommerce/infrastructure/persistence/mysql"
	"ecommerce/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the MySQL schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Database.Type != "mysql" {
			return fmt.Errorf("migrate needs database.type=mysql, got %q", cfg.Database.Type)
		}
		db, err := mysql.FromAppConfig(cfg.Database).Connect()
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		return mysql.Migrate(cmd.Context(), db)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
