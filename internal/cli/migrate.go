package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/framelab/annotation-service/pkg"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			db, err := pkg.InitDatabase(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := pkg.Migrate(db); err != nil {
				return err
			}
			logger.Info("Migration complete")
			return nil
		},
	}
}
