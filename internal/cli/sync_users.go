package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-users",
		Short: "Mirror users from the Casdoor organization into the users table",
		Long: `Reads every user of the configured Casdoor organization and upserts them
by external id. Requires CASDOOR_ENDPOINT and CASDOOR_CLIENT_ID.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !cfg.Casdoor.Enabled() {
				return fmt.Errorf("casdoor is not configured")
			}
			a, err := bootstrap(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			result, err := a.services.UserSync().Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d of %d users\n", result.Synced, result.Fetched)
			return nil
		},
	}
}
