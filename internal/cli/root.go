// Package cli implements the annotator command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/framelab/annotation-service/internal/config"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "annotator",
		Short: "Frame annotation service for couple-interaction video studies",
		Long: `annotator serves the frame categorization API and the tooling around it.

Coders label video frames through the REST API; admins import the study
structure, sync users and export results from here.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newStructureCommand(),
		newExportCommand(),
		newSyncUsersCommand(),
		newBatchCommand(),
	)
	return root
}

// loadConfig reads the environment and builds the JSON logger the server uses.
func loadConfig(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
