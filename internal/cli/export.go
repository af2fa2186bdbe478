package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/framelab/annotation-service/internal/models"
)

func newExportCommand() *cobra.Command {
	var (
		sel    models.UnitSelector
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every user's categorizations of a unit to an xlsx workbook",
		Example: `  annotator export --group 12 -o group12.xlsx
  annotator export --conversation 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, ok := sel.Unit()
			if !ok {
				return fmt.Errorf("exactly one of --group, --conversation or --segment is required")
			}
			if output == "" {
				output = fmt.Sprintf("categorizations_%s_%d.xlsx", unit.Kind, unit.ID)
			}

			cfg, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			n, err := a.services.Export().WriteCategorizations(cmd.Context(), unit, f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				os.Remove(output)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s rows to %s\n", humanize.Comma(int64(n)), output)
			return nil
		},
	}

	addUnitFlags(cmd, &sel)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default categorizations_<kind>_<id>.xlsx)")
	return cmd
}

func addUnitFlags(cmd *cobra.Command, sel *models.UnitSelector) {
	cmd.Flags().UintVar(&sel.GroupID, "group", 0, "Group id")
	cmd.Flags().UintVar(&sel.ConversationID, "conversation", 0, "Conversation id")
	cmd.Flags().UintVar(&sel.SegmentID, "segment", 0, "Segment id")
	cmd.MarkFlagsMutuallyExclusive("group", "conversation", "segment")
	cmd.MarkFlagsOneRequired("group", "conversation", "segment")
}
