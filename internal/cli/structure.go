package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/framelab/annotation-service/internal/services"
)

func newStructureCommand() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "structure [file]",
		Short: "Build the timepoint/couple/conversation structure from recording paths",
		Long: `Reads one recording path per line (for example t1/4003_c1) from the file
or stdin and prints the resulting structure as YAML. A .yaml or .yml file is
read as a previously printed structure instead.

With --apply the missing timepoints, couples and conversations are created.
Applying the same input twice creates nothing the second time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			structure, err := readStructure(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			out, err := structure.YAML()
			if err != nil {
				return fmt.Errorf("failed to render structure: %w", err)
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}

			if !apply {
				return nil
			}
			return applyStructure(cmd.Context(), cmd.ErrOrStderr(), structure)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Create the missing rows in the database")
	return cmd
}

func readStructure(stdin io.Reader, args []string) (*services.Structure, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if len(args) == 1 {
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".yaml", ".yml":
			return services.ParseStructureYAML(data)
		}
	}
	return services.ParseStructure(string(data))
}

func applyStructure(ctx context.Context, w io.Writer, structure *services.Structure) error {
	cfg, logger, err := loadConfig(w)
	if err != nil {
		return err
	}
	a, err := bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	stats, err := a.services.Structure().Apply(ctx, structure)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created %d timepoints, %d couples, %d conversations (%d already existed)\n",
		stats.TimepointsCreated, stats.CouplesCreated, stats.ConversationsCreated, stats.Existing)
	return nil
}
