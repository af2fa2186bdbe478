package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/framelab/annotation-service/internal/client"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/workspace"
)

type batchOptions struct {
	url      string
	userID   uint
	password string
	unit     models.UnitSelector
	rng      string
	category string
	sides    string
	yes      bool
}

func newBatchCommand() *cobra.Command {
	opts := batchOptions{
		url:      os.Getenv("ANNOTATOR_URL"),
		password: os.Getenv("ANNOTATOR_PASSWORD"),
	}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Categorize a range of frames through the API",
		Long: `Logs in against a running server, loads the unit, sets one category on
every selected side of the frames in --range and saves.

Batches larger than 50 edits ask for confirmation unless --yes is given.`,
		Example: `  annotator batch --user 2 --group 12 --range 1-40 --category 4
  annotator batch --user 2 --segment 7 --range 12 --category 0 --sides left`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", opts.url, "Server base URL (env ANNOTATOR_URL)")
	f.UintVar(&opts.userID, "user", 0, "User id to log in as")
	f.StringVar(&opts.password, "password", opts.password, "Shared password (env ANNOTATOR_PASSWORD)")
	f.StringVar(&opts.rng, "range", "", "Frame range, N or N-M, 1-based")
	f.StringVar(&opts.category, "category", "", "Category code")
	f.StringVar(&opts.sides, "sides", string(workspace.SidesBoth), "left, right or both")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Apply large batches without asking")
	addUnitFlags(cmd, &opts.unit)
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("range")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func runBatch(cmd *cobra.Command, opts batchOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	unit, ok := opts.unit.Unit()
	if !ok {
		return fmt.Errorf("exactly one of --group, --conversation or --segment is required")
	}
	if opts.url == "" {
		return fmt.Errorf("--url or ANNOTATOR_URL is required")
	}

	api, err := client.New(opts.url)
	if err != nil {
		return err
	}
	user, err := api.Login(ctx, opts.userID, opts.password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	session, err := workspace.Load(ctx, api, unit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d frames in %s %d\n", user.DisplayName, session.TotalFrames(), unit.Kind, unit.ID)

	confirm := confirmPrompt(cmd.InOrStdin(), out)
	if opts.yes {
		confirm = func(int) bool { return true }
	}
	edits, err := session.ApplyBatch(workspace.BatchRequest{
		Range:    opts.rng,
		Category: opts.category,
		Sides:    workspace.SideSelection(opts.sides),
	}, confirm)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d edits to category %s\n", edits, opts.category)

	saveErr := session.Save(ctx)
	status := session.Status()
	fmt.Fprintf(out, "%s: %s\n", status.State, status.Message)
	return saveErr
}

func confirmPrompt(in io.Reader, out io.Writer) workspace.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(edits int) bool {
		fmt.Fprintf(out, "Apply %d edits? [y/N] ", edits)
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
