package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/pipeline"
)

// RerunFlags holds the flags for the rerun command
type RerunFlags struct {
	Connection string
	ID         string
	Thresholds string
}

// NewRerunCmd creates a new rerun command
func NewRerunCmd() *cobra.Command {
	flags := &RerunFlags{}

	cmd := &cobra.Command{
		Use:   "rerun",
		Short: "Re-run the failed probes of a stored assessment",
		Long: `Rerun re-executes only the probes that failed in a stored assessment
(the most recent one unless --id names another) and shows which failures
are fixed and which remain. Nothing is persisted.

Examples:
  aird rerun -c sqlite:///data/sales.db
  aird rerun -c sqlite:///data/sales.db --id 3f9c2d1e-... --thresholds strict.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRerun(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Connection, "connection", "c", "", "Connection string (defaults to AIRD_CONNECTION_STRING)")
	cmd.Flags().StringVar(&flags.ID, "id", "", "Assessment id to re-run (default: most recent)")
	cmd.Flags().StringVar(&flags.Thresholds, "thresholds", "", "Path to a thresholds override file")

	return cmd
}

func runRerun(cmd *cobra.Command, flags *RerunFlags) error {
	dbPath, _ := cmd.Flags().GetString("db-path")
	p, err := newPipeline(resolveDBPath(dbPath), false)
	if err != nil {
		return err
	}
	defer func() { _ = p.Store.Close() }()

	deltas, err := p.Rerun(cmd.Context(), pipeline.RerunOptions{
		Connection:     connectionFromEnv(flags.Connection),
		AssessmentID:   flags.ID,
		ThresholdsPath: orEnv(flags.Thresholds, "AIRD_THRESHOLDS"),
	})
	if err != nil {
		return err
	}
	if len(deltas) == 0 {
		writeStdout("No failed tests to re-run.")
		return nil
	}

	if stdoutIsTTY() {
		renderRerun(os.Stderr, deltas)
	} else {
		writeRerunPlain(os.Stdout, deltas)
	}
	return nil
}
