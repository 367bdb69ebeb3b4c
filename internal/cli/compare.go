package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/pipeline"
)

// CompareFlags holds the flags for the compare command
type CompareFlags struct {
	Connection string
	Tables     []string
	Suite      string
	Thresholds string
}

// NewCompareCmd creates a new compare command
func NewCompareCmd() *cobra.Command {
	flags := &CompareFlags{
		Suite: "auto",
	}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Assess two tables side by side",
		Long: `Compare runs a dedicated assessment per table against the same
connection and lays the per-factor pass rates side by side. Nothing is
persisted.

Examples:
  aird compare -c sqlite:///data/sales.db --tables orders,orders_clean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Connection, "connection", "c", "", "Connection string (defaults to AIRD_CONNECTION_STRING)")
	cmd.Flags().StringArrayVar(&flags.Tables, "tables", nil, "Comma-separated table names to compare (e.g. main.t1,main.t2)")
	cmd.Flags().StringVar(&flags.Suite, "suite", flags.Suite, "Probe suite name (auto resolves the adapter default)")
	cmd.Flags().StringVar(&flags.Thresholds, "thresholds", "", "Path to a thresholds override file")

	return cmd
}

func runCompare(cmd *cobra.Command, flags *CompareFlags) error {
	dbPath, _ := cmd.Flags().GetString("db-path")
	p, err := newPipeline(resolveDBPath(dbPath), false)
	if err != nil {
		return err
	}
	defer func() { _ = p.Store.Close() }()

	reports, err := p.Compare(cmd.Context(), pipeline.CompareOptions{
		Connection:     connectionFromEnv(flags.Connection),
		Tables:         flags.Tables,
		Suite:          flags.Suite,
		ThresholdsPath: orEnv(flags.Thresholds, "AIRD_THRESHOLDS"),
	})
	if err != nil {
		return err
	}

	if stdoutIsTTY() {
		renderCompare(os.Stderr, reports)
	} else {
		writeComparePlain(os.Stdout, reports)
	}
	return nil
}
