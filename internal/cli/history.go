package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/history"
)

// HistoryFlags holds the flags for the history command
type HistoryFlags struct {
	Connection string
	Product    string
	Limit      int
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd() *cobra.Command {
	flags := &HistoryFlags{
		Limit: 20,
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved assessments",
		Long: `History lists saved assessments, newest first. On a terminal it
renders a table; otherwise one tab-separated line per assessment, suitable
for cut and grep.

Examples:
  aird history
  aird history --connection "sqlite:///data/***" -n 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Connection, "connection", "", "Filter by connection fingerprint")
	cmd.Flags().StringVar(&flags.Product, "product", "", "Filter by data product name")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", flags.Limit, "Maximum entries to list")

	return cmd
}

func runHistory(cmd *cobra.Command, flags *HistoryFlags) error {
	dbPath, _ := cmd.Flags().GetString("db-path")
	store, err := history.Open(resolveDBPath(dbPath))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.ListAssessments(history.ListFilter{
		Fingerprint: flags.Connection,
		DataProduct: flags.Product,
		Limit:       flags.Limit,
	})
	if err != nil {
		return err
	}

	if stdoutIsTTY() {
		renderHistoryTable(os.Stderr, entries)
	} else {
		writeHistoryPlain(os.Stdout, entries)
	}
	return nil
}
