package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/history"
	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/report"
)

// SaveFlags holds the flags for the save command
type SaveFlags struct {
	Report     string
	Connection string
	Product    string
}

// NewSaveCmd creates a new save command
func NewSaveCmd() *cobra.Command {
	flags := &SaveFlags{
		Report: "-",
	}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist a report document to history",
		Long: `Save ingests a report JSON document and persists it to the history
store, printing the new assessment id. Reads stdin by default so reports
can be piped straight in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Report, "report", flags.Report, "Report file path, or - for stdin")
	cmd.Flags().StringVar(&flags.Connection, "connection", "", "Override the stored connection fingerprint (raw connection string, redacted before saving)")
	cmd.Flags().StringVar(&flags.Product, "product", "", "Tag the saved assessment with a data product name")

	return cmd
}

func runSave(cmd *cobra.Command, flags *SaveFlags) error {
	var raw []byte
	var err error
	if flags.Report == "-" || flags.Report == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(flags.Report)
	}
	if err != nil {
		return err
	}
	var rep report.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return fmt.Errorf("failed to parse report document: %w", err)
	}
	if flags.Connection != "" {
		rep.ConnectionFingerprint = platform.Fingerprint(flags.Connection)
	}

	dbPath, _ := cmd.Flags().GetString("db-path")
	store, err := history.Open(resolveDBPath(dbPath))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id, err := store.SaveReport(&rep, flags.Product)
	if err != nil {
		return err
	}
	writeStdout(id)
	return nil
}
