package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/discovery"
	"github.com/aird-ai/aird/internal/history"
	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/runner"
	"github.com/aird-ai/aird/internal/suite"
)

// RunFlags holds the flags for the run command
type RunFlags struct {
	Connection string
	Inventory  string
	Suite      string
	Thresholds string
	Output     string
	Results    string
	DryRun     bool
	Audit      bool
}

// NewRunCmd creates a new run command
func NewRunCmd() *cobra.Command {
	flags := &RunFlags{
		Inventory: "-",
		Suite:     "auto",
		Output:    formatStdout,
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run probes against a saved inventory",
		Long: `Run executes the probe suite against an inventory produced by
` + "`aird discover`" + `, read from a file or stdin. The results artifact on
stdout feeds ` + "`aird report`" + `.

Examples:
  aird discover -c sqlite:///data/sales.db | aird run -c sqlite:///data/sales.db
  aird run -c sqlite:///data/sales.db --inventory inv.json --results results.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Connection, "connection", "c", "", "Connection string (defaults to AIRD_CONNECTION_STRING)")
	cmd.Flags().StringVar(&flags.Inventory, "inventory", flags.Inventory, "Inventory file path, or - for stdin")
	cmd.Flags().StringVar(&flags.Suite, "suite", flags.Suite, "Probe suite name (auto resolves the adapter default)")
	cmd.Flags().StringVar(&flags.Thresholds, "thresholds", "", "Path to a thresholds override file")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output: stdout or json:<path>")
	cmd.Flags().StringVar(&flags.Results, "results", "", "Write the results artifact to a file instead of stdout")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Preview the probe plan without executing queries")
	cmd.Flags().BoolVar(&flags.Audit, "audit", false, "Record executed queries in the audit log")

	return cmd
}

func runRun(cmd *cobra.Command, flags *RunFlags) error {
	connection := connectionFromEnv(flags.Connection)
	if connection == "" {
		return pipeline.Usagef("--connection or AIRD_CONNECTION_STRING required")
	}

	var raw []byte
	var err error
	if flags.Inventory == "-" || flags.Inventory == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(flags.Inventory)
	}
	if err != nil {
		return err
	}
	var inv discovery.Inventory
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("failed to parse inventory: %w", err)
	}

	thresholds, err := pipeline.ResolveThresholds(orEnv(flags.Thresholds, "AIRD_THRESHOLDS"))
	if err != nil {
		return err
	}

	var audit runner.QueryAuditor
	if flags.Audit || envBool("AIRD_AUDIT") {
		dbPath, _ := cmd.Flags().GetString("db-path")
		store, err := history.Open(resolveDBPath(dbPath))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		audit = history.NewAuditSink(store, true)
	}

	suites, err := suite.Default()
	if err != nil {
		return err
	}
	conn, err := platform.DefaultRegistry().Open(cmd.Context(), connection)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	out, err := runner.Run(cmd.Context(), conn, suites, &inv, runner.Options{
		Suite:      flags.Suite,
		DryRun:     flags.DryRun,
		Thresholds: thresholds,
		Audit:      audit,
	})
	if err != nil {
		return err
	}

	if flags.Results != "" && flags.Results != "-" {
		return writeJSONFile(out, flags.Results)
	}
	if isJSONPath(flags.Output) {
		return writeJSONFile(out, jsonPath(flags.Output))
	}
	return writeJSONTo(os.Stdout, out, true)
}
