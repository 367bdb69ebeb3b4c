package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/runner"
)

// AssessFlags holds the flags for the assess command
type AssessFlags struct {
	Connection    string
	Schemas       []string
	Tables        []string
	Suite         string
	Output        string
	Thresholds    string
	Context       string
	Workload      string
	NoSave        bool
	Compare       bool
	DryRun        bool
	Audit         bool
	Survey        bool
	SurveyAnswers string
	Factor        string
	Product       string
}

// NewAssessCmd creates a new assess command
func NewAssessCmd() *cobra.Command {
	flags := &AssessFlags{
		Suite: "auto",
	}

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Full pipeline: discover, run, report, save",
		Long: `Assess runs the full readiness pipeline against one connection:
discover the catalog, execute the probe suite, score the results against
the L1/L2/L3 thresholds, and persist the report to history.

Examples:
  # Assess a SQLite file and render the report in the terminal
  aird assess -c sqlite:///data/sales.db

  # Target the RAG workload, scoped to two tables
  aird assess -c sqlite:///data/sales.db --workload rag -t orders -t customers

  # Preview the probe plan without touching the database
  aird assess -c sqlite:///data/sales.db --dry-run

  # Write the report to a file instead of the terminal
  aird assess -c sqlite:///data/sales.db -o json:report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Connection, "connection", "c", "", "Connection string (defaults to AIRD_CONNECTION_STRING, then the connection manifest)")
	cmd.Flags().StringArrayVarP(&flags.Schemas, "schema", "s", nil, "Limit discovery to a schema (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.Tables, "tables", "t", nil, "Limit discovery to a table (repeatable)")
	cmd.Flags().StringVar(&flags.Suite, "suite", flags.Suite, "Probe suite name (auto resolves the adapter default)")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output format: markdown, stdout, json:<path> (default markdown)")
	cmd.Flags().StringVar(&flags.Thresholds, "thresholds", "", "Path to a thresholds override file")
	cmd.Flags().StringVar(&flags.Context, "context", "", "Path to a context file with scope and data products")
	cmd.Flags().StringVar(&flags.Workload, "workload", "", "Target workload level: analytics (L1), rag (L2), training (L3)")
	cmd.Flags().BoolVar(&flags.NoSave, "no-save", false, "Skip persisting the report to history")
	cmd.Flags().BoolVar(&flags.Compare, "compare", false, "Show the diff against the previous assessment of the same connection")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Preview the probe plan without executing queries")
	cmd.Flags().BoolVar(&flags.Audit, "audit", false, "Record executed queries in the audit log")
	cmd.Flags().BoolVar(&flags.Survey, "survey", false, "Include the operational survey in the report")
	cmd.Flags().StringVar(&flags.SurveyAnswers, "survey-answers", "", "Path to a YAML file of pre-filled survey answers")
	cmd.Flags().StringVar(&flags.Factor, "factor", "", "Filter to a single factor (e.g. clean, contextual)")
	cmd.Flags().StringVar(&flags.Product, "product", "", "Assess only the named data product from the context file")

	return cmd
}

func runAssess(cmd *cobra.Command, flags *AssessFlags) error {
	switch flags.Workload {
	case "", "analytics", "rag", "training":
	default:
		return pipeline.Usagef("invalid workload %q (choose analytics, rag or training)", flags.Workload)
	}

	dbPath, _ := cmd.Flags().GetString("db-path")
	audit := flags.Audit || envBool("AIRD_AUDIT")
	p, err := newPipeline(resolveDBPath(dbPath), audit)
	if err != nil {
		return err
	}
	defer func() { _ = p.Store.Close() }()

	var progress runner.ProgressFunc
	if !flags.DryRun && stdoutIsTTY() {
		progress = newProgressPrinter(os.Stderr)
	}

	connection := resolveConnection(flags.Connection)
	outcome, err := p.Assess(cmd.Context(), pipeline.AssessOptions{
		Connection:     connection,
		Suite:          flags.Suite,
		Factor:         flags.Factor,
		Schemas:        flags.Schemas,
		Tables:         flags.Tables,
		ContextPath:    orEnv(flags.Context, "AIRD_CONTEXT"),
		ThresholdsPath: orEnv(flags.Thresholds, "AIRD_THRESHOLDS"),
		Workload:       flags.Workload,
		Product:        flags.Product,
		DryRun:         flags.DryRun,
		NoSave:         flags.NoSave,
		Compare:        flags.Compare,
		Survey:         flags.Survey,
		AnswersPath:    flags.SurveyAnswers,
		Progress:       progress,
	})
	if err != nil {
		return err
	}

	output := resolveOutput(flags.Output, formatMarkdown)
	if outcome.DryRun {
		preview := struct {
			Connection string                `json:"connection"`
			DryRun     bool                  `json:"dry_run"`
			TestCount  int                   `json:"test_count"`
			Preview    []runner.PreviewEntry `json:"preview"`
		}{connection, true, outcome.TestCount, outcome.Preview}
		return writeOutput(preview, output, func() string {
			return formatPreview(connection, outcome.TestCount, outcome.Preview)
		}, false)
	}

	if err := writeReport(outcome.Report, output); err != nil {
		return err
	}
	if outcome.Report.DiffPreviousID != "" {
		writeStdout("\n(Diff vs previous: " + outcome.Report.DiffPreviousID + ")")
	}
	return nil
}
