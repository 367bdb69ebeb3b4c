package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/runner"
)

// ReportFlags holds the flags for the report command
type ReportFlags struct {
	Results string
	ID      string
	Output  string
}

// NewReportCmd creates a new report command
func NewReportCmd() *cobra.Command {
	flags := &ReportFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a report from results, or re-render a stored assessment",
		Long: `Report turns a results artifact from ` + "`aird run`" + ` into the full
assessment document, or re-renders a stored assessment by id.

Examples:
  aird run -c sqlite:///data/sales.db --inventory inv.json | aird report --results -
  aird report --id 3f9c2d1e-... -o json:report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Results, "results", "", "Results artifact path, or - for stdin")
	cmd.Flags().StringVar(&flags.ID, "id", "", "Stored assessment id to re-render")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output format: markdown, stdout, json:<path> (default markdown)")

	return cmd
}

func runReport(cmd *cobra.Command, flags *ReportFlags) error {
	output := resolveOutput(flags.Output, formatMarkdown)

	if flags.ID != "" {
		dbPath, _ := cmd.Flags().GetString("db-path")
		p, err := newPipeline(resolveDBPath(dbPath), false)
		if err != nil {
			return err
		}
		defer func() { _ = p.Store.Close() }()
		rep, err := p.LoadStored(flags.ID)
		if err != nil {
			return err
		}
		return writeReport(rep, output)
	}

	if flags.Results == "" {
		return pipeline.Usagef("--results or --id required")
	}
	var raw []byte
	var err error
	if flags.Results == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(flags.Results)
	}
	if err != nil {
		return err
	}
	results, err := parseResults(raw)
	if err != nil {
		return err
	}
	rep := report.Build(report.BuildInput{Results: results})
	return writeReport(rep, output)
}

// parseResults accepts either the run artifact envelope or a bare result
// array.
func parseResults(raw []byte) ([]report.Result, error) {
	var envelope runner.Output
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results, nil
	}
	var bare []report.Result
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("failed to parse results artifact: expected a run output document or a result array")
}
