package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/history"
	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/report"
)

// DiffFlags holds the flags for the diff command
type DiffFlags struct {
	Left  string
	Right string
}

// NewDiffCmd creates a new diff command
func NewDiffCmd() *cobra.Command {
	flags := &DiffFlags{}

	cmd := &cobra.Command{
		Use:   "diff [left-id] [right-id]",
		Short: "Compare two assessments level by level",
		Long: `Diff compares the level percentages of two assessments. Each side is
an assessment id from history, or a path to a report JSON file.

Examples:
  aird diff 3f9c2d1e-7a41-4a6b-9c0d-2f8f31b0a7cd 9d2c4b1a-5e63-4f0a-8b7e-6c1d20e9f3ab
  aird diff --left before.json --right after.json`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.Left, "left", "", "Left assessment id or report file path")
	cmd.Flags().StringVar(&flags.Right, "right", "", "Right assessment id or report file path")

	return cmd
}

func runDiff(cmd *cobra.Command, flags *DiffFlags, args []string) error {
	leftRef, rightRef := flags.Left, flags.Right
	if leftRef == "" && len(args) > 0 {
		leftRef = args[0]
	}
	if rightRef == "" && len(args) > 1 {
		rightRef = args[1]
	}
	if leftRef == "" || rightRef == "" {
		return pipeline.Usagef("diff requires two assessment ids or --left/--right paths")
	}

	dbPath, _ := cmd.Flags().GetString("db-path")
	store, err := history.Open(resolveDBPath(dbPath))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	left, err := loadDiffReport(store, leftRef)
	if err != nil {
		return err
	}
	right, err := loadDiffReport(store, rightRef)
	if err != nil {
		return err
	}

	if stdoutIsTTY() {
		renderDiff(os.Stderr, left.Summary, right.Summary)
	} else {
		writeDiffPlain(os.Stdout, left.Summary, right.Summary)
	}
	return nil
}

// loadDiffReport resolves one side of a diff: a 36-character value is tried
// as an assessment id first, anything else (or an unknown id) is read as a
// report file.
func loadDiffReport(store *history.Store, ref string) (*report.Report, error) {
	if len(ref) == 36 {
		rep, err := store.GetReport(ref)
		if err == nil {
			return rep, nil
		}
		if !errors.Is(err, history.ErrNotFound) {
			return nil, err
		}
	}
	raw, err := os.ReadFile(ref)
	if err != nil {
		return nil, err
	}
	var rep report.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse report file %s: %w", ref, err)
	}
	return &rep, nil
}
