package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/remediation"
)

// FixFlags holds the flags for the fix command
type FixFlags struct {
	ID     string
	DryRun bool
	Dir    string
}

// NewFixCmd creates a new fix command
func NewFixCmd() *cobra.Command {
	flags := &FixFlags{}

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Generate remediation scripts for failed probes",
		Long: `Fix turns the failures of a stored assessment (the most recent one
unless --id names another) into remediation suggestions: a description and
a SQL sketch per failed probe. With -o the suggestions are written as
numbered .sql scripts; otherwise they are printed.

Examples:
  aird fix
  aird fix --id 3f9c2d1e-... --dry-run
  aird fix -o ./remediation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.ID, "id", "", "Assessment id (default: most recent)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print suggestions without writing files")
	cmd.Flags().StringVarP(&flags.Dir, "output", "o", "", "Directory to write remediation scripts into")

	return cmd
}

func runFix(cmd *cobra.Command, flags *FixFlags) error {
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
	suggestions := remediation.Suggestions(rep)
	if len(suggestions) == 0 {
		writeStdout("No failed tests to remediate.")
		return nil
	}

	if flags.DryRun || flags.Dir == "" {
		if stdoutIsTTY() {
			renderSuggestions(os.Stderr, suggestions)
			if flags.DryRun {
				fmt.Fprintln(os.Stderr, "\n--dry-run: No files written. Run without --dry-run and -o <dir> to write scripts.")
			}
		} else {
			writeSuggestionsPlain(os.Stdout, suggestions)
		}
		return nil
	}

	if err := os.MkdirAll(flags.Dir, 0o755); err != nil {
		return err
	}
	for i, s := range suggestions {
		path := filepath.Join(flags.Dir, remediation.ScriptName(i+1, s))
		if err := os.WriteFile(path, []byte(s.Script()), 0o644); err != nil {
			return err
		}
	}
	writeStdout(fmt.Sprintf("Wrote %d scripts to %s", len(suggestions), flags.Dir))
	return nil
}
