package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/platform"
)

// InitFlags holds the flags for the init command
type InitFlags struct {
	Dir   string
	Force bool
}

const starterContext = `# Assessment context for aird. Pass with --context or AIRD_CONTEXT.

# Scope: leave empty to assess every schema and table.
schemas: []
tables: []

# Target workload level: analytics (L1), rag (L2) or training (L3).
target_level: analytics

# Data products: named table groups reported separately.
data_products: []
#  - name: sales
#    tables: [orders, customers]
`

const starterThresholds = `# Threshold overrides for aird. Pass with --thresholds or AIRD_THRESHOLDS.
# Each entry replaces the registry defaults for one requirement; omitted
# levels keep their defaults.

null_rate:
  l1: 0.1
  l2: 0.05
  l3: 0.01
#duplicate_rate:
#  l1: 0.05
#  direction: lte
`

// NewInitCmd creates a new init command
func NewInitCmd() *cobra.Command {
	flags := &InitFlags{
		Dir: ".",
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write starter context and thresholds files",
		Long: `Init scaffolds a working setup: a starter context file and a
thresholds override file in the target directory, plus example connection
URIs for every supported platform.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Dir, "output", "o", flags.Dir, "Directory to write the starter files into")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, flags *InitFlags) error {
	if err := os.MkdirAll(flags.Dir, 0o755); err != nil {
		return err
	}
	files := []struct {
		name    string
		content string
	}{
		{"aird-context.yaml", starterContext},
		{"aird-thresholds.yaml", starterThresholds},
	}
	for _, f := range files {
		path := filepath.Join(flags.Dir, f.name)
		if !flags.Force {
			if _, err := os.Stat(path); err == nil {
				return pipeline.Usagef("%s already exists (use --force to overwrite)", path)
			}
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return err
		}
		writeStdout("Wrote " + path)
	}

	writeStdout("\nExample connections:")
	reg := platform.DefaultRegistry()
	for _, scheme := range reg.Schemes() {
		adapter, err := reg.Lookup(scheme)
		if err != nil {
			continue
		}
		writeStdout(fmt.Sprintf("  aird assess -c %s", adapter.Example))
	}
	writeStdout("\nNext: aird assess -c <connection> --context " + filepath.Join(flags.Dir, "aird-context.yaml"))
	return nil
}
