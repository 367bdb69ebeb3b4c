package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/requirement"
)

// NewRequirementsCmd creates a new requirements command
func NewRequirementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requirements",
		Short: "List the requirement registry and default thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequirements(cmd)
		},
	}
}

func runRequirements(cmd *cobra.Command) error {
	reg := requirement.Default()

	if stdoutIsTTY() {
		tw := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tFACTOR\tDIRECTION\tL1\tL2\tL3\tDESCRIPTION")
		fmt.Fprintln(tw, "---\t------\t---------\t--\t--\t--\t-----------")
		for _, key := range reg.Keys() {
			def, _ := reg.Get(key)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\t%v\t%s\n",
				def.Key, def.Factor, def.Direction,
				def.Thresholds.L1, def.Thresholds.L2, def.Thresholds.L3,
				truncate(def.Description, 60))
		}
		return tw.Flush()
	}

	for _, key := range reg.Keys() {
		def, _ := reg.Get(key)
		writeStdout(fmt.Sprintf("%s\t%s\t%s\t%v\t%v\t%v",
			def.Key, def.Factor, def.Direction,
			def.Thresholds.L1, def.Thresholds.L2, def.Thresholds.L3))
	}
	return nil
}
