package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/suite"
)

// NewSuitesCmd creates a new suites command
func NewSuitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List the registered probe suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(cmd)
		},
	}
}

func runSuites(cmd *cobra.Command) error {
	suites, err := suite.Default()
	if err != nil {
		return err
	}
	infos := suites.Describe()

	if stdoutIsTTY() {
		tw := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SUITE\tPLATFORM\tTESTS\tEXTENDS")
		fmt.Fprintln(tw, "-----\t--------\t-----\t-------")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", info.Name, info.Platform, info.Tests, strings.Join(info.Extends, ", "))
		}
		return tw.Flush()
	}

	for _, info := range infos {
		line := fmt.Sprintf("%s\t%d tests", info.Name, info.Tests)
		if len(info.Extends) > 0 {
			line += fmt.Sprintf("  (extends: %s)", strings.Join(info.Extends, ", "))
		}
		writeStdout(line)
	}
	return nil
}
