package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aird",
		Short: "AIRD CLI",
		Long:  `AIRD assesses how ready a relational data source is for AI workloads.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			InitLogging(logLevel)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	cmd.PersistentFlags().String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	cmd.PersistentFlags().String("db-path", "", "Path to the assessment history database")

	// Add subcommands
	cmd.AddCommand(
		NewAssessCmd(),
		NewDiscoverCmd(),
		NewRunCmd(),
		NewReportCmd(),
		NewSaveCmd(),
		NewHistoryCmd(),
		NewDiffCmd(),
		NewSuitesCmd(),
		NewRequirementsCmd(),
		NewCompareCmd(),
		NewRerunCmd(),
		NewBenchmarkCmd(),
		NewInitCmd(),
		NewFixCmd(),
	)

	return cmd
}
