package cli

import (
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/requirement"
)

func executeQuiet(cmd *cobra.Command, args ...string) error {
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "aird", cmd.Use)
	assert.True(t, cmd.HasSubCommands())
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db-path"))
}

func TestRootSubcommands(t *testing.T) {
	want := []string{
		"assess", "benchmark", "compare", "diff", "discover", "fix",
		"history", "init", "report", "requirements", "rerun", "run",
		"save", "suites",
	}
	var got []string
	for _, sub := range NewRootCmd().Commands() {
		got = append(got, sub.Name())
	}
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestCommandWiring(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{NewAssessCmd(), []string{"connection", "schema", "tables", "suite", "output", "thresholds", "context", "workload", "no-save", "compare", "dry-run", "audit", "survey", "survey-answers", "factor", "product"}},
		{NewDiscoverCmd(), []string{"connection", "schema", "tables", "context", "output"}},
		{NewRunCmd(), []string{"connection", "inventory", "suite", "thresholds", "output", "results", "dry-run", "audit"}},
		{NewReportCmd(), []string{"results", "id", "output"}},
		{NewSaveCmd(), []string{"report", "connection", "product"}},
		{NewHistoryCmd(), []string{"connection", "product", "limit"}},
		{NewDiffCmd(), []string{"left", "right"}},
		{NewSuitesCmd(), nil},
		{NewRequirementsCmd(), nil},
		{NewCompareCmd(), []string{"connection", "tables", "suite", "thresholds"}},
		{NewRerunCmd(), []string{"connection", "id", "thresholds"}},
		{NewBenchmarkCmd(), []string{"connection", "label", "suite", "factor", "thresholds", "save", "list"}},
		{NewInitCmd(), []string{"output", "force"}},
		{NewFixCmd(), []string{"id", "dry-run", "output"}},
	}
	for _, tc := range tests {
		t.Run(tc.cmd.Name(), func(t *testing.T) {
			assert.NotEmpty(t, tc.cmd.Short)
			require.NotNil(t, tc.cmd.RunE)
			for _, name := range tc.flags {
				assert.NotNil(t, tc.cmd.Flags().Lookup(name), "flag --%s", name)
			}
		})
	}
}

func TestCommandDefaults(t *testing.T) {
	assert.Equal(t, "auto", NewAssessCmd().Flags().Lookup("suite").DefValue)
	assert.Equal(t, "-", NewRunCmd().Flags().Lookup("inventory").DefValue)
	assert.Equal(t, "-", NewSaveCmd().Flags().Lookup("report").DefValue)
	assert.Equal(t, "20", NewHistoryCmd().Flags().Lookup("limit").DefValue)
	assert.Equal(t, "stdout", NewDiscoverCmd().Flags().Lookup("output").DefValue)
}

func TestAssessRejectsUnknownWorkload(t *testing.T) {
	err := executeQuiet(NewAssessCmd(), "--workload", "batch")
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUsage)
	assert.Equal(t, 2, ExitCode(err))
}

func TestRunRequiresConnection(t *testing.T) {
	t.Setenv("AIRD_CONNECTION_STRING", "")
	err := executeQuiet(NewRunCmd())
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUsage)
}

func TestDiscoverRequiresConnection(t *testing.T) {
	t.Setenv("AIRD_CONNECTION_STRING", "")
	err := executeQuiet(NewDiscoverCmd())
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUsage)
}

func TestReportRequiresInput(t *testing.T) {
	t.Setenv("AIRD_OUTPUT", "")
	err := executeQuiet(NewReportCmd())
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUsage)
}

func TestDiffRequiresTwoRefs(t *testing.T) {
	err := executeQuiet(NewDiffCmd())
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUsage)

	err = executeQuiet(NewDiffCmd(), "one", "two", "three")
	require.Error(t, err, "diff takes two positional ids at most")
}

func TestInitWritesStarterFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, executeQuiet(NewInitCmd(), "-o", dir))

	ctx, err := pipeline.LoadContext(filepath.Join(dir, "aird-context.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "analytics", ctx.TargetLevel)

	overrides, err := requirement.LoadOverrides(filepath.Join(dir, "aird-thresholds.yaml"))
	require.NoError(t, err)
	assert.Contains(t, overrides, "null_rate")

	err = executeQuiet(NewInitCmd(), "-o", dir)
	require.Error(t, err, "a second run refuses to overwrite")
	assert.ErrorIs(t, err, pipeline.ErrUsage)

	require.NoError(t, executeQuiet(NewInitCmd(), "-o", dir, "--force"))
}
