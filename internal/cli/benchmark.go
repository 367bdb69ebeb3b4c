package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/history"
	"github.com/aird-ai/aird/internal/pipeline"
)

// BenchmarkFlags holds the flags for the benchmark command
type BenchmarkFlags struct {
	Connections []string
	Labels      []string
	Suite       string
	Factor      string
	Thresholds  string
	Save        bool
	List        bool
}

// NewBenchmarkCmd creates a new benchmark command
func NewBenchmarkCmd() *cobra.Command {
	flags := &BenchmarkFlags{
		Suite: "auto",
	}

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Assess multiple connections and rank the results",
		Long: `Benchmark assesses each connection independently and lays the factor
pass rates side by side, crowning the best overall dataset. A connection
that fails to connect is reported and the benchmark carries on.

Examples:
  aird benchmark -c sqlite:///staging.db -c sqlite:///prod.db
  aird benchmark -c sqlite:///a.db -c sqlite:///b.db --label before,after --save
  aird benchmark --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, flags)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.Connections, "connection", "c", nil, "Connection string (repeatable, at least 2 required)")
	cmd.Flags().StringArrayVar(&flags.Labels, "label", nil, "Comma-separated labels for each connection (auto-generated if omitted)")
	cmd.Flags().StringVar(&flags.Suite, "suite", flags.Suite, "Probe suite name (auto resolves the adapter default)")
	cmd.Flags().StringVar(&flags.Factor, "factor", "", "Filter to a single factor (e.g. clean, contextual)")
	cmd.Flags().StringVar(&flags.Thresholds, "thresholds", "", "Path to a thresholds override file")
	cmd.Flags().BoolVar(&flags.Save, "save", false, "Persist each report and the benchmark group to history")
	cmd.Flags().BoolVar(&flags.List, "list", false, "List previous benchmark runs")

	return cmd
}

func runBenchmark(cmd *cobra.Command, flags *BenchmarkFlags) error {
	dbPath, _ := cmd.Flags().GetString("db-path")

	if flags.List {
		store, err := history.Open(resolveDBPath(dbPath))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		records, err := store.ListBenchmarks(20)
		if err != nil {
			return err
		}
		if stdoutIsTTY() {
			renderBenchmarkList(os.Stderr, records)
		} else {
			writeBenchmarkListPlain(os.Stdout, records)
		}
		return nil
	}

	connections := make([]string, 0, len(flags.Connections))
	for _, c := range flags.Connections {
		connections = append(connections, ExpandConnection(c))
	}

	p, err := newPipeline(resolveDBPath(dbPath), false)
	if err != nil {
		return err
	}
	defer func() { _ = p.Store.Close() }()

	out, err := p.Benchmark(cmd.Context(), pipeline.BenchmarkOptions{
		Connections:    connections,
		Labels:         flags.Labels,
		Suite:          flags.Suite,
		Factor:         flags.Factor,
		ThresholdsPath: orEnv(flags.Thresholds, "AIRD_THRESHOLDS"),
		Save:           flags.Save,
	})
	if err != nil {
		return err
	}

	if stdoutIsTTY() {
		renderBenchmark(os.Stderr, out)
	} else {
		writeBenchmarkPlain(os.Stdout, out)
	}
	if out.BenchmarkID != "" {
		writeStdout("Benchmark saved: " + out.BenchmarkID)
	}
	return nil
}

func renderBenchmarkList(w io.Writer, records []history.BenchmarkRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No benchmarks found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tLABELS\tASSESSMENTS")
	fmt.Fprintln(tw, "--\t----\t------\t-----------")
	for _, r := range records {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", id, r.CreatedAt, strings.Join(r.Labels, ", "), len(r.AssessmentIDs))
	}
	_ = tw.Flush()
}

func writeBenchmarkListPlain(w io.Writer, records []history.BenchmarkRecord) {
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt, strings.Join(r.Labels, ","), strings.Join(r.AssessmentIDs, ","))
	}
}
