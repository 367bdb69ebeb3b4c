package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/report"
)

func TestBenchmarkLabels(t *testing.T) {
	tests := []struct {
		name        string
		labels      []string
		connections []string
		want        []string
	}{
		{
			name:        "explicit labels",
			labels:      []string{"Prod", "Staging"},
			connections: []string{"sqlite:///a.db", "sqlite:///b.db"},
			want:        []string{"Prod", "Staging"},
		},
		{
			name:        "padded from connection basenames",
			labels:      nil,
			connections: []string{"sqlite:///data/sales.db", "sqlite:///data/warehouse.db"},
			want:        []string{"sales", "warehouse"},
		},
		{
			name:        "partial labels pad the tail",
			labels:      []string{"Prod"},
			connections: []string{"sqlite:///a/x.db", "sqlite:///b/staging.db"},
			want:        []string{"Prod", "staging"},
		},
		{
			name:        "extra labels are truncated",
			labels:      []string{"one", "two", "three"},
			connections: []string{"sqlite:///a.db", "sqlite:///b.db"},
			want:        []string{"one", "two"},
		},
		{
			name:        "scheme-less connection",
			labels:      nil,
			connections: []string{"warehouse.duckdb", "sqlite://db/metrics.db"},
			want:        []string{"warehouse", "metrics"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BenchmarkLabels(tc.labels, tc.connections))
		})
	}
}

func TestBenchmarkAssessesEachConnection(t *testing.T) {
	p := newTestPipeline(t)
	clean := seedSource(t, "tidy.db", false)
	dirty := seedSource(t, "messy.db", true)

	out, err := p.Benchmark(context.Background(), BenchmarkOptions{
		Connections: []string{clean, dirty},
		Labels:      []string{"tidy,messy"},
		Save:        true,
	})
	require.NoError(t, err)
	require.Len(t, out.Datasets, 2)
	assert.Equal(t, "tidy", out.Datasets[0].Label)
	assert.Equal(t, "messy", out.Datasets[1].Label)
	require.NotNil(t, out.Datasets[0].Report)
	require.NotNil(t, out.Datasets[1].Report)
	assert.Empty(t, out.Datasets[0].Err)
	assert.NotEmpty(t, out.BenchmarkID)

	assert.Equal(t, 0, out.Winner(), "the tidy source wins on overall L1")

	records, err := p.Store.ListBenchmarks(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, out.BenchmarkID, records[0].ID)
	assert.Equal(t, []string{"tidy", "messy"}, records[0].Labels)
	require.Len(t, records[0].AssessmentIDs, 2)
	assert.Equal(t, out.Datasets[0].Report.AssessmentID, records[0].AssessmentIDs[0])

	rec, err := p.Store.GetBenchmark(out.BenchmarkID)
	require.NoError(t, err)
	assert.Equal(t, []string{platform.Fingerprint(clean), platform.Fingerprint(dirty)}, rec.Connections)

	for _, id := range records[0].AssessmentIDs {
		rep, err := p.Store.GetReport(id)
		require.NoError(t, err)
		assert.Greater(t, rep.Summary.TotalTests, 0)
	}
}

func TestBenchmarkWithoutSavePersistsNothing(t *testing.T) {
	p := newTestPipeline(t)
	a := seedSource(t, "a.db", false)
	b := seedSource(t, "b.db", true)

	out, err := p.Benchmark(context.Background(), BenchmarkOptions{
		Connections: []string{a, b},
	})
	require.NoError(t, err)
	assert.Empty(t, out.BenchmarkID)

	records, err := p.Store.ListBenchmarks(10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBenchmarkCapturesConnectionFailures(t *testing.T) {
	p := newTestPipeline(t)
	good := seedSource(t, "good.db", false)
	bad := "sqlite:///no/such/directory/missing.db"

	out, err := p.Benchmark(context.Background(), BenchmarkOptions{
		Connections: []string{good, bad},
		Save:        true,
	})
	require.NoError(t, err, "one broken connection does not abort the benchmark")
	require.Len(t, out.Datasets, 2)
	require.NotNil(t, out.Datasets[0].Report)
	assert.Nil(t, out.Datasets[1].Report)
	assert.NotEmpty(t, out.Datasets[1].Err)
	assert.Equal(t, 0, out.Winner())

	records, err := p.Store.ListBenchmarks(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].AssessmentIDs, 1, "only the successful run is recorded")
}

func TestBenchmarkRequiresTwoConnections(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.Benchmark(context.Background(), BenchmarkOptions{
		Connections: []string{"sqlite://:memory:"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestBenchmarkCancellation(t *testing.T) {
	p := newTestPipeline(t)
	a := seedSource(t, "a.db", false)
	b := seedSource(t, "b.db", true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Benchmark(ctx, BenchmarkOptions{Connections: []string{a, b}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func benchmarkOutcomeFor(results ...[]report.Result) *BenchmarkOutcome {
	out := &BenchmarkOutcome{}
	for i, rs := range results {
		out.Datasets = append(out.Datasets, Dataset{
			Label:  string(rune('a' + i)),
			Report: report.Build(report.BuildInput{Results: rs}),
		})
	}
	return out
}

func TestBenchmarkMatrix(t *testing.T) {
	pass := report.Result{Factor: "clean", L1Pass: true, L2Pass: true, L3Pass: true}
	fail := report.Result{Factor: "clean"}
	contextualPass := report.Result{Factor: "contextual", L1Pass: true, L2Pass: false}

	out := benchmarkOutcomeFor(
		[]report.Result{pass, pass, contextualPass},
		[]report.Result{pass, fail, contextualPass},
	)

	rows, overall := out.Matrix()
	require.Len(t, rows, 2)
	assert.Equal(t, "clean", rows[0].Factor)
	assert.Equal(t, []float64{100, 50}, rows[0].L1)
	assert.Equal(t, "contextual", rows[1].Factor)
	assert.Equal(t, []float64{100, 100}, rows[1].L1)
	assert.Equal(t, []float64{0, 0}, rows[1].L2)

	assert.Equal(t, "OVERALL", overall.Factor)
	assert.Equal(t, []float64{100, 75}, overall.L1)
	assert.Equal(t, []float64{50, 25}, overall.L2)
	assert.Equal(t, 0, out.Winner())
}

func TestBenchmarkMatrixSkipsFailedDatasets(t *testing.T) {
	pass := report.Result{Factor: "clean", L1Pass: true}
	out := benchmarkOutcomeFor([]report.Result{pass})
	out.Datasets = append(out.Datasets, Dataset{Label: "broken", Err: "connect refused"})

	rows, overall := out.Matrix()
	require.Len(t, rows, 1)
	assert.Equal(t, []float64{100, 0}, rows[0].L1)
	assert.Equal(t, []float64{100, 0}, overall.L1)
	assert.Equal(t, 0, out.Winner(), "failed datasets never win")
}
