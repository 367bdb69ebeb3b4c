package pipeline

import (
	"context"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/report"
)

// BenchmarkOptions shapes one benchmark across several connections.
type BenchmarkOptions struct {
	Connections    []string
	Labels         []string // comma-separated values are expanded
	Suite          string
	Factor         string
	ThresholdsPath string
	Save           bool // persist each report and a benchmark group record
}

// Dataset is one connection's slot in a benchmark. A failed pipeline leaves
// Report nil and records the error; the benchmark carries on without it.
type Dataset struct {
	Label       string
	Fingerprint string
	Report      *report.Report
	Err         string
}

// BenchmarkOutcome is the product of one benchmark run: datasets in label
// order, plus the persisted group id when saving was requested.
type BenchmarkOutcome struct {
	Datasets    []Dataset
	BenchmarkID string
}

// Benchmark assesses every connection independently, one worker per
// connection. Per-connection failures are captured in their dataset slot;
// only cancellation aborts the whole run. With Save set, each successful
// report is persisted and a benchmark record binds the assessment ids.
func (p *Pipeline) Benchmark(ctx context.Context, opts BenchmarkOptions) (*BenchmarkOutcome, error) {
	connections := splitList(opts.Connections)
	if len(connections) < 2 {
		return nil, Usagef("benchmark requires at least 2 connections (repeatable -c)")
	}
	labels := BenchmarkLabels(splitList(opts.Labels), connections)

	p.Audit.LogConversation("benchmark started", "system", "benchmark")

	datasets := make([]Dataset, len(connections))
	g, gctx := errgroup.WithContext(ctx)
	for i, connection := range connections {
		i, connection := i, connection // per-iteration copies for the goroutine below (pre-Go 1.22 loop semantics)
		datasets[i] = Dataset{
			Label:       labels[i],
			Fingerprint: platform.Fingerprint(connection),
		}
		g.Go(func() error {
			outcome, err := p.Assess(gctx, AssessOptions{
				Connection:     connection,
				Suite:          opts.Suite,
				Factor:         opts.Factor,
				ThresholdsPath: opts.ThresholdsPath,
				NoSave:         true,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				datasets[i].Err = err.Error()
				return nil
			}
			datasets[i].Report = outcome.Report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BenchmarkOutcome{Datasets: datasets}
	if opts.Save && p.Store != nil {
		var fingerprints, ids []string
		for i := range datasets {
			if datasets[i].Report == nil {
				continue
			}
			id, err := p.Store.SaveReport(datasets[i].Report, "")
			if err != nil {
				return nil, err
			}
			datasets[i].Report.AssessmentID = id
			fingerprints = append(fingerprints, datasets[i].Fingerprint)
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			benchID, err := p.Store.SaveBenchmark(labels, fingerprints, ids)
			if err != nil {
				return nil, err
			}
			out.BenchmarkID = benchID
		}
	}
	return out, nil
}

// BenchmarkLabels resolves dataset labels: user labels first, padded with
// names derived from the connection, truncated to the connection count.
func BenchmarkLabels(labels, connections []string) []string {
	out := append([]string{}, labels...)
	for i := len(out); i < len(connections); i++ {
		out = append(out, labelFromConnection(connections[i]))
	}
	return out[:len(connections)]
}

// labelFromConnection derives a short dataset name from a connection URI:
// the last path segment with its extension stripped, e.g.
// "sqlite:///data/warehouse.db" becomes "warehouse".
func labelFromConnection(connection string) string {
	rest := connection
	if i := strings.Index(connection, "://"); i >= 0 {
		rest = connection[i+3:]
	}
	base := path.Base(strings.TrimRight(rest, "/"))
	if base == "." || base == "/" || base == "" {
		base = rest
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return connection
	}
	return base
}

// MatrixRow is one factor's percentages across the benchmark datasets, in
// dataset order. Failed datasets read 0.
type MatrixRow struct {
	Factor string
	L1     []float64
	L2     []float64
}

// Matrix flattens the datasets into per-factor rows plus the OVERALL row:
// per dataset, the mean of its factor percentages at each level.
func (b *BenchmarkOutcome) Matrix() (rows []MatrixRow, overall MatrixRow) {
	stats := make([]map[string]FactorStats, len(b.Datasets))
	for i, d := range b.Datasets {
		stats[i] = ExtractFactorStats(d.Report)
	}
	factors := OrderFactors(stats...)

	for _, f := range factors {
		row := MatrixRow{Factor: f}
		for i := range b.Datasets {
			s := stats[i][f]
			row.L1 = append(row.L1, s.Pct(s.L1))
			row.L2 = append(row.L2, s.Pct(s.L2))
		}
		rows = append(rows, row)
	}

	overall = MatrixRow{Factor: "OVERALL"}
	for i := range b.Datasets {
		var l1Sum, l2Sum float64
		for _, f := range factors {
			s := stats[i][f]
			l1Sum += s.Pct(s.L1)
			l2Sum += s.Pct(s.L2)
		}
		var l1Avg, l2Avg float64
		if len(factors) > 0 {
			l1Avg = round1(l1Sum / float64(len(factors)))
			l2Avg = round1(l2Sum / float64(len(factors)))
		}
		overall.L1 = append(overall.L1, l1Avg)
		overall.L2 = append(overall.L2, l2Avg)
	}
	return rows, overall
}

// Winner returns the index of the dataset with the highest overall L1
// percentage, or -1 when no dataset produced a report.
func (b *BenchmarkOutcome) Winner() int {
	_, overall := b.Matrix()
	winner := -1
	best := -1.0
	for i, v := range overall.L1 {
		if b.Datasets[i].Report == nil {
			continue
		}
		if v > best {
			best = v
			winner = i
		}
	}
	return winner
}
